package whisper

import (
	"path/filepath"

	"github.com/hearsay-app/hearsay/internal/download"
)

// Artifact describes one downloadable model: where it lives, how large it
// is, and the pinned digest a download must match.
type Artifact struct {
	Variant   Variant
	FileName  string
	URL       string
	SHA256    string
	SizeBytes int64
}

var registry = map[Variant]Artifact{
	VariantTiny: {
		Variant:   VariantTiny,
		FileName:  "ggml-tiny.bin",
		URL:       "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-tiny.bin",
		SHA256:    "be07e048e1e599ad46341c8d2a135645097a538221678b7acdd1b1919c6e1b21",
		SizeBytes: 77691713,
	},
	VariantBase: {
		Variant:   VariantBase,
		FileName:  "ggml-base.bin",
		URL:       "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-base.bin",
		SHA256:    "60ed5bc3dd14eea856493d334349b405782ddcaf0028d4b5df4088345fba2efe",
		SizeBytes: 147951465,
	},
	VariantSmall: {
		Variant:   VariantSmall,
		FileName:  "ggml-small.bin",
		URL:       "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-small.bin",
		SHA256:    "1be3a9b2063867b937e64e2ec7483364a79917e157fa98c5d94b5c1fffea987b",
		SizeBytes: 487601967,
	},
	VariantMedium: {
		Variant:   VariantMedium,
		FileName:  "ggml-medium.bin",
		URL:       "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-medium.bin",
		SHA256:    "6c14d5adee5f86394037b4e4e8b59f1673b6cee10e3cf0b11bbdbee79c156208",
		SizeBytes: 1533763059,
	},
	VariantLargeV3: {
		Variant:   VariantLargeV3,
		FileName:  "ggml-large-v3.bin",
		URL:       "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-large-v3.bin",
		SHA256:    "64d182b440b98d5203c4f9bd541544d84c605196c4f7b845dfa11fb23594d1e2",
		SizeBytes: 3095033483,
	},
}

// Lookup returns the artifact for a variant.
func Lookup(v Variant) (Artifact, bool) {
	artifact, ok := registry[v]
	return artifact, ok
}

// Artifacts returns all catalog entries, smallest variant first.
func Artifacts() []Artifact {
	out := make([]Artifact, 0, len(registry))
	for _, v := range Variants() {
		out = append(out, registry[v])
	}
	return out
}

// InstallPath returns the deterministic location of the variant's artifact
// inside modelDir.
func (a Artifact) InstallPath(modelDir string) string {
	return filepath.Join(modelDir, a.FileName)
}

// Descriptor builds the download contract for installing the artifact
// into modelDir.
func (a Artifact) Descriptor(modelDir string) download.Descriptor {
	return download.Descriptor{
		URL:            a.URL,
		TargetPath:     a.InstallPath(modelDir),
		ExpectedSize:   a.SizeBytes,
		ExpectedSHA256: a.SHA256,
	}
}
