// Package whisper manages the local speech-to-text engine: the catalog of
// downloadable model variants and the process-wide session that owns the
// single loaded engine instance.
package whisper

import (
	"fmt"
	"strings"
)

// Variant identifies one model size tier. Each variant maps to a fixed
// canonical artifact filename.
type Variant string

const (
	VariantTiny    Variant = "tiny"
	VariantBase    Variant = "base"
	VariantSmall   Variant = "small"
	VariantMedium  Variant = "medium"
	VariantLargeV3 Variant = "large-v3"
)

// DefaultVariant is used when the caller does not name one.
const DefaultVariant = VariantSmall

// ParseVariant maps a user-supplied name onto a known variant.
func ParseVariant(name string) (Variant, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return DefaultVariant, nil
	}

	for _, v := range Variants() {
		if string(v) == normalized {
			return v, nil
		}
	}

	return "", fmt.Errorf("unknown model variant %q (known variants: %s)", name, strings.Join(VariantNames(), ", "))
}

// Variants returns all known variants, smallest first.
func Variants() []Variant {
	return []Variant{VariantTiny, VariantBase, VariantSmall, VariantMedium, VariantLargeV3}
}

// VariantNames returns the variant identifiers, smallest first.
func VariantNames() []string {
	variants := Variants()
	names := make([]string, 0, len(variants))
	for _, v := range variants {
		names = append(names, string(v))
	}
	return names
}

// Filename returns the canonical artifact filename for the variant.
func (v Variant) Filename() string {
	return fmt.Sprintf("ggml-%s.bin", v)
}

func (v Variant) String() string {
	return string(v)
}
