package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hearsay-app/hearsay/internal/checksum"
	"github.com/hearsay-app/hearsay/internal/download"
	"github.com/hearsay-app/hearsay/internal/progress"
	"github.com/hearsay-app/hearsay/internal/whisper"
)

func TestModelsListReportsInstallState(t *testing.T) {
	t.Parallel()

	modelDir := t.TempDir()
	writeInstalledModel(t, modelDir, whisper.VariantTiny)

	app := &appState{modelDir: modelDir, noProgress: true}
	cmd := newModelsListCmd(app)
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)

	require.NoError(t, cmd.Execute())

	lines := out.String()
	require.Contains(t, lines, "tiny")
	require.Contains(t, lines, "installed")
	require.Contains(t, lines, "large-v3")
	require.Contains(t, lines, "not downloaded")
}

func TestModelsFetchUsesCatalogDescriptor(t *testing.T) {
	t.Parallel()

	modelDir := t.TempDir()
	var got download.Descriptor
	app := &appState{
		modelDir:   modelDir,
		noProgress: true,
		fetchFn: func(_ context.Context, desc download.Descriptor, _ progress.Sink) error {
			got = desc
			return nil
		},
	}

	cmd := newModelsFetchCmd(app)
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"base"})

	require.NoError(t, cmd.Execute())

	artifact, ok := whisper.Lookup(whisper.VariantBase)
	require.True(t, ok)
	require.Equal(t, artifact.URL, got.URL)
	require.Equal(t, artifact.SHA256, got.ExpectedSHA256)
	require.Equal(t, artifact.InstallPath(modelDir), got.TargetPath)
	require.Contains(t, out.String(), "installed at")
}

func TestModelsFetchDefaultsToConfiguredModel(t *testing.T) {
	t.Parallel()

	var got download.Descriptor
	app := &appState{
		model:      "tiny",
		modelDir:   t.TempDir(),
		noProgress: true,
		fetchFn: func(_ context.Context, desc download.Descriptor, _ progress.Sink) error {
			got = desc
			return nil
		},
	}

	cmd := newModelsFetchCmd(app)
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	require.Equal(t, whisper.VariantTiny.Filename(), filepath.Base(got.TargetPath))
}

func TestModelsFetchRefetchesCorruptedArtifact(t *testing.T) {
	t.Parallel()

	modelDir := t.TempDir()
	writeInstalledModel(t, modelDir, whisper.VariantTiny)

	fetched := false
	app := &appState{
		modelDir:   modelDir,
		noProgress: true,
		fetchFn: func(context.Context, download.Descriptor, progress.Sink) error {
			fetched = true
			return nil
		},
	}

	cmd := newModelsFetchCmd(app)
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"tiny"})

	require.NoError(t, cmd.Execute())
	require.True(t, fetched, "a file with the wrong digest should trigger a fresh download")
}

func TestModelsFetchRejectsUnknownVariant(t *testing.T) {
	t.Parallel()

	app := &appState{modelDir: t.TempDir(), noProgress: true}
	cmd := newModelsFetchCmd(app)
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"gigantic"})

	err := cmd.Execute()
	require.Error(t, err)
	require.Contains(t, err.Error(), "gigantic")
}

func TestModelsRemove(t *testing.T) {
	t.Parallel()

	modelDir := t.TempDir()
	path := writeInstalledModel(t, modelDir, whisper.VariantTiny)

	app := &appState{modelDir: modelDir, noProgress: true}
	cmd := newModelsRemoveCmd(app)
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"tiny"})

	require.NoError(t, cmd.Execute())
	require.NoFileExists(t, path)
	require.Contains(t, out.String(), "removed")
}

func TestModelsRemoveMissingModel(t *testing.T) {
	t.Parallel()

	app := &appState{modelDir: t.TempDir(), noProgress: true}
	cmd := newModelsRemoveCmd(app)
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"tiny"})

	err := cmd.Execute()
	require.Error(t, err)
	require.Contains(t, err.Error(), "not installed")
}

func TestModelsVerifyPathPrintsDigest(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "artifact.bin")
	require.NoError(t, os.WriteFile(path, []byte("artifact bytes"), 0o644))
	digest, err := checksum.SumFile(path)
	require.NoError(t, err)

	app := &appState{modelDir: t.TempDir(), noProgress: true}
	cmd := newModelsVerifyCmd(app)
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute())
	require.Contains(t, out.String(), digest)
}

func TestModelsVerifyDetectsCorruption(t *testing.T) {
	t.Parallel()

	modelDir := t.TempDir()
	writeInstalledModel(t, modelDir, whisper.VariantTiny)

	app := &appState{modelDir: modelDir, noProgress: true}
	cmd := newModelsVerifyCmd(app)
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"tiny"})

	err := cmd.Execute()
	require.Error(t, err)
	require.Contains(t, err.Error(), "corrupted")
}

func TestLooksLikePath(t *testing.T) {
	t.Parallel()

	require.True(t, looksLikePath("models/ggml-tiny.bin"))
	require.True(t, looksLikePath("ggml-tiny.bin"))
	require.False(t, looksLikePath("tiny"))
}
