package cli

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hearsay-app/hearsay/internal/audio"
	"github.com/hearsay-app/hearsay/internal/download"
	"github.com/hearsay-app/hearsay/internal/whisper"
)

func runCommand(t *testing.T, args []string) (stdout string, stderr string, err error) {
	t.Helper()

	cmd := NewRootCmd()
	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)

	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)

	err = cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

// writeToneWAV writes one second of 16 kHz audio loud enough to pass the
// silence gate.
func writeToneWAV(t *testing.T) string {
	t.Helper()

	samples := make([]float32, 16000)
	for i := range samples {
		samples[i] = 0.25 * float32(math.Sin(2*math.Pi*float64(i)/100))
	}

	path := filepath.Join(t.TempDir(), "tone.wav")
	require.NoError(t, audio.EncodeFile(path, samples, 16000))
	return path
}

func writeWAVAtRate(t *testing.T, path string, sampleRate int) {
	t.Helper()

	samples := make([]float32, sampleRate/10)
	for i := range samples {
		samples[i] = 0.25 * float32(math.Sin(2*math.Pi*float64(i)/100))
	}
	require.NoError(t, audio.EncodeFile(path, samples, sampleRate))
}

// writeDescriptorTarget stands in for a completed download in tests.
func writeDescriptorTarget(desc download.Descriptor) error {
	return os.WriteFile(desc.TargetPath, []byte("model bytes"), 0o644)
}

func writeSilentWAV(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "silence.wav")
	require.NoError(t, audio.EncodeFile(path, make([]float32, 16000), 16000))
	return path
}

func writeInstalledModel(t *testing.T, modelDir string, variant whisper.Variant) string {
	t.Helper()

	require.NoError(t, os.MkdirAll(modelDir, 0o755))
	path := filepath.Join(modelDir, variant.Filename())
	require.NoError(t, os.WriteFile(path, []byte("model bytes"), 0o644))
	return path
}

type scriptedEngine struct {
	segments []string
	runs     atomic.Int32
}

func (e *scriptedEngine) Run(context.Context, []float32, int) ([]string, error) {
	e.runs.Add(1)
	return e.segments, nil
}

func (e *scriptedEngine) Close() error { return nil }

func scriptedFactory(engine whisper.Engine) whisper.EngineFactory {
	return func(string, whisper.Variant) (whisper.Engine, error) {
		return engine, nil
	}
}
