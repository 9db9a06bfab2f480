package whisper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hearsay-app/hearsay/internal/audio"
)

const engineSampleRate = 16000

// CLIEngine runs inference through a whisper-cli binary shipped next to
// the hearsay executable. Samples are spooled to a temporary WAV because
// the binary only consumes files.
type CLIEngine struct {
	Executable string
	ModelPath  string
	Language   string
	Logger     *zap.Logger
}

// NewCLIEngine resolves the whisper-cli binary and binds it to modelPath.
// HEARSAY_WHISPER_PATH overrides binary discovery.
func NewCLIEngine(modelPath string, logger *zap.Logger) (*CLIEngine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if override := strings.TrimSpace(os.Getenv("HEARSAY_WHISPER_PATH")); override != "" {
		if err := ensureExecutable(override); err != nil {
			return nil, fmt.Errorf("HEARSAY_WHISPER_PATH is not executable: %w", err)
		}
		return &CLIEngine{Executable: override, ModelPath: modelPath, Logger: logger}, nil
	}

	hearsayExe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve hearsay executable path: %w", err)
	}

	whisperExe, err := resolveEnginePath(hearsayExe)
	if err != nil {
		return nil, err
	}

	return &CLIEngine{Executable: whisperExe, ModelPath: modelPath, Logger: logger}, nil
}

func resolveEnginePath(hearsayExecutable string) (string, error) {
	for _, candidate := range enginePathCandidates(hearsayExecutable) {
		if err := ensureExecutable(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("whisper-cli binary not found near %s; install whisper.cpp or set HEARSAY_WHISPER_PATH", hearsayExecutable)
}

func enginePathCandidates(hearsayExecutable string) []string {
	binDir := filepath.Dir(hearsayExecutable)
	engineName := engineBinaryName()

	return []string{
		filepath.Join(binDir, "..", "libexec", "whisper", engineName),
		filepath.Join(binDir, "libexec", "whisper", engineName),
		filepath.Join(binDir, engineName),
	}
}

// Run encodes samples into a temp WAV, invokes whisper-cli, and returns
// the transcript split into line segments.
func (e *CLIEngine) Run(ctx context.Context, samples []float32, threads int) ([]string, error) {
	if len(samples) == 0 {
		return nil, errors.New("audio samples are required")
	}
	if strings.TrimSpace(e.ModelPath) == "" {
		return nil, errors.New("model path is required")
	}
	if err := ensureExecutable(e.Executable); err != nil {
		return nil, fmt.Errorf("whisper-cli missing or not executable: %w", err)
	}

	outBase := filepath.Join(os.TempDir(), fmt.Sprintf("hearsay-%d", time.Now().UnixNano()))
	wavPath := outBase + ".wav"
	txtPath := outBase + ".txt"

	if err := audio.EncodeFile(wavPath, samples, engineSampleRate); err != nil {
		return nil, fmt.Errorf("spool samples to wav: %w", err)
	}
	defer os.Remove(wavPath)

	args := []string{"-m", e.ModelPath, "-f", wavPath, "-nt", "-otxt", "-of", outBase}
	if threads > 0 {
		args = append(args, "-t", fmt.Sprintf("%d", threads))
	}
	lang := strings.TrimSpace(e.Language)
	if lang != "" && lang != "auto" {
		args = append(args, "-l", lang)
	}

	cmd := exec.CommandContext(ctx, e.Executable, args...)
	var stderr bytes.Buffer
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr

	e.log().Debug("running whisper-cli", zap.String("engine", e.Executable), zap.Strings("args", args))
	if err := cmd.Run(); err != nil {
		errText := strings.TrimSpace(stderr.String())
		if isMissingSharedLibraryError(errText) {
			return nil, fmt.Errorf("whisper-cli at %s is missing required shared libraries (%s); rebuild with BUILD_SHARED_LIBS=OFF or fix the library path", e.Executable, errText)
		}
		if isIllegalInstructionError(errText) || isIllegalInstructionError(err.Error()) {
			return nil, fmt.Errorf("whisper-cli crashed with an illegal CPU instruction; " +
				"set HEARSAY_WHISPER_PATH to a binary built for your CPU")
		}
		return nil, fmt.Errorf("whisper-cli failed: %w (%s)", err, errText)
	}

	defer os.Remove(txtPath)
	content, err := os.ReadFile(txtPath)
	if err != nil {
		return nil, fmt.Errorf("read whisper-cli output: %w", err)
	}

	return splitSegments(string(content)), nil
}

// Close releases nothing for the CLI engine; the binary holds no state
// between invocations.
func (e *CLIEngine) Close() error {
	return nil
}

func (e *CLIEngine) log() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

func splitSegments(content string) []string {
	lines := strings.Split(content, "\n")
	segments := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			segments = append(segments, trimmed)
		}
	}
	return segments
}

func engineBinaryName() string {
	if runtime.GOOS == "windows" {
		return "whisper-cli.exe"
	}
	return "whisper-cli"
}

func ensureExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if runtime.GOOS != "windows" && info.Mode()&0o111 == 0 {
		return fmt.Errorf("%s is not executable", path)
	}
	return nil
}

func isMissingSharedLibraryError(stderr string) bool {
	value := strings.ToLower(strings.TrimSpace(stderr))
	if value == "" {
		return false
	}

	patterns := []string{
		"error while loading shared libraries",
		"cannot open shared object file",
		"dyld: library not loaded",
		"image not found",
	}

	for _, pattern := range patterns {
		if strings.Contains(value, pattern) {
			return true
		}
	}

	return false
}

func isIllegalInstructionError(stderr string) bool {
	return strings.Contains(strings.ToLower(stderr), "illegal instruction")
}
