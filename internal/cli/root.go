package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/hearsay-app/hearsay/internal/checksum"
	"github.com/hearsay-app/hearsay/internal/config"
	"github.com/hearsay-app/hearsay/internal/download"
	"github.com/hearsay-app/hearsay/internal/logging"
	"github.com/hearsay-app/hearsay/internal/platform"
	"github.com/hearsay-app/hearsay/internal/progress"
	"github.com/hearsay-app/hearsay/internal/version"
	"github.com/hearsay-app/hearsay/internal/whisper"
)

type appState struct {
	verbose    bool
	quiet      bool
	jsonLogs   bool
	noProgress bool

	model        string
	modelDir     string
	language     string
	threads      int
	autoDownload bool
	configPath   string

	silenceGate bool
	silenceDBFS float64

	logger *zap.Logger

	fetchFn       func(ctx context.Context, desc download.Descriptor, sink progress.Sink) error
	engineFactory whisper.EngineFactory
}

func NewRootCmd() *cobra.Command {
	app := &appState{
		model:        string(whisper.DefaultVariant),
		language:     "auto",
		autoDownload: true,
		silenceGate:  true,
		silenceDBFS:  -65,
	}

	cmd := &cobra.Command{
		Use:           "hearsay",
		Short:         "Manage and run local speech-to-text models",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Resolve(),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	pf := cmd.PersistentFlags()
	pf.BoolVar(&app.verbose, "verbose", app.verbose, "Enable verbose logs")
	pf.BoolVar(&app.quiet, "quiet", app.quiet, "Only log warnings and errors")
	pf.BoolVar(&app.jsonLogs, "json", app.jsonLogs, "Enable JSON logging")
	pf.BoolVar(&app.noProgress, "no-progress", app.noProgress, "Disable progress indicators")
	pf.StringVar(&app.model, "model", app.model, "Model variant: "+strings.Join(whisper.VariantNames(), "|"))
	pf.StringVar(&app.modelDir, "model-dir", app.modelDir, "Directory where models are stored")
	pf.StringVar(&app.language, "language", app.language, "Language code (auto|en|de|...) for transcription")
	pf.IntVar(&app.threads, "threads", app.threads, "Inference threads; 0 means one per CPU")
	pf.BoolVar(&app.autoDownload, "auto-download", app.autoDownload, "Automatically download missing models")
	pf.StringVar(&app.configPath, "config", app.configPath, "Settings file path")

	cmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		logger, err := logging.New(logging.Options{Verbose: app.verbose, Quiet: app.quiet, JSON: app.jsonLogs})
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		app.logger = logger
		app.applySettings(pf.Changed)
		app.language = sanitizeLanguage(app.language)
		return nil
	}

	cmd.AddCommand(newModelsCmd(app))
	cmd.AddCommand(newTranscribeCmd(app))
	cmd.AddCommand(newInfoCmd(app))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// applySettings layers the settings file under any flags the user did not
// set explicitly. A missing or unreadable file never fails startup.
func (a *appState) applySettings(changed func(string) bool) {
	path := a.configPath
	if path == "" {
		resolved, err := platform.ResolveConfigPath()
		if err != nil {
			a.log().Debug("settings file location unavailable", zap.Error(err))
			return
		}
		path = resolved
	}

	cfg, err := config.NewStore(path).Load()
	if err != nil {
		a.log().Warn("ignoring unreadable settings file", zap.String("path", path), zap.Error(err))
		return
	}

	if !changed("model") && cfg.Model != "" {
		a.model = cfg.Model
	}
	if !changed("model-dir") && cfg.ModelDir != "" {
		a.modelDir = cfg.ModelDir
	}
	if !changed("language") && cfg.Language != "" {
		a.language = cfg.Language
	}
	if !changed("threads") && cfg.Threads > 0 {
		a.threads = cfg.Threads
	}
}

func (a *appState) modelStorageDir() (string, error) {
	dir, err := platform.ResolveModelDir(a.modelDir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create model directory %s: %w", dir, err)
	}
	return dir, nil
}

// ensureArtifact guarantees the variant's artifact is installed and
// returns its path. With download disabled a missing artifact is an error
// pointing at `models fetch`.
func (a *appState) ensureArtifact(ctx context.Context, variant whisper.Variant, allowDownload bool) (string, error) {
	modelDir, err := a.modelStorageDir()
	if err != nil {
		return "", err
	}

	artifact, ok := whisper.Lookup(variant)
	if !ok {
		return "", fmt.Errorf("variant %s is not in the model catalog", variant)
	}

	path := artifact.InstallPath(modelDir)
	if _, statErr := os.Stat(path); statErr == nil {
		return path, nil
	} else if !errors.Is(statErr, os.ErrNotExist) {
		return "", fmt.Errorf("stat model path: %w", statErr)
	}

	if !allowDownload {
		return "", fmt.Errorf("model %q is missing at %s; run `hearsay models fetch %s` or use --auto-download=true", variant, path, variant)
	}

	if err := a.fetchArtifact(ctx, artifact, modelDir); err != nil {
		return "", err
	}
	return path, nil
}

// fetchArtifact downloads the artifact into modelDir, logging a warning
// when the destination volume looks too small. The space check never
// blocks the download.
func (a *appState) fetchArtifact(ctx context.Context, artifact whisper.Artifact, modelDir string) error {
	if free, err := platform.DiskFree(modelDir); err == nil && free < uint64(artifact.SizeBytes) {
		a.log().Warn("destination volume may be too small for model",
			zap.String("model", string(artifact.Variant)),
			zap.String("free", humanBytes(free)),
			zap.String("needed", humanBytes(uint64(artifact.SizeBytes))),
		)
	}

	a.log().Info("downloading model",
		zap.String("model", string(artifact.Variant)),
		zap.String("url", artifact.URL),
		zap.String("destination", artifact.InstallPath(modelDir)),
	)

	bus := progress.NewBus(0)
	if err := a.fetch(ctx, artifact.Descriptor(modelDir), progress.Multi(bus, a.downloadSink())); err != nil {
		return fmt.Errorf("download model %s: %w", artifact.Variant, err)
	}

	if events := bus.Since(0); len(events) > 0 {
		last := events[len(events)-1].Download
		a.log().Info("model installed",
			zap.String("model", string(artifact.Variant)),
			zap.String("size", humanBytes(uint64(last.BytesDownloaded))),
			zap.Int("progress_events", len(events)),
		)
	}
	return nil
}

func (a *appState) fetch(ctx context.Context, desc download.Descriptor, sink progress.Sink) error {
	if a.fetchFn != nil {
		return a.fetchFn(ctx, desc, sink)
	}

	fetcher := &download.Fetcher{Logger: a.log()}
	return fetcher.Fetch(ctx, desc, sink)
}

// verifyInstalled checks an installed artifact against its pinned digest.
func (a *appState) verifyInstalled(path, expected string) error {
	if err := checksum.Verify(path, expected); err != nil {
		var mismatch *checksum.MismatchError
		if errors.As(err, &mismatch) {
			return fmt.Errorf("artifact at %s is corrupted: %w", path, mismatch)
		}
		return err
	}
	return nil
}

func (a *appState) log() *zap.Logger {
	if a.logger == nil {
		return zap.NewNop()
	}
	return a.logger
}

func (a *appState) progressEnabled() bool {
	if a.noProgress {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}

func (a *appState) downloadSink() progress.Sink {
	if a.progressEnabled() {
		return newBarSink(a.log())
	}
	return progress.Logger(a.log())
}

func sanitizeLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return "auto"
	}
	return lang
}
