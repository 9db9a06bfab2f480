package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hearsay-app/hearsay/internal/audio"
	"github.com/hearsay-app/hearsay/internal/whisper"
)

func newTranscribeCmd(app *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcribe <audio.wav>",
		Short: "Transcribe a 16 kHz WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			transcript, err := app.runTranscribe(cmd, args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), transcript)
			if isBlankTranscript(transcript) {
				app.log().Warn(noSpeechHint())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&app.silenceGate, "silence-gate", app.silenceGate, "Skip inference when the audio is effectively silent")
	cmd.Flags().Float64Var(&app.silenceDBFS, "silence-threshold", app.silenceDBFS, "RMS level in dBFS below which audio counts as silent")

	return cmd
}

func (a *appState) runTranscribe(cmd *cobra.Command, audioPath string) (string, error) {
	audioPath = filepath.Clean(audioPath)
	if _, err := os.Stat(audioPath); err != nil {
		return "", fmt.Errorf("audio file not found: %w", err)
	}

	clip, err := audio.DecodeFile(audioPath)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", audioPath, err)
	}
	if clip.SampleRate != 16000 {
		return "", fmt.Errorf("expected a 16 kHz WAV file, got %d Hz; resample the audio first", clip.SampleRate)
	}

	if a.silenceGate {
		if silent, metrics := audio.IsSilent(clip.Samples, a.silenceDBFS); silent {
			a.log().Info(
				"audio considered silent; skipping transcription",
				zap.String("audio", audioPath),
				zap.Float64("rms_dbfs", metrics.RMSdBFS),
				zap.Float64("peak_dbfs", metrics.PeakdBFS),
				zap.Float64("threshold_dbfs", a.silenceDBFS),
			)
			return blankAudioToken, nil
		}
	}

	variant, err := whisper.ParseVariant(a.model)
	if err != nil {
		return "", err
	}

	modelPath, err := a.ensureArtifact(cmd.Context(), variant, a.autoDownload)
	if err != nil {
		return "", err
	}

	session := whisper.NewSession(whisper.SessionOptions{
		Threads:   a.threads,
		Logger:    a.log(),
		NewEngine: a.sessionEngineFactory(),
	})
	defer session.Unload()

	if err := session.Load(modelPath, variant); err != nil {
		return "", err
	}

	a.log().Info("transcribing...",
		zap.String("audio", audioPath),
		zap.String("model", modelPath),
		zap.String("language", a.language),
	)
	stopSpinner := startSpinner(a.progressEnabled(), "Transcribing")
	started := time.Now()

	transcript, err := session.Transcribe(cmd.Context(), clip.Samples, newBarSink(a.log()))
	stopSpinner()
	if err != nil {
		a.log().Warn("transcription failed", zap.Duration("elapsed", time.Since(started)), zap.Error(err))
		return "", err
	}
	a.log().Info("transcription finished", zap.Duration("elapsed", time.Since(started)))

	return transcript, nil
}

func (a *appState) sessionEngineFactory() whisper.EngineFactory {
	if a.engineFactory != nil {
		return a.engineFactory
	}

	return func(modelPath string, _ whisper.Variant) (whisper.Engine, error) {
		engine, err := whisper.NewCLIEngine(modelPath, a.log())
		if err != nil {
			return nil, err
		}
		engine.Language = a.language
		return engine, nil
	}
}
