package cli

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/hearsay-app/hearsay/internal/progress"
)

type stopFunc func()

// barSink renders download snapshots as a terminal progress bar.
// Transcription snapshots fall through to the logger; the transcribe
// command uses a spinner for its visual feedback instead.
type barSink struct {
	logger *zap.Logger
	bar    *progressbar.ProgressBar
}

func newBarSink(logger *zap.Logger) *barSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &barSink{logger: logger}
}

func (s *barSink) Download(p progress.DownloadProgress) {
	switch p.Status {
	case progress.StatusStarting:
		s.bar = progressbar.NewOptions64(
			p.TotalBytes,
			progressbar.OptionSetDescription("downloading"),
			progressbar.OptionSetWidth(20),
			progressbar.OptionShowBytes(true),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionClearOnFinish(),
		)
	case progress.StatusDownloading:
		if s.bar != nil {
			_ = s.bar.Set64(p.BytesDownloaded)
		}
	case progress.StatusValidating:
		if s.bar != nil {
			s.bar.Describe("validating")
		}
	case progress.StatusCompleted, progress.StatusFailed:
		if s.bar != nil {
			_ = s.bar.Finish()
			s.bar = nil
		}
	}
}

func (s *barSink) Transcription(p progress.TranscriptionProgress) {
	s.logger.Debug("transcription progress",
		zap.String("stage", string(p.Stage)),
		zap.Float64("progress", p.Progress),
	)
}

func startSpinner(enabled bool, description string) stopFunc {
	if !enabled {
		return func() {}
	}

	bar := progressbar.NewOptions(
		-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(80*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	stopCh := make(chan struct{})
	doneCh := make(chan struct{})

	go func() {
		defer close(doneCh)
		ticker := time.NewTicker(120 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-stopCh:
				_ = bar.Finish()
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stopCh)
			<-doneCh
		})
	}
}

func humanBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}

	div, exp := uint64(unit), 0
	for value := n / unit; value >= unit; value /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
