// Package download fetches model artifacts over HTTP with integrity
// guarantees: bytes are staged next to the target, verified against a
// pinned SHA-256, and installed with a single atomic rename. The target
// path is never observable in a partially written state.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hearsay-app/hearsay/internal/checksum"
	"github.com/hearsay-app/hearsay/internal/progress"
)

// StagingSuffix marks the in-transfer file written next to the target.
const StagingSuffix = ".part"

// RequestTimeout bounds the whole transfer including the response body.
const RequestTimeout = 300 * time.Second

const chunkSize = 32 * 1024

// Descriptor is the caller-supplied contract for one artifact download.
// ExpectedSHA256 is a lowercase hex 256-bit digest; TargetPath is the
// final installed location, never written during transfer.
type Descriptor struct {
	URL            string
	TargetPath     string
	ExpectedSize   int64
	ExpectedSHA256 string
}

func (d Descriptor) stagingPath() string {
	return d.TargetPath + StagingSuffix
}

// Fetcher downloads artifacts. The zero value is usable; it builds a
// client with RequestTimeout on first use.
type Fetcher struct {
	Client *http.Client
	Logger *zap.Logger
}

// Fetch acquires the artifact described by desc. Progress snapshots go to
// sink (nil allowed) and are strictly fire-and-forget. Any failure removes
// the staging file before returning; the target path is only ever replaced
// by a fully verified artifact.
func (f *Fetcher) Fetch(ctx context.Context, desc Descriptor, sink progress.Sink) error {
	if strings.TrimSpace(desc.URL) == "" {
		return errors.New("download URL is required")
	}
	if strings.TrimSpace(desc.TargetPath) == "" {
		return errors.New("target path is required")
	}

	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: RequestTimeout}
	}
	logger := f.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if sink == nil {
		sink = progress.Nop()
	}

	op := uuid.NewString()
	expected := strings.ToLower(strings.TrimSpace(desc.ExpectedSHA256))

	if err := os.MkdirAll(filepath.Dir(desc.TargetPath), 0o755); err != nil {
		return &DirError{Path: filepath.Dir(desc.TargetPath), Err: err}
	}

	sink.Download(progress.DownloadProgress{
		OperationID: op,
		TotalBytes:  desc.ExpectedSize,
		Status:      progress.StatusStarting,
	})

	downloaded, err := f.fetchOnce(ctx, client, logger, desc, expected, op, sink)
	if err != nil {
		sink.Download(progress.DownloadProgress{
			OperationID:     op,
			BytesDownloaded: downloaded,
			TotalBytes:      desc.ExpectedSize,
			Percentage:      percentOf(downloaded, desc.ExpectedSize),
			Status:          progress.StatusFailed,
		})
		return err
	}

	sink.Download(progress.DownloadProgress{
		OperationID:     op,
		BytesDownloaded: downloaded,
		TotalBytes:      desc.ExpectedSize,
		Percentage:      100,
		Status:          progress.StatusCompleted,
	})

	logger.Info("artifact installed",
		zap.String("path", desc.TargetPath),
		zap.Int64("bytes", downloaded),
	)
	return nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, client *http.Client, logger *zap.Logger, desc Descriptor, expected, op string, sink progress.Sink) (int64, error) {
	stagingPath := desc.stagingPath()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, desc.URL, nil)
	if err != nil {
		return 0, &TransportError{Err: err}
	}
	req.Header.Set("User-Agent", "hearsay/1")

	resp, err := client.Do(req)
	if err != nil {
		// A failed prior attempt may have left a stale staging file.
		_ = os.Remove(stagingPath)
		return 0, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return 0, &StatusError{Code: resp.StatusCode}
	}

	out, err := os.Create(stagingPath)
	if err != nil {
		return 0, &WriteError{Err: err}
	}

	installed := false
	defer func() {
		_ = out.Close()
		if !installed {
			_ = os.Remove(stagingPath)
		}
	}()

	var downloaded int64
	buf := make([]byte, chunkSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				return downloaded, &WriteError{Err: writeErr}
			}
			downloaded += int64(n)
			sink.Download(progress.DownloadProgress{
				OperationID:     op,
				BytesDownloaded: downloaded,
				TotalBytes:      desc.ExpectedSize,
				Percentage:      percentOf(downloaded, desc.ExpectedSize),
				Status:          progress.StatusDownloading,
			})
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return downloaded, &ReadError{Err: readErr}
		}
	}

	// Make the staged bytes durable before verifying them.
	if err := out.Sync(); err != nil {
		return downloaded, &WriteError{Err: err}
	}
	if err := out.Close(); err != nil {
		return downloaded, &WriteError{Err: err}
	}

	sink.Download(progress.DownloadProgress{
		OperationID:     op,
		BytesDownloaded: downloaded,
		TotalBytes:      desc.ExpectedSize,
		Percentage:      100,
		Status:          progress.StatusValidating,
	})

	logger.Debug("verifying staged artifact", zap.String("staging", stagingPath))
	if err := checksum.Verify(stagingPath, expected); err != nil {
		var mismatch *checksum.MismatchError
		if errors.As(err, &mismatch) {
			return downloaded, fmt.Errorf("verify staged artifact: %w", mismatch)
		}
		return downloaded, &ReadError{Err: err}
	}

	if err := os.Rename(stagingPath, desc.TargetPath); err != nil {
		return downloaded, &InstallError{Err: err}
	}

	installed = true
	return downloaded, nil
}

func percentOf(downloaded, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(downloaded) / float64(total) * 100
}
