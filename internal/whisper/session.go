package whisper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hearsay-app/hearsay/internal/progress"
)

var (
	// ErrNotLoaded is returned by Transcribe when no model is loaded.
	ErrNotLoaded = errors.New("no model loaded")

	// ErrModelNotFound is returned by Load when the model file is absent.
	ErrModelNotFound = errors.New("model file not found")
)

// Session owns at most one loaded engine instance. Every operation holds
// the one mutex for its full critical section, so load, unload, status,
// and transcribe are mutually exclusive: inference never runs against a
// half-swapped model.
type Session struct {
	mu        sync.Mutex
	engine    Engine
	variant   Variant
	threads   int
	logger    *zap.Logger
	newEngine EngineFactory
}

// SessionOptions configures a Session. Zero values pick sane defaults:
// NumCPU threads and the whisper-cli engine factory.
type SessionOptions struct {
	Threads   int
	Logger    *zap.Logger
	NewEngine EngineFactory
}

// NewSession creates an empty session; nothing is loaded until Load.
func NewSession(opts SessionOptions) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	threads := opts.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	factory := opts.NewEngine
	if factory == nil {
		factory = func(modelPath string, _ Variant) (Engine, error) {
			return NewCLIEngine(modelPath, logger)
		}
	}

	return &Session{
		threads:   threads,
		logger:    logger,
		newEngine: factory,
	}
}

// Load constructs a new engine bound to path and variant, then swaps it
// in, releasing any previously held engine. The swap happens only on
// success: a failed load leaves the prior engine authoritative.
func (s *Session) Load(path string, variant Variant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrModelNotFound, path)
		}
		return fmt.Errorf("stat model path: %w", err)
	}

	engine, err := s.newEngine(path, variant)
	if err != nil {
		return fmt.Errorf("load model %s: %w", variant, err)
	}

	if s.engine != nil {
		if closeErr := s.engine.Close(); closeErr != nil {
			s.logger.Warn("release previous engine", zap.String("variant", string(s.variant)), zap.Error(closeErr))
		}
	}

	s.engine = engine
	s.variant = variant
	s.logger.Info("model loaded", zap.String("variant", string(variant)), zap.String("path", path))
	return nil
}

// Unload releases the held engine if any. Unloading an empty session is a
// no-op; Unload never fails.
func (s *Session) Unload() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine == nil {
		return
	}

	if err := s.engine.Close(); err != nil {
		s.logger.Warn("release engine", zap.String("variant", string(s.variant)), zap.Error(err))
	}

	s.engine = nil
	s.variant = ""
	s.logger.Info("model unloaded")
}

// Status returns the variant of the loaded model, if any.
func (s *Session) Status() (Variant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine == nil {
		return "", false
	}
	return s.variant, true
}

// Transcribe runs the held engine over samples and returns the produced
// segments joined with single spaces, trimmed. Four ordered stage
// snapshots surround the delegation; none are emitted when nothing is
// loaded.
func (s *Session) Transcribe(ctx context.Context, samples []float32, sink progress.Sink) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine == nil {
		return "", ErrNotLoaded
	}

	if sink == nil {
		sink = progress.Nop()
	}
	op := uuid.NewString()

	sink.Transcription(progress.TranscriptionProgress{
		OperationID: op,
		Stage:       progress.StageLoadingModel,
		Progress:    0,
	})

	threads := s.threads

	sink.Transcription(progress.TranscriptionProgress{
		OperationID: op,
		Stage:       progress.StageProcessingAudio,
		Progress:    0.33,
	})

	segments, err := s.engine.Run(ctx, samples, threads)
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}

	sink.Transcription(progress.TranscriptionProgress{
		OperationID: op,
		Stage:       progress.StageFinalizing,
		Progress:    0.66,
	})

	result := strings.TrimSpace(strings.Join(segments, " "))

	sink.Transcription(progress.TranscriptionProgress{
		OperationID: op,
		Stage:       progress.StageComplete,
		Progress:    1,
	})

	return result, nil
}
