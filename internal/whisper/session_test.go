package whisper

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hearsay-app/hearsay/internal/progress"
)

type fakeEngine struct {
	segments []string
	runErr   error
	runDelay time.Duration
	closed   atomic.Bool
	active   atomic.Int32
	maxSeen  atomic.Int32
}

func (f *fakeEngine) Run(_ context.Context, _ []float32, _ int) ([]string, error) {
	current := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if current <= seen || f.maxSeen.CompareAndSwap(seen, current) {
			break
		}
	}
	if f.runDelay > 0 {
		time.Sleep(f.runDelay)
	}
	if f.runErr != nil {
		return nil, f.runErr
	}
	return f.segments, nil
}

func (f *fakeEngine) Close() error {
	f.closed.Store(true)
	return nil
}

func writeModelFile(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ggml-tiny.bin")
	require.NoError(t, os.WriteFile(path, []byte("model bytes"), 0o644))
	return path
}

func sessionWith(t *testing.T, engine Engine, factoryErr error) *Session {
	t.Helper()

	return NewSession(SessionOptions{
		Threads: 2,
		NewEngine: func(string, Variant) (Engine, error) {
			if factoryErr != nil {
				return nil, factoryErr
			}
			return engine, nil
		},
	})
}

func TestStatusEmptyAtStart(t *testing.T) {
	t.Parallel()

	session := NewSession(SessionOptions{})
	_, loaded := session.Status()
	require.False(t, loaded)
}

func TestLoadMissingPathLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	session := sessionWith(t, &fakeEngine{}, nil)
	err := session.Load(filepath.Join(t.TempDir(), "missing.bin"), VariantTiny)
	require.ErrorIs(t, err, ErrModelNotFound)

	_, loaded := session.Status()
	require.False(t, loaded)
}

func TestLoadSetsStatus(t *testing.T) {
	t.Parallel()

	session := sessionWith(t, &fakeEngine{}, nil)
	require.NoError(t, session.Load(writeModelFile(t), VariantTiny))

	variant, loaded := session.Status()
	require.True(t, loaded)
	require.Equal(t, VariantTiny, variant)
}

func TestLoadReplacesAndReleasesPreviousEngine(t *testing.T) {
	t.Parallel()

	first := &fakeEngine{}
	second := &fakeEngine{}
	engines := []Engine{first, second}
	var calls int

	session := NewSession(SessionOptions{
		NewEngine: func(string, Variant) (Engine, error) {
			engine := engines[calls]
			calls++
			return engine, nil
		},
	})

	path := writeModelFile(t)
	require.NoError(t, session.Load(path, VariantTiny))
	require.NoError(t, session.Load(path, VariantBase))

	require.True(t, first.closed.Load())
	require.False(t, second.closed.Load())

	variant, loaded := session.Status()
	require.True(t, loaded)
	require.Equal(t, VariantBase, variant)
}

func TestFailedLoadKeepsPriorEngineAuthoritative(t *testing.T) {
	t.Parallel()

	healthy := &fakeEngine{segments: []string{"still here"}}
	var fail bool

	session := NewSession(SessionOptions{
		NewEngine: func(string, Variant) (Engine, error) {
			if fail {
				return nil, errors.New("construction blew up")
			}
			return healthy, nil
		},
	})

	path := writeModelFile(t)
	require.NoError(t, session.Load(path, VariantSmall))

	fail = true
	err := session.Load(path, VariantMedium)
	require.Error(t, err)
	require.False(t, healthy.closed.Load())

	variant, loaded := session.Status()
	require.True(t, loaded)
	require.Equal(t, VariantSmall, variant)

	result, err := session.Transcribe(context.Background(), []float32{0}, nil)
	require.NoError(t, err)
	require.Equal(t, "still here", result)
}

func TestUnloadIsIdempotent(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{}
	session := sessionWith(t, engine, nil)
	require.NoError(t, session.Load(writeModelFile(t), VariantTiny))

	session.Unload()
	require.True(t, engine.closed.Load())
	_, loaded := session.Status()
	require.False(t, loaded)

	session.Unload()
	_, loaded = session.Status()
	require.False(t, loaded)
}

func TestTranscribeWithoutLoadEmitsNothing(t *testing.T) {
	t.Parallel()

	session := NewSession(SessionOptions{})
	bus := progress.NewBus(0)

	_, err := session.Transcribe(context.Background(), []float32{0, 0}, bus)
	require.ErrorIs(t, err, ErrNotLoaded)
	require.Empty(t, bus.Since(0))
}

func TestTranscribeJoinsSegmentsWithSingleSpaces(t *testing.T) {
	t.Parallel()

	session := sessionWith(t, &fakeEngine{segments: []string{"hello", "wide", "world"}}, nil)
	require.NoError(t, session.Load(writeModelFile(t), VariantSmall))

	result, err := session.Transcribe(context.Background(), []float32{0}, nil)
	require.NoError(t, err)
	require.Equal(t, "hello wide world", result)
}

func TestTranscribeSilenceReturnsEmptyString(t *testing.T) {
	t.Parallel()

	session := sessionWith(t, &fakeEngine{}, nil)
	require.NoError(t, session.Load(writeModelFile(t), VariantSmall))

	result, err := session.Transcribe(context.Background(), make([]float32, 16000), nil)
	require.NoError(t, err)
	require.Empty(t, result)
}

func TestTranscribeEmitsOrderedStages(t *testing.T) {
	t.Parallel()

	session := sessionWith(t, &fakeEngine{segments: []string{"ok"}}, nil)
	require.NoError(t, session.Load(writeModelFile(t), VariantSmall))

	bus := progress.NewBus(0)
	_, err := session.Transcribe(context.Background(), []float32{0}, bus)
	require.NoError(t, err)

	events := bus.Since(0)
	require.Len(t, events, 4)

	wantStages := []progress.TranscriptionStage{
		progress.StageLoadingModel,
		progress.StageProcessingAudio,
		progress.StageFinalizing,
		progress.StageComplete,
	}
	wantProgress := []float64{0, 0.33, 0.66, 1}

	for i, event := range events {
		require.Equal(t, progress.KindTranscription, event.Kind)
		require.Equal(t, wantStages[i], event.Transcription.Stage)
		require.InDelta(t, wantProgress[i], event.Transcription.Progress, 1e-9)
		require.Equal(t, events[0].Transcription.OperationID, event.Transcription.OperationID)
	}
}

func TestTranscribeEngineFailureStopsStageStream(t *testing.T) {
	t.Parallel()

	session := sessionWith(t, &fakeEngine{runErr: errors.New("inference exploded")}, nil)
	require.NoError(t, session.Load(writeModelFile(t), VariantSmall))

	bus := progress.NewBus(0)
	_, err := session.Transcribe(context.Background(), []float32{0}, bus)
	require.Error(t, err)

	events := bus.Since(0)
	require.Len(t, events, 2)
	require.Equal(t, progress.StageLoadingModel, events[0].Transcription.Stage)
	require.Equal(t, progress.StageProcessingAudio, events[1].Transcription.Stage)
}

func TestOperationsAreMutuallyExclusive(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{segments: []string{"x"}, runDelay: 5 * time.Millisecond}
	session := sessionWith(t, engine, nil)
	require.NoError(t, session.Load(writeModelFile(t), VariantSmall))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := session.Transcribe(context.Background(), []float32{0}, nil)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), engine.maxSeen.Load())
}
