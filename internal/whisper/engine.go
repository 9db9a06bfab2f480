package whisper

import "context"

// Engine is the opaque inference capability: given raw 16 kHz mono PCM
// samples it produces text segments. Implementations are constructed bound
// to one model file and released with Close.
type Engine interface {
	Run(ctx context.Context, samples []float32, threads int) ([]string, error)
	Close() error
}

// EngineFactory constructs an Engine for a model file. The session calls
// it under its lock during Load.
type EngineFactory func(modelPath string, variant Variant) (Engine, error)
