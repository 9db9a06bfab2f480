// Package progress defines the snapshot types and delivery contract for
// download and transcription progress. Delivery is best-effort: emitters
// never block on, retry, or fail because of a sink.
package progress

// DownloadStatus labels one stage of a model download.
type DownloadStatus string

const (
	StatusStarting    DownloadStatus = "starting"
	StatusDownloading DownloadStatus = "downloading"
	StatusValidating  DownloadStatus = "validating"
	StatusCompleted   DownloadStatus = "completed"
	StatusFailed      DownloadStatus = "failed"
)

// DownloadProgress is one ephemeral snapshot of a running download.
type DownloadProgress struct {
	OperationID     string         `json:"operationId"`
	BytesDownloaded int64          `json:"bytesDownloaded"`
	TotalBytes      int64          `json:"totalBytes"`
	Percentage      float64        `json:"percentage"`
	Status          DownloadStatus `json:"status"`
}

// TranscriptionStage labels one stage of a transcription call. Stages are
// emitted in a fixed order: loading_model, processing_audio, finalizing,
// complete.
type TranscriptionStage string

const (
	StageLoadingModel    TranscriptionStage = "loading_model"
	StageProcessingAudio TranscriptionStage = "processing_audio"
	StageFinalizing      TranscriptionStage = "finalizing"
	StageComplete        TranscriptionStage = "complete"
)

// TranscriptionProgress is one ephemeral snapshot of a transcription call.
// Progress is in [0, 1].
type TranscriptionProgress struct {
	OperationID string             `json:"operationId"`
	Stage       TranscriptionStage `json:"stage"`
	Progress    float64            `json:"progress"`
}

// Sink receives progress snapshots. Implementations must return quickly
// and must not panic; emitters treat delivery as fire-and-forget.
type Sink interface {
	Download(DownloadProgress)
	Transcription(TranscriptionProgress)
}

type nopSink struct{}

func (nopSink) Download(DownloadProgress)           {}
func (nopSink) Transcription(TranscriptionProgress) {}

// Nop returns a sink that discards everything.
func Nop() Sink {
	return nopSink{}
}

type multiSink []Sink

func (m multiSink) Download(p DownloadProgress) {
	for _, s := range m {
		s.Download(p)
	}
}

func (m multiSink) Transcription(p TranscriptionProgress) {
	for _, s := range m {
		s.Transcription(p)
	}
}

// Multi fans each snapshot out to every sink in order. Nil sinks are
// skipped.
func Multi(sinks ...Sink) Sink {
	out := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Funcs adapts plain functions to a Sink. Nil fields discard.
type Funcs struct {
	OnDownload      func(DownloadProgress)
	OnTranscription func(TranscriptionProgress)
}

func (f Funcs) Download(p DownloadProgress) {
	if f.OnDownload != nil {
		f.OnDownload(p)
	}
}

func (f Funcs) Transcription(p TranscriptionProgress) {
	if f.OnTranscription != nil {
		f.OnTranscription(p)
	}
}
