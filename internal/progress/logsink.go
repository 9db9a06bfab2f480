package progress

import "go.uber.org/zap"

type logSink struct {
	logger *zap.Logger
}

// Logger returns a sink that emits every snapshot as a debug log entry.
func Logger(logger *zap.Logger) Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &logSink{logger: logger}
}

func (s *logSink) Download(p DownloadProgress) {
	s.logger.Debug("download progress",
		zap.String("operation", p.OperationID),
		zap.String("status", string(p.Status)),
		zap.Int64("bytes", p.BytesDownloaded),
		zap.Int64("total", p.TotalBytes),
		zap.Float64("percentage", p.Percentage),
	)
}

func (s *logSink) Transcription(p TranscriptionProgress) {
	s.logger.Debug("transcription progress",
		zap.String("operation", p.OperationID),
		zap.String("stage", string(p.Stage)),
		zap.Float64("progress", p.Progress),
	)
}
