package download

import "fmt"

// The pipeline reports failures as a closed set of typed errors so callers
// can branch on kind instead of parsing messages. Each failure kind maps to
// one stage of the transfer.

// DirError reports a failure to create the artifact's parent directory.
type DirError struct {
	Path string
	Err  error
}

func (e *DirError) Error() string {
	return fmt.Sprintf("create artifact directory %s: %v", e.Path, e.Err)
}

func (e *DirError) Unwrap() error { return e.Err }

// TransportError reports a transport-level failure before any response
// arrived: DNS, connect, TLS, or the request timeout.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("download request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError reports a non-success HTTP status from the remote.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote returned HTTP status %d", e.Code)
}

// ReadError reports an interrupted response body mid-stream.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("transfer interrupted: %v", e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// WriteError reports a failure to stage downloaded bytes on disk.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write staged artifact: %v", e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// InstallError reports a failure to move the verified staging file into
// its final location.
type InstallError struct {
	Err error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("install verified artifact: %v", e.Err)
}

func (e *InstallError) Unwrap() error { return e.Err }
