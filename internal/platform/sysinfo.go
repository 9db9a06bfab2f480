package platform

import "errors"

// ErrUnsupported is returned by the statistics capability on platforms
// without an implementation.
var ErrUnsupported = errors.New("host statistics not supported on this platform")

// MemoryStats reports system memory in bytes. Fields other than
// TotalBytes may be zero on platforms that cannot report them.
type MemoryStats struct {
	TotalBytes     uint64
	AvailableBytes uint64
	UsedBytes      uint64
	FreeBytes      uint64
}
