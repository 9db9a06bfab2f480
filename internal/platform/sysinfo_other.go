//go:build !linux && !darwin

package platform

// Memory is unimplemented on this platform.
func Memory() (MemoryStats, error) {
	return MemoryStats{}, ErrUnsupported
}

// DiskFree is unimplemented on this platform.
func DiskFree(string) (uint64, error) {
	return 0, ErrUnsupported
}
