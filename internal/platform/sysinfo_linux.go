//go:build linux

package platform

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Memory reads system memory statistics via sysinfo(2).
func Memory() (MemoryStats, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return MemoryStats{}, fmt.Errorf("sysinfo: %w", err)
	}

	unit := uint64(info.Unit)
	if unit == 0 {
		unit = 1
	}

	total := uint64(info.Totalram) * unit
	free := uint64(info.Freeram) * unit
	buffers := uint64(info.Bufferram) * unit

	return MemoryStats{
		TotalBytes:     total,
		AvailableBytes: free + buffers,
		UsedBytes:      total - free,
		FreeBytes:      free,
	}, nil
}

// DiskFree returns the bytes available to unprivileged users on the
// filesystem containing path.
func DiskFree(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}

	return stat.Bavail * uint64(stat.Bsize), nil
}
