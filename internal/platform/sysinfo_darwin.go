//go:build darwin

package platform

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Memory reports total physical memory via sysctl. Darwin has no cheap
// equivalent of MemAvailable, so only the total is filled in.
func Memory() (MemoryStats, error) {
	total, err := unix.SysctlUint64("hw.memsize")
	if err != nil {
		return MemoryStats{}, fmt.Errorf("sysctl hw.memsize: %w", err)
	}

	return MemoryStats{TotalBytes: total}, nil
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
