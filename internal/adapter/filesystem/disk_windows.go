//go:build windows
// +build windows

package filesystem

import (
	"fmt"

	"golang.org/x/sys/windows"

	"github.com/deckhaven/collection-keeper/internal/port"
)

// DiskUsage returns usage statistics for the filesystem containing path
func (m *Manager) DiskUsage(path string) (*port.DiskUsage, error) {
	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, fmt.Errorf("failed to convert path %s: %w", path, err)
	}

	var freeBytesAvailable, totalBytes, totalFreeBytes uint64
	if err := windows.GetDiskFreeSpaceEx(pathPtr, &freeBytesAvailable, &totalBytes, &totalFreeBytes); err != nil {
		return nil, fmt.Errorf("failed to get disk stats for %s: %w", path, err)
	}

	used := totalBytes - totalFreeBytes

	usedPct := 0.0
	if totalBytes > 0 {
		usedPct = float64(used) / float64(totalBytes) * 100
	}

	return &port.DiskUsage{
		Total:   totalBytes,
		Used:    used,
		Free:    freeBytesAvailable,
		UsedPct: usedPct,
	}, nil
}
