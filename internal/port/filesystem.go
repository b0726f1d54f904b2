package port

import "time"

// DiskUsage represents disk usage statistics
type DiskUsage struct {
	Total   uint64  // Total disk space in bytes
	Used    uint64  // Used disk space in bytes
	Free    uint64  // Free disk space in bytes
	UsedPct float64 // Used percentage (0-100)
}

// FileInfo describes a single file in a directory listing
type FileInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// FileSystem defines the interface for local filesystem operations
type FileSystem interface {
	// FileSize returns the size in bytes of the file at path
	FileSize(path string) (int64, error)

	// FileExists checks if a file exists at path
	FileExists(path string) bool

	// IsWritable reports whether the file or directory at path can be
	// written to
	IsWritable(path string) bool

	// InitDir creates the collection base directory if needed, verifies
	// write access, and drops the media-scanner exclusion marker
	InitDir(dir string) error

	// DiskUsage returns usage statistics for the filesystem containing path
	DiskUsage(path string) (*DiskUsage, error)

	// CopyFile copies src to dst, replacing dst if it exists
	// Returns the number of bytes copied
	CopyFile(src, dst string) (int64, error)

	// RemoveFile removes the file at path
	RemoveFile(path string) error

	// ListFiles returns the regular files directly under dir
	ListFiles(dir string) ([]FileInfo, error)
}
