package filesystem

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/deckhaven/collection-keeper/internal/domain"
	"github.com/deckhaven/collection-keeper/internal/port"
)

// nomediaMarker excludes the collection directory (and its media subtree)
// from media scanners.
const nomediaMarker = ".nomedia"

// Manager handles local filesystem operations
type Manager struct{}

// Ensure Manager implements port.FileSystem
var _ port.FileSystem = (*Manager)(nil)

// NewManager creates a new filesystem manager
func NewManager() *Manager {
	return &Manager{}
}

// FileSize returns the size in bytes of the file at path
func (m *Manager) FileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%s is a directory", path)
	}
	return info.Size(), nil
}

// FileExists checks if a file exists at path
func (m *Manager) FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsWritable reports whether the file or directory at path can be written to
func (m *Manager) IsWritable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	if info.IsDir() {
		probe, err := os.CreateTemp(path, ".writeprobe-*")
		if err != nil {
			return false
		}
		name := probe.Name()
		probe.Close()
		os.Remove(name)
		return true
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

// InitDir creates the collection base directory if it doesn't exist,
// verifies write access, and adds the media-scanner exclusion marker if
// needed. The marker works at the directory level, so it also covers the
// media subtree.
func (m *Manager) InitDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.NewStorageAccessError(dir, fmt.Errorf("failed to create collection directory: %w", err))
	}
	if !m.IsWritable(dir) {
		return domain.NewStorageAccessError(dir, errors.New("no write access to collection directory"))
	}

	marker := filepath.Join(dir, nomediaMarker)
	if _, err := os.Stat(marker); errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(marker, nil, 0o644); err != nil {
			return domain.NewStorageAccessError(marker, fmt.Errorf("failed to create marker file: %w", err))
		}
	}
	return nil
}

// CopyFile copies src to dst, replacing dst if it exists. The copy goes
// through a temporary file and a rename so a partial copy never lands at
// dst.
func (m *Manager) CopyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	tmpPath := dst + ".partial"
	out, err := os.Create(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", tmpPath, err)
	}

	written, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to copy to %s: %w", tmpPath, err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to sync %s: %w", tmpPath, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to close %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to rename to %s: %w", dst, err)
	}
	return written, nil
}

// RemoveFile removes the file at path
func (m *Manager) RemoveFile(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

// ListFiles returns the regular files directly under dir
func (m *Manager) ListFiles(dir string) ([]port.FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read dir %s: %w", dir, err)
	}

	files := make([]port.FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, port.FileInfo{
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return files, nil
}
