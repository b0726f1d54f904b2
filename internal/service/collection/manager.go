// Package collection owns the open/close lifecycle of the collection
// database: path resolution, the explicit lock token that blocks spurious
// re-opens, and the classification of open failures for startup reporting.
package collection

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/deckhaven/collection-keeper/internal/domain"
	"github.com/deckhaven/collection-keeper/internal/port"
	"github.com/deckhaven/collection-keeper/internal/resolver"
)

// LockState is the explicit collection lock token. While Locked, open
// attempts fail instead of re-opening underneath an operation that needs
// the collection closed.
type LockState int

// Lock states
const (
	Unlocked LockState = iota
	Locked
)

// String returns the lock state name
func (s LockState) String() string {
	switch s {
	case Locked:
		return "locked"
	default:
		return "unlocked"
	}
}

// OpenFailure classifies why a safe open failed
type OpenFailure int

// Open failure kinds
const (
	FailureNone OpenFailure = iota
	FailureLocked
	FailureFileTooNew
	FailureCorrupt
)

// String returns the failure name
func (f OpenFailure) String() string {
	switch f {
	case FailureNone:
		return "none"
	case FailureLocked:
		return "locked"
	case FailureFileTooNew:
		return "file too new"
	default:
		return "corrupt"
	}
}

// DatabaseVersion classifies a schema version read from disk
type DatabaseVersion int

// Database version classifications
const (
	VersionUsable DatabaseVersion = iota
	VersionFutureNotDowngradable
	VersionUnknown
)

// String returns the classification name
func (v DatabaseVersion) String() string {
	switch v {
	case VersionUsable:
		return "usable"
	case VersionFutureNotDowngradable:
		return "future, not downgradable"
	default:
		return "unknown"
	}
}

// PathLocator resolves the collection directory and file path
type PathLocator interface {
	CurrentBaseDir() (string, error)
	CollectionPath() (string, error)
}

// Ensure resolver.Locator satisfies PathLocator
var _ PathLocator = (*resolver.Locator)(nil)

// OpenStoreFunc opens the collection store at path
type OpenStoreFunc func(ctx context.Context, path string) (port.CollectionStore, error)

// ReadVersionFunc reads the schema version of the collection file at path
// without holding it open
type ReadVersionFunc func(ctx context.Context, path string) (int, error)

// Manager owns the open/close lifecycle of the collection database. One
// mutex serializes open, close, and lock-state mutation; everything else
// reads through it.
type Manager struct {
	locator     PathLocator
	fs          port.FileSystem
	openStore   OpenStoreFunc
	readVersion ReadVersionFunc
	logger      *zap.Logger

	mu              sync.Mutex
	store           port.CollectionStore
	lockState       LockState
	lastOpenFailure OpenFailure
}

// NewManager creates a collection Manager
func NewManager(locator PathLocator, fs port.FileSystem, openStore OpenStoreFunc, readVersion ReadVersionFunc, logger *zap.Logger) *Manager {
	return &Manager{
		locator:     locator,
		fs:          fs,
		openStore:   openStore,
		readVersion: readVersion,
		logger:      logger,
	}
}

// Lock marks the collection as locked; open attempts fail until Unlock
func (m *Manager) Lock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger.Info("locked collection, open attempts will fail")
	m.lockState = Locked
}

// Unlock clears the lock token
func (m *Manager) Unlock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger.Info("unlocked collection")
	m.lockState = Unlocked
}

// LockState returns the current lock token
func (m *Manager) LockState() LockState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lockState
}

// CollectionPath resolves the absolute path of the collection file
func (m *Manager) CollectionPath() (string, error) {
	return m.locator.CollectionPath()
}

// BaseDirAccessible reports whether the collection base directory can be
// created and written to.
func (m *Manager) BaseDirAccessible() bool {
	dir, err := m.locator.CurrentBaseDir()
	if err != nil {
		m.logger.Warn("could not resolve collection directory", zap.Error(err))
		return false
	}
	if err := m.fs.InitDir(dir); err != nil {
		m.logger.Warn("collection directory not accessible", zap.String("dir", dir), zap.Error(err))
		return false
	}
	return true
}

// CollectionSize returns the size of the collection file in bytes, or nil
// when it cannot be read. Feeds the headroom check's optional input.
func (m *Manager) CollectionSize() *uint64 {
	path, err := m.locator.CollectionPath()
	if err != nil {
		m.logger.Warn("could not resolve collection path", zap.Error(err))
		return nil
	}
	size, err := m.fs.FileSize(path)
	if err != nil {
		m.logger.Warn("could not read collection size", zap.String("path", path), zap.Error(err))
		return nil
	}
	s := uint64(size)
	return &s
}

// Open opens the collection at the resolved path, initializing the base
// directory first. Returns the existing handle when already open.
func (m *Manager) Open(ctx context.Context) (port.CollectionStore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.openLocked(ctx)
}

// openLocked does the open work. Callers must hold m.mu.
func (m *Manager) openLocked(ctx context.Context) (port.CollectionStore, error) {
	if m.lockState == Locked {
		return nil, domain.ErrCollectionLocked
	}
	if m.store != nil {
		return m.store, nil
	}

	baseDir, err := m.locator.CurrentBaseDir()
	if err != nil {
		return nil, err
	}
	if err := m.fs.InitDir(baseDir); err != nil {
		return nil, err
	}

	path := resolver.CollectionPath(baseDir)
	m.logger.Info("begin open collection", zap.String("path", path))
	store, err := m.openStore(ctx, path)
	if err != nil {
		return nil, err
	}
	m.logger.Info("end open collection", zap.String("path", path))

	m.store = store
	return store, nil
}

// OpenAtPath opens an existing collection file directly, without directory
// initialization and without touching the managed handle. The file must
// already exist and be writable.
func (m *Manager) OpenAtPath(ctx context.Context, path string) (port.CollectionStore, error) {
	if !m.fs.FileExists(path) {
		return nil, domain.NewStorageAccessError(path, errors.New("does not exist"))
	}
	if !m.fs.IsWritable(path) {
		return nil, domain.NewStorageAccessError(path, errors.New("is not writable"))
	}
	return m.openStore(ctx, path)
}

// OpenSafe opens the collection, classifying any failure instead of
// returning an error. The classification is retained until the next call
// so startup code can report why the collection is missing.
func (m *Manager) OpenSafe(ctx context.Context) (port.CollectionStore, OpenFailure) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastOpenFailure = FailureNone
	store, err := m.openLocked(ctx)
	if err == nil {
		return store, FailureNone
	}

	failure := classifyOpenFailure(err)
	m.lastOpenFailure = failure
	m.logger.Warn("failed to open collection",
		zap.Stringer("failure", failure), zap.Error(err))
	return nil, failure
}

// LastOpenFailure returns the classification from the most recent OpenSafe
func (m *Manager) LastOpenFailure() OpenFailure {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastOpenFailure
}

// IsOpen reports whether the collection is currently open
func (m *Manager) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store != nil
}

// Close closes the collection. When save is set, the write-ahead log is
// flushed into the collection file first.
func (m *Manager) Close(ctx context.Context, save bool, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Info("close collection", zap.String("reason", reason), zap.Bool("save", save))
	if m.store == nil {
		return nil
	}

	var errs []error
	if save {
		if err := m.store.Checkpoint(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := m.store.Close(); err != nil {
		errs = append(errs, err)
	}
	m.store = nil

	if len(errs) > 0 {
		return fmt.Errorf("failed to close collection: %w", errors.Join(errs...))
	}
	return nil
}

// DatabaseVersion probes the collection schema version without keeping the
// collection open, and classifies it against what this build can handle.
func (m *Manager) DatabaseVersion(ctx context.Context) (int, DatabaseVersion) {
	path, err := m.locator.CollectionPath()
	if err != nil {
		m.logger.Warn("could not resolve collection path", zap.Error(err))
		return 0, VersionUnknown
	}

	ver, err := m.readVersion(ctx, path)
	if err != nil {
		m.logger.Warn("could not read schema version", zap.String("path", path), zap.Error(err))
		return 0, VersionUnknown
	}
	if ver > domain.MaxSchemaVersion {
		return ver, VersionFutureNotDowngradable
	}
	return ver, VersionUsable
}

// classifyOpenFailure maps an open error onto the failure kinds callers
// report on. Anything unrecognized counts as corruption.
func classifyOpenFailure(err error) OpenFailure {
	switch {
	case errors.Is(err, domain.ErrCollectionLocked):
		return FailureLocked
	case errors.Is(err, domain.ErrFileTooNew):
		return FailureFileTooNew
	default:
		return FailureCorrupt
	}
}
