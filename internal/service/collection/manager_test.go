package collection

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/deckhaven/collection-keeper/internal/domain"
	"github.com/deckhaven/collection-keeper/internal/port"
	"github.com/deckhaven/collection-keeper/internal/resolver"
)

// fakeLocator implements PathLocator for testing
type fakeLocator struct {
	baseDir string
	err     error
}

func (f *fakeLocator) CurrentBaseDir() (string, error) { return f.baseDir, f.err }

func (f *fakeLocator) CollectionPath() (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return resolver.CollectionPath(f.baseDir), nil
}

// mockFileSystem implements port.FileSystem for testing
type mockFileSystem struct {
	mu          sync.Mutex
	size        int64
	sizeErr     error
	exists      bool
	writable    bool
	initDirErr  error
	initDirDirs []string
}

func (m *mockFileSystem) FileSize(path string) (int64, error) { return m.size, m.sizeErr }
func (m *mockFileSystem) FileExists(path string) bool         { return m.exists }
func (m *mockFileSystem) IsWritable(path string) bool         { return m.writable }
func (m *mockFileSystem) InitDir(dir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initDirDirs = append(m.initDirDirs, dir)
	return m.initDirErr
}
func (m *mockFileSystem) DiskUsage(path string) (*port.DiskUsage, error)  { return &port.DiskUsage{}, nil }
func (m *mockFileSystem) CopyFile(src, dst string) (int64, error)         { return 0, nil }
func (m *mockFileSystem) RemoveFile(path string) error                    { return nil }
func (m *mockFileSystem) ListFiles(dir string) ([]port.FileInfo, error)   { return nil, nil }

// fakeStore implements port.CollectionStore for testing
type fakeStore struct {
	path            string
	checkpointCalls int
	closeCalls      int
	closeErr        error
}

func (f *fakeStore) Path() string                                        { return f.path }
func (f *fakeStore) SchemaVersion(ctx context.Context) (int, error)      { return 11, nil }
func (f *fakeStore) Vacuum(ctx context.Context) error                    { return nil }
func (f *fakeStore) IntegrityCheck(ctx context.Context) ([]string, error) { return nil, nil }
func (f *fakeStore) Optimize(ctx context.Context) error                  { return nil }
func (f *fakeStore) Checkpoint(ctx context.Context) error {
	f.checkpointCalls++
	return nil
}
func (f *fakeStore) Ping() error { return nil }
func (f *fakeStore) Close() error {
	f.closeCalls++
	return f.closeErr
}

func newTestManager(fs *mockFileSystem, openStore OpenStoreFunc) *Manager {
	locator := &fakeLocator{baseDir: "/data/keeper"}
	readVersion := func(ctx context.Context, path string) (int, error) { return 11, nil }
	return NewManager(locator, fs, openStore, readVersion, zap.NewNop())
}

func TestManager_LockState(t *testing.T) {
	m := newTestManager(&mockFileSystem{writable: true}, nil)

	if got := m.LockState(); got != Unlocked {
		t.Errorf("LockState() = %v, want Unlocked", got)
	}
	m.Lock()
	if got := m.LockState(); got != Locked {
		t.Errorf("LockState() after Lock = %v, want Locked", got)
	}
	m.Unlock()
	if got := m.LockState(); got != Unlocked {
		t.Errorf("LockState() after Unlock = %v, want Unlocked", got)
	}
}

func TestManager_Open_RefusedWhileLocked(t *testing.T) {
	opened := 0
	openStore := func(ctx context.Context, path string) (port.CollectionStore, error) {
		opened++
		return &fakeStore{path: path}, nil
	}
	m := newTestManager(&mockFileSystem{writable: true}, openStore)

	m.Lock()
	if _, err := m.Open(context.Background()); !errors.Is(err, domain.ErrCollectionLocked) {
		t.Errorf("Open() while locked: error = %v, want ErrCollectionLocked", err)
	}
	if opened != 0 {
		t.Errorf("openStore called %d times while locked, want 0", opened)
	}

	m.Unlock()
	if _, err := m.Open(context.Background()); err != nil {
		t.Errorf("Open() after unlock: error = %v", err)
	}
	if opened != 1 {
		t.Errorf("openStore called %d times, want 1", opened)
	}
}

func TestManager_Open_ReusesHandle(t *testing.T) {
	opened := 0
	openStore := func(ctx context.Context, path string) (port.CollectionStore, error) {
		opened++
		return &fakeStore{path: path}, nil
	}
	fs := &mockFileSystem{writable: true}
	m := newTestManager(fs, openStore)

	first, err := m.Open(context.Background())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	second, err := m.Open(context.Background())
	if err != nil {
		t.Fatalf("Open() second call error = %v", err)
	}
	if first != second {
		t.Error("Open() returned a different handle on second call")
	}
	if opened != 1 {
		t.Errorf("openStore called %d times, want 1", opened)
	}
	if !m.IsOpen() {
		t.Error("IsOpen() = false after Open")
	}

	// The base directory got initialized before opening.
	if len(fs.initDirDirs) == 0 || fs.initDirDirs[0] != "/data/keeper" {
		t.Errorf("InitDir dirs = %v, want [/data/keeper ...]", fs.initDirDirs)
	}
}

func TestManager_Open_DirInitFailure(t *testing.T) {
	fs := &mockFileSystem{initDirErr: domain.NewStorageAccessError("/data/keeper", nil)}
	m := newTestManager(fs, func(ctx context.Context, path string) (port.CollectionStore, error) {
		t.Fatal("openStore should not be called when InitDir fails")
		return nil, nil
	})

	_, err := m.Open(context.Background())
	if !domain.IsStorageAccess(err) {
		t.Errorf("Open() error = %v, want storage access error", err)
	}
}

func TestManager_OpenAtPath(t *testing.T) {
	openStore := func(ctx context.Context, path string) (port.CollectionStore, error) {
		return &fakeStore{path: path}, nil
	}

	t.Run("missing file", func(t *testing.T) {
		m := newTestManager(&mockFileSystem{exists: false}, openStore)
		_, err := m.OpenAtPath(context.Background(), "/elsewhere/collection.anki2")
		if !domain.IsStorageAccess(err) {
			t.Errorf("OpenAtPath() error = %v, want storage access error", err)
		}
	})

	t.Run("not writable", func(t *testing.T) {
		m := newTestManager(&mockFileSystem{exists: true, writable: false}, openStore)
		_, err := m.OpenAtPath(context.Background(), "/elsewhere/collection.anki2")
		if !domain.IsStorageAccess(err) {
			t.Errorf("OpenAtPath() error = %v, want storage access error", err)
		}
	})

	t.Run("success leaves managed handle alone", func(t *testing.T) {
		m := newTestManager(&mockFileSystem{exists: true, writable: true}, openStore)
		store, err := m.OpenAtPath(context.Background(), "/elsewhere/collection.anki2")
		if err != nil {
			t.Fatalf("OpenAtPath() error = %v", err)
		}
		if store.Path() != "/elsewhere/collection.anki2" {
			t.Errorf("Path() = %v", store.Path())
		}
		if m.IsOpen() {
			t.Error("IsOpen() = true, OpenAtPath must not set the managed handle")
		}
	})
}

func TestManager_OpenSafe_Classification(t *testing.T) {
	tests := []struct {
		name    string
		openErr error
		want    OpenFailure
	}{
		{
			name:    "locked",
			openErr: fmt.Errorf("open: %w", domain.ErrCollectionLocked),
			want:    FailureLocked,
		},
		{
			name:    "file too new",
			openErr: fmt.Errorf("open: %w", domain.ErrFileTooNew),
			want:    FailureFileTooNew,
		},
		{
			name:    "corrupt",
			openErr: fmt.Errorf("open: %w", domain.ErrCorrupt),
			want:    FailureCorrupt,
		},
		{
			name:    "unrecognized counts as corrupt",
			openErr: errors.New("disk I/O error"),
			want:    FailureCorrupt,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			openStore := func(ctx context.Context, path string) (port.CollectionStore, error) {
				return nil, tt.openErr
			}
			m := newTestManager(&mockFileSystem{writable: true}, openStore)

			store, failure := m.OpenSafe(context.Background())
			if store != nil {
				t.Error("OpenSafe() store != nil on failure")
			}
			if failure != tt.want {
				t.Errorf("OpenSafe() failure = %v, want %v", failure, tt.want)
			}
			if got := m.LastOpenFailure(); got != tt.want {
				t.Errorf("LastOpenFailure() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestManager_OpenSafe_SuccessClearsFailure(t *testing.T) {
	failNext := true
	openStore := func(ctx context.Context, path string) (port.CollectionStore, error) {
		if failNext {
			return nil, domain.ErrCorrupt
		}
		return &fakeStore{path: path}, nil
	}
	m := newTestManager(&mockFileSystem{writable: true}, openStore)

	if _, failure := m.OpenSafe(context.Background()); failure != FailureCorrupt {
		t.Fatalf("OpenSafe() failure = %v, want FailureCorrupt", failure)
	}

	failNext = false
	store, failure := m.OpenSafe(context.Background())
	if store == nil || failure != FailureNone {
		t.Errorf("OpenSafe() = (%v, %v), want store and FailureNone", store, failure)
	}
	if got := m.LastOpenFailure(); got != FailureNone {
		t.Errorf("LastOpenFailure() = %v, want FailureNone", got)
	}
}

func TestManager_Close(t *testing.T) {
	store := &fakeStore{}
	openStore := func(ctx context.Context, path string) (port.CollectionStore, error) {
		return store, nil
	}
	m := newTestManager(&mockFileSystem{writable: true}, openStore)

	if _, err := m.Open(context.Background()); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if err := m.Close(context.Background(), true, "test shutdown"); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if store.checkpointCalls != 1 {
		t.Errorf("checkpointCalls = %d, want 1 for save close", store.checkpointCalls)
	}
	if store.closeCalls != 1 {
		t.Errorf("closeCalls = %d, want 1", store.closeCalls)
	}
	if m.IsOpen() {
		t.Error("IsOpen() = true after Close")
	}

	// Closing an already-closed collection is a no-op.
	if err := m.Close(context.Background(), false, "again"); err != nil {
		t.Errorf("Close() on closed collection: error = %v", err)
	}
	if store.closeCalls != 1 {
		t.Errorf("closeCalls = %d after second Close, want 1", store.closeCalls)
	}
}

func TestManager_Close_WithoutSave(t *testing.T) {
	store := &fakeStore{}
	m := newTestManager(&mockFileSystem{writable: true},
		func(ctx context.Context, path string) (port.CollectionStore, error) { return store, nil })

	if _, err := m.Open(context.Background()); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := m.Close(context.Background(), false, "discard"); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if store.checkpointCalls != 0 {
		t.Errorf("checkpointCalls = %d, want 0 for non-save close", store.checkpointCalls)
	}
}

func TestManager_CollectionSize(t *testing.T) {
	t.Run("readable", func(t *testing.T) {
		m := newTestManager(&mockFileSystem{size: 123456}, nil)
		size := m.CollectionSize()
		if size == nil || *size != 123456 {
			t.Errorf("CollectionSize() = %v, want 123456", size)
		}
	})

	t.Run("unreadable", func(t *testing.T) {
		m := newTestManager(&mockFileSystem{sizeErr: errors.New("no such file")}, nil)
		if size := m.CollectionSize(); size != nil {
			t.Errorf("CollectionSize() = %v, want nil", size)
		}
	})

	t.Run("path unresolvable", func(t *testing.T) {
		m := NewManager(&fakeLocator{err: errors.New("no home")}, &mockFileSystem{}, nil, nil, zap.NewNop())
		if size := m.CollectionSize(); size != nil {
			t.Errorf("CollectionSize() = %v, want nil", size)
		}
	})
}

func TestManager_CollectionPath(t *testing.T) {
	m := newTestManager(&mockFileSystem{}, nil)
	path, err := m.CollectionPath()
	if err != nil {
		t.Fatalf("CollectionPath() error = %v", err)
	}
	want := filepath.Join("/data/keeper", resolver.CollectionFilename)
	if path != want {
		t.Errorf("CollectionPath() = %v, want %v", path, want)
	}
}

func TestManager_DatabaseVersion(t *testing.T) {
	tests := []struct {
		name     string
		ver      int
		err      error
		wantVer  int
		wantKind DatabaseVersion
	}{
		{name: "usable", ver: 11, wantVer: 11, wantKind: VersionUsable},
		{name: "at max", ver: domain.MaxSchemaVersion, wantVer: domain.MaxSchemaVersion, wantKind: VersionUsable},
		{name: "future", ver: domain.MaxSchemaVersion + 1, wantVer: domain.MaxSchemaVersion + 1, wantKind: VersionFutureNotDowngradable},
		{name: "unreadable", err: domain.ErrUnknownSchemaVersion, wantVer: 0, wantKind: VersionUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			readVersion := func(ctx context.Context, path string) (int, error) {
				return tt.ver, tt.err
			}
			m := NewManager(&fakeLocator{baseDir: "/data/keeper"}, &mockFileSystem{}, nil, readVersion, zap.NewNop())

			ver, kind := m.DatabaseVersion(context.Background())
			if ver != tt.wantVer || kind != tt.wantKind {
				t.Errorf("DatabaseVersion() = (%d, %v), want (%d, %v)", ver, kind, tt.wantVer, tt.wantKind)
			}
		})
	}
}

func TestManager_BaseDirAccessible(t *testing.T) {
	t.Run("accessible", func(t *testing.T) {
		m := newTestManager(&mockFileSystem{writable: true}, nil)
		if !m.BaseDirAccessible() {
			t.Error("BaseDirAccessible() = false, want true")
		}
	})

	t.Run("init fails", func(t *testing.T) {
		fs := &mockFileSystem{initDirErr: domain.NewStorageAccessError("/data/keeper", nil)}
		m := newTestManager(fs, nil)
		if m.BaseDirAccessible() {
			t.Error("BaseDirAccessible() = true, want false")
		}
	})
}
