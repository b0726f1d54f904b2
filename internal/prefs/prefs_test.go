package prefs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got := s.GetString("collection_dir"); got != "" {
		t.Errorf("GetString() on empty store = %q, want \"\"", got)
	}
}

func TestSetString_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "prefs.yaml")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.SetString("collection_dir", "/data/keeper"); err != nil {
		t.Fatalf("SetString() error = %v", err)
	}
	if got := s.GetString("collection_dir"); got != "/data/keeper" {
		t.Errorf("GetString() = %q, want /data/keeper", got)
	}

	// Reopen and confirm the value survived.
	s2, err := Open(path)
	if err != nil {
		t.Fatalf("Open() reopen error = %v", err)
	}
	if got := s2.GetString("collection_dir"); got != "/data/keeper" {
		t.Errorf("GetString() after reopen = %q, want /data/keeper", got)
	}
}

func TestGetOrSetString(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	computeCalls := 0
	compute := func() (string, error) {
		computeCalls++
		return "/computed/dir", nil
	}

	got, err := s.GetOrSetString("collection_dir", compute)
	if err != nil {
		t.Fatalf("GetOrSetString() error = %v", err)
	}
	if got != "/computed/dir" {
		t.Errorf("GetOrSetString() = %q, want /computed/dir", got)
	}

	// Second call returns the stored value without recomputing.
	got, err = s.GetOrSetString("collection_dir", compute)
	if err != nil {
		t.Fatalf("GetOrSetString() second call error = %v", err)
	}
	if got != "/computed/dir" {
		t.Errorf("GetOrSetString() second call = %q, want /computed/dir", got)
	}
	if computeCalls != 1 {
		t.Errorf("computeCalls = %d, want 1", computeCalls)
	}

	// The computed default reached disk.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(data) == 0 {
		t.Error("preference file is empty after GetOrSetString")
	}
}

func TestGetOrSetString_ComputeError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	wantErr := errors.New("cannot resolve default")
	_, err = s.GetOrSetString("collection_dir", func() (string, error) {
		return "", wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("GetOrSetString() error = %v, want %v", err, wantErr)
	}

	// Nothing gets persisted on failure.
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("preference file exists after failed compute, stat err = %v", err)
	}
}
