package domain

import (
	"errors"
	"fmt"
)

// Common domain errors
var (
	ErrStorageAccess        = errors.New("storage access denied")
	ErrCollectionLocked     = errors.New("collection is locked")
	ErrFileTooNew           = errors.New("collection file is too new for this version")
	ErrCorrupt              = errors.New("collection file is corrupt")
	ErrUnknownSchemaVersion = errors.New("unknown collection schema version")
	ErrInsufficientSpace    = errors.New("insufficient space")
	ErrNotOpen              = errors.New("collection is not open")
)

// MaxSchemaVersion is the newest collection schema version this build can
// open. Newer files cannot be downgraded.
const MaxSchemaVersion = 18

// CreatedSchemaVersion is the schema version written when bootstrapping a
// fresh collection file.
const CreatedSchemaVersion = 11

// StorageAccessError wraps a path-level access failure with the path that
// caused it.
type StorageAccessError struct {
	Path string
	Err  error
}

// Error returns the error message
func (e *StorageAccessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Path + ": storage access denied"
}

// Unwrap returns the underlying error
func (e *StorageAccessError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrStorageAccess
}

// NewStorageAccessError creates a new storage access error for path
func NewStorageAccessError(path string, err error) *StorageAccessError {
	return &StorageAccessError{Path: path, Err: err}
}

// IsStorageAccess returns true if the error is a storage access failure
func IsStorageAccess(err error) bool {
	var sa *StorageAccessError
	return errors.As(err, &sa) || errors.Is(err, ErrStorageAccess)
}
