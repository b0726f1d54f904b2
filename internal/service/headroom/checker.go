// Package headroom decides whether enough free disk space exists to run a
// collection maintenance operation. Vacuuming a database can require as much
// as twice the size of the original file in scratch space
// (https://www.sqlite.org/lang_vacuum.html), so the requirement is 2x the
// current collection size. Any uncertainty about either quantity folds into
// a result that always warns; the caller never has to handle an error.
package headroom

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/deckhaven/collection-keeper/internal/port"
)

// DefaultMinFreeBytes is the free-space floor requested when the collection
// size cannot be determined. Decimal so it renders as an even "150 MB".
const DefaultMinFreeBytes uint64 = 150 * 1000 * 1000

const (
	msgNeedFree    = "Insufficient free space. At least %s of free space is required before running a database check."
	msgNeedAround  = "Insufficient free space. Around %s of free space is required before running a database check."
	msgCurrentFree = " (currently free: %s)"
)

// CheckResult reports either the measured space requirements for a
// maintenance operation, or a ready-to-display message when they could not
// be determined. Exactly one of the two is populated; a fresh result is
// built on every check and never mutated.
type CheckResult struct {
	// Message is the display text when size or free space is unknown
	Message string

	// Measured reports whether RequiredBytes and FreeBytes are valid
	Measured bool

	// RequiredBytes is twice the collection size (vacuum worst case)
	RequiredBytes uint64

	// FreeBytes is the free space on the collection's filesystem
	FreeBytes uint64
}

// Check computes the headroom verdict from the raw byte counts. A nil
// collectionSize or freeSpace means the quantity could not be determined;
// the result then carries a display message instead of numbers.
func Check(collectionSize, freeSpace *uint64, minFreeFallback uint64) CheckResult {
	if collectionSize == nil {
		return CheckResult{Message: fmt.Sprintf(msgNeedFree, humanize.Bytes(minFreeFallback))}
	}

	required := *collectionSize * 2

	if freeSpace == nil {
		return CheckResult{Message: fmt.Sprintf(msgNeedFree, humanize.Bytes(required))}
	}

	return CheckResult{
		Measured:      true,
		RequiredBytes: required,
		FreeBytes:     *freeSpace,
	}
}

// ShouldWarn reports whether the caller should warn the user before
// proceeding. Unknown space always warns; measured space warns only when
// the requirement strictly exceeds what is free.
func (r CheckResult) ShouldWarn() bool {
	if !r.Measured {
		return true
	}
	return r.RequiredBytes > r.FreeBytes
}

// WarningText returns the text to show the user
func (r CheckResult) WarningText() string {
	if !r.Measured {
		return r.Message
	}
	return fmt.Sprintf(msgNeedAround, humanize.Bytes(r.RequiredBytes)) +
		fmt.Sprintf(msgCurrentFree, humanize.Bytes(r.FreeBytes))
}

// Checker gathers the raw byte counts from the filesystem and runs Check
type Checker struct {
	fs              port.FileSystem
	minFreeFallback uint64
	logger          *zap.Logger
}

// NewChecker creates a Checker. A zero minFreeFallback falls back to
// DefaultMinFreeBytes.
func NewChecker(fs port.FileSystem, minFreeFallback uint64, logger *zap.Logger) *Checker {
	if minFreeFallback == 0 {
		minFreeFallback = DefaultMinFreeBytes
	}
	return &Checker{
		fs:              fs,
		minFreeFallback: minFreeFallback,
		logger:          logger,
	}
}

// CheckCollection measures the collection file and the free space on its
// containing filesystem, then computes the verdict. Measurement failures
// are not errors: they fold into a result that always warns.
func (c *Checker) CheckCollection(collectionPath string) CheckResult {
	size, err := c.fs.FileSize(collectionPath)
	if err != nil || size < 0 {
		c.logger.Warn("could not determine collection file size",
			zap.String("path", collectionPath), zap.Error(err))
		return Check(nil, nil, c.minFreeFallback)
	}
	collectionSize := uint64(size)

	// Scratch space lands in the same directory as the collection.
	var freeSpace *uint64
	usage, err := c.fs.DiskUsage(filepath.Dir(collectionPath))
	if err != nil {
		c.logger.Warn("could not determine free disk space",
			zap.String("path", collectionPath), zap.Error(err))
	} else {
		freeSpace = &usage.Free
	}

	result := Check(&collectionSize, freeSpace, c.minFreeFallback)
	if result.Measured {
		c.logger.Debug("storage headroom measured",
			zap.Uint64("required_bytes", result.RequiredBytes),
			zap.Uint64("free_bytes", result.FreeBytes))
	}
	return result
}
