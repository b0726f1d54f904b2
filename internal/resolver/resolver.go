// Package resolver maps the logical collection directory to an absolute
// filesystem path. Two layouts exist: the legacy shared directory under the
// user's home, and the scoped app-specific directory. The layout is policy,
// selected by configuration, so each is a separate strategy behind
// port.DirectoryResolver.
package resolver

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/deckhaven/collection-keeper/internal/port"
)

// CollectionFilename is the name of the collection database file
const CollectionFilename = "collection.anki2"

// Layout names accepted by ForLayout
const (
	LayoutLegacy = "legacy"
	LayoutScoped = "scoped"
)

// Legacy resolves the collection directory to a shared, user-visible
// directory at the top level of the user's home. This location predates the
// scoped storage model and stays reachable by other tools, but may be
// withdrawn by the platform.
type Legacy struct {
	appDirName string
}

// NewLegacy creates a legacy-layout resolver
func NewLegacy(appDirName string) *Legacy {
	return &Legacy{appDirName: appDirName}
}

// Name returns the layout name
func (r *Legacy) Name() string { return LayoutLegacy }

// DefaultBaseDir returns the shared directory under the user's home
func (r *Legacy) DefaultBaseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, r.appDirName), nil
}

// Scoped resolves the collection directory to the app-specific data
// directory. Accessible without any storage permission, but invisible to
// other applications.
type Scoped struct {
	appDirName string
}

// NewScoped creates a scoped-layout resolver
func NewScoped(appDirName string) *Scoped {
	return &Scoped{appDirName: appDirName}
}

// Name returns the layout name
func (r *Scoped) Name() string { return LayoutScoped }

// DefaultBaseDir returns the app-specific directory
func (r *Scoped) DefaultBaseDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config directory: %w", err)
	}
	return filepath.Join(base, r.appDirName), nil
}

// ForLayout returns the resolver for the configured storage layout
func ForLayout(layout, appDirName string) (port.DirectoryResolver, error) {
	switch layout {
	case LayoutLegacy:
		return NewLegacy(appDirName), nil
	case LayoutScoped:
		return NewScoped(appDirName), nil
	default:
		return nil, fmt.Errorf("unknown storage layout: %q", layout)
	}
}

// CollectionPath returns the path to the collection file under baseDir
func CollectionPath(baseDir string) string {
	return filepath.Join(baseDir, CollectionFilename)
}

// Ensure both strategies implement port.DirectoryResolver
var (
	_ port.DirectoryResolver = (*Legacy)(nil)
	_ port.DirectoryResolver = (*Scoped)(nil)
)
