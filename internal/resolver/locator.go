package resolver

import (
	"github.com/deckhaven/collection-keeper/internal/port"
)

// PrefKeyCollectionDir is the preference storing the absolute path of the
// current collection directory. Overriding it lets one install point at a
// second collection.
const PrefKeyCollectionDir = "collection_dir"

// Locator resolves the current collection directory. An explicit override
// wins, then the persisted preference; otherwise the layout default is used
// and persisted for subsequent runs.
type Locator struct {
	resolver port.DirectoryResolver
	prefs    port.Prefs
	override string
}

// NewLocator creates a Locator. override may be empty.
func NewLocator(resolver port.DirectoryResolver, prefs port.Prefs, override string) *Locator {
	return &Locator{
		resolver: resolver,
		prefs:    prefs,
		override: override,
	}
}

// CurrentBaseDir returns the absolute path of the collection base directory
func (l *Locator) CurrentBaseDir() (string, error) {
	if l.override != "" {
		return l.override, nil
	}
	return l.prefs.GetOrSetString(PrefKeyCollectionDir, l.resolver.DefaultBaseDir)
}

// CollectionPath returns the absolute path of the collection file
func (l *Locator) CollectionPath() (string, error) {
	dir, err := l.CurrentBaseDir()
	if err != nil {
		return "", err
	}
	return CollectionPath(dir), nil
}
