package port

// DirectoryResolver maps the logical collection directory to a default
// absolute path for one storage layout. Implementations are selected by
// the storage.layout configuration flag.
type DirectoryResolver interface {
	// Name returns the layout name ("legacy" or "scoped")
	Name() string

	// DefaultBaseDir returns the default base directory for collection data
	DefaultBaseDir() (string, error)
}

// Prefs is a persistent key/value preference store
type Prefs interface {
	// GetString returns the stored value for key, or "" when unset
	GetString(key string) string

	// SetString stores and persists the value for key
	SetString(key, value string) error

	// GetOrSetString returns the stored value for key. When the key is
	// unset, compute supplies the value, which is persisted before it is
	// returned.
	GetOrSetString(key string, compute func() (string, error)) (string, error)
}
