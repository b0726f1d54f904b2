package port

import "context"

// CollectionStore is the handle to an open collection database. The actual
// card data model and scheduler live behind this handle; the keeper only
// drives lifecycle and maintenance operations.
type CollectionStore interface {
	// Path returns the absolute path of the collection file
	Path() string

	// SchemaVersion returns the collection schema version
	SchemaVersion(ctx context.Context) (int, error)

	// Vacuum rewrites the collection file, reclaiming free pages.
	// May require up to twice the file size in scratch space.
	Vacuum(ctx context.Context) error

	// IntegrityCheck verifies the database file and returns the list of
	// problems found. An empty list means the file is healthy.
	IntegrityCheck(ctx context.Context) ([]string, error)

	// Optimize refreshes the query planner statistics
	Optimize(ctx context.Context) error

	// Checkpoint flushes the write-ahead log into the collection file
	Checkpoint(ctx context.Context) error

	// Ping checks database connectivity
	Ping() error

	// Close closes the database connection
	Close() error
}
