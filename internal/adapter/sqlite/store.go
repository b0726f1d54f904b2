package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/deckhaven/collection-keeper/internal/domain"
	"github.com/deckhaven/collection-keeper/internal/port"
)

// Store implements port.CollectionStore backed by the collection SQLite file
type Store struct {
	db   *sql.DB
	path string
}

// Ensure Store implements port.CollectionStore
var _ port.CollectionStore = (*Store)(nil)

// Options controls how the collection database is opened
type Options struct {
	BusyTimeoutMs int
	CacheSizeMB   int

	// Create bootstraps a fresh collection schema when the file is new
	Create bool
}

// Open opens the collection database at path. The schema version is read
// eagerly so a file written by a newer build is rejected before any work
// happens against it.
func Open(path string, opts *Options) (*Store, error) {
	if opts == nil {
		opts = &Options{}
	}
	if opts.BusyTimeoutMs <= 0 {
		opts.BusyTimeoutMs = 5000
	}
	if opts.CacheSizeMB <= 0 {
		opts.CacheSizeMB = 32
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", opts.BusyTimeoutMs),
		fmt.Sprintf("PRAGMA cache_size = -%d", opts.CacheSizeMB*1000),
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, classify(fmt.Errorf("failed to set pragma %s: %w", pragma, err))
		}
	}

	store := &Store{db: db, path: path}

	if opts.Create {
		if err := store.bootstrap(); err != nil {
			db.Close()
			return nil, err
		}
	}

	ver, err := store.SchemaVersion(context.Background())
	if err != nil {
		db.Close()
		return nil, err
	}
	if ver > domain.MaxSchemaVersion {
		db.Close()
		return nil, fmt.Errorf("%w: schema version %d", domain.ErrFileTooNew, ver)
	}

	return store, nil
}

// Path returns the collection file path
func (s *Store) Path() string {
	return s.path
}

// SchemaVersion returns the collection schema version
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var ver int
	err := s.db.QueryRowContext(ctx, "SELECT ver FROM col").Scan(&ver)
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return 0, fmt.Errorf("%w: missing col table", domain.ErrUnknownSchemaVersion)
		}
		if err == sql.ErrNoRows {
			return 0, fmt.Errorf("%w: empty col table", domain.ErrUnknownSchemaVersion)
		}
		return 0, classify(fmt.Errorf("failed to read schema version: %w", err))
	}
	return ver, nil
}

// Vacuum rewrites the collection file, reclaiming free pages
func (s *Store) Vacuum(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return classify(fmt.Errorf("vacuum failed: %w", err))
	}
	return nil
}

// IntegrityCheck verifies the database file and returns the problems found
func (s *Store) IntegrityCheck(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "PRAGMA integrity_check")
	if err != nil {
		return nil, classify(fmt.Errorf("integrity check failed: %w", err))
	}
	defer rows.Close()

	var problems []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, fmt.Errorf("failed to scan integrity result: %w", err)
		}
		if line != "ok" {
			problems = append(problems, line)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return problems, nil
}

// Optimize refreshes the query planner statistics
func (s *Store) Optimize(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "ANALYZE"); err != nil {
		return classify(fmt.Errorf("analyze failed: %w", err))
	}
	return nil
}

// Checkpoint flushes the write-ahead log into the collection file
func (s *Store) Checkpoint(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return classify(fmt.Errorf("checkpoint failed: %w", err))
	}
	return nil
}

// Ping checks database connectivity
func (s *Store) Ping() error {
	return s.db.Ping()
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// ReadSchemaVersion reads the schema version without keeping a handle open.
// Used for version probing when the file may be outside the openable range.
func ReadSchemaVersion(ctx context.Context, path string) (int, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return 0, fmt.Errorf("failed to open collection database: %w", err)
	}
	defer db.Close()

	var ver int
	if err := db.QueryRowContext(ctx, "SELECT ver FROM col").Scan(&ver); err != nil {
		if strings.Contains(err.Error(), "no such table") || err == sql.ErrNoRows {
			return 0, fmt.Errorf("%w: %v", domain.ErrUnknownSchemaVersion, err)
		}
		return 0, classify(err)
	}
	return ver, nil
}

// classify maps driver errors onto domain sentinels so callers can branch
// on the failure kind instead of on driver strings.
func classify(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY"):
		return fmt.Errorf("%w: %v", domain.ErrCollectionLocked, err)
	case strings.Contains(msg, "file is not a database") ||
		strings.Contains(msg, "SQLITE_NOTADB") ||
		strings.Contains(msg, "malformed") ||
		strings.Contains(msg, "SQLITE_CORRUPT"):
		return fmt.Errorf("%w: %v", domain.ErrCorrupt, err)
	}
	return err
}
