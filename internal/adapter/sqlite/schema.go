package sqlite

import (
	"fmt"
	"time"

	"github.com/deckhaven/collection-keeper/internal/domain"
)

// bootstrap creates the collection schema when the file is new. The tables
// mirror the standard collection layout; their contents are managed by the
// collection backend, not by the keeper.
func (s *Store) bootstrap() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS col (
			id INTEGER PRIMARY KEY,
			crt INTEGER NOT NULL,
			mod INTEGER NOT NULL,
			scm INTEGER NOT NULL,
			ver INTEGER NOT NULL,
			dty INTEGER NOT NULL,
			usn INTEGER NOT NULL,
			ls INTEGER NOT NULL,
			conf TEXT NOT NULL,
			models TEXT NOT NULL,
			decks TEXT NOT NULL,
			dconf TEXT NOT NULL,
			tags TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS notes (
			id INTEGER PRIMARY KEY,
			guid TEXT NOT NULL,
			mid INTEGER NOT NULL,
			mod INTEGER NOT NULL,
			usn INTEGER NOT NULL,
			tags TEXT NOT NULL,
			flds TEXT NOT NULL,
			sfld INTEGER NOT NULL,
			csum INTEGER NOT NULL,
			flags INTEGER NOT NULL,
			data TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS cards (
			id INTEGER PRIMARY KEY,
			nid INTEGER NOT NULL,
			did INTEGER NOT NULL,
			ord INTEGER NOT NULL,
			mod INTEGER NOT NULL,
			usn INTEGER NOT NULL,
			type INTEGER NOT NULL,
			queue INTEGER NOT NULL,
			due INTEGER NOT NULL,
			ivl INTEGER NOT NULL,
			factor INTEGER NOT NULL,
			reps INTEGER NOT NULL,
			lapses INTEGER NOT NULL,
			"left" INTEGER NOT NULL,
			odue INTEGER NOT NULL,
			odid INTEGER NOT NULL,
			flags INTEGER NOT NULL,
			data TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS revlog (
			id INTEGER PRIMARY KEY,
			cid INTEGER NOT NULL,
			usn INTEGER NOT NULL,
			ease INTEGER NOT NULL,
			ivl INTEGER NOT NULL,
			lastIvl INTEGER NOT NULL,
			factor INTEGER NOT NULL,
			time INTEGER NOT NULL,
			type INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS graves (
			usn INTEGER NOT NULL,
			oid INTEGER NOT NULL,
			type INTEGER NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS ix_notes_usn ON notes (usn)`,
		`CREATE INDEX IF NOT EXISTS ix_cards_usn ON cards (usn)`,
		`CREATE INDEX IF NOT EXISTS ix_cards_nid ON cards (nid)`,
		`CREATE INDEX IF NOT EXISTS ix_cards_sched ON cards (did, queue, due)`,
		`CREATE INDEX IF NOT EXISTS ix_revlog_usn ON revlog (usn)`,
		`CREATE INDEX IF NOT EXISTS ix_revlog_cid ON revlog (cid)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return classify(fmt.Errorf("failed to run migration: %w", err))
		}
	}

	// Seed the col row on a brand new collection.
	var count int
	if err := s.db.QueryRow("SELECT count(*) FROM col").Scan(&count); err != nil {
		return classify(fmt.Errorf("failed to inspect col table: %w", err))
	}
	if count == 0 {
		now := time.Now().Unix()
		_, err := s.db.Exec(
			`INSERT INTO col (id, crt, mod, scm, ver, dty, usn, ls, conf, models, decks, dconf, tags)
			 VALUES (1, ?, ?, ?, ?, 0, 0, 0, '{}', '{}', '{}', '{}', '{}')`,
			now, now*1000, now*1000, domain.CreatedSchemaVersion,
		)
		if err != nil {
			return classify(fmt.Errorf("failed to seed col row: %w", err))
		}
	}

	return nil
}
