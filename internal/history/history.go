// Package history keeps a ledger of import batches in a local SQLite
// database, so past merges can be audited after the fact.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	_ "modernc.org/sqlite"
)

// Batch records the outcome of one import merge.
type Batch struct {
	ID         string
	Source     string
	Parser     string
	Added      int
	Skipped    int
	Unparsable int
	Deposits   int
	CreatedAt  time.Time
}

// Ledger persists import batches.
type Ledger struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open opens (creating if needed) the ledger database at dbPath.
func Open(dbPath string, log zerolog.Logger) (*Ledger, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}

	l := &Ledger{
		db:  db,
		log: log.With().Str("component", "history").Logger(),
	}

	if err := l.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize ledger schema: %w", err)
	}

	l.log.Debug().Str("db_path", dbPath).Msg("import ledger opened")
	return l, nil
}

func (l *Ledger) initSchema() error {
	_, err := l.db.Exec(`
		CREATE TABLE IF NOT EXISTS import_batches (
			batch_id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			parser TEXT NOT NULL,
			added INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			unparsable INTEGER NOT NULL,
			deposits INTEGER NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create import_batches table: %w", err)
	}

	_, err = l.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_import_batches_created_at
		ON import_batches(created_at)
	`)
	if err != nil {
		return fmt.Errorf("failed to create import_batches index: %w", err)
	}

	return nil
}

// Record persists one batch. A duplicate batch ID replaces the prior row.
func (l *Ledger) Record(b Batch) error {
	_, err := l.db.Exec(`
		INSERT OR REPLACE INTO import_batches
			(batch_id, source, parser, added, skipped, unparsable, deposits, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, b.ID, b.Source, b.Parser, b.Added, b.Skipped, b.Unparsable, b.Deposits)

	if err != nil {
		l.log.Warn().Err(err).Str("batch_id", b.ID).Msg("failed to record import batch")
		return fmt.Errorf("failed to record import batch: %w", err)
	}

	return nil
}

// Recent returns the most recent batches, newest first.
func (l *Ledger) Recent(limit int) ([]Batch, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := l.db.Query(`
		SELECT batch_id, source, parser, added, skipped, unparsable, deposits, created_at
		FROM import_batches
		ORDER BY created_at DESC, batch_id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load import batches: %w", err)
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		var b Batch
		if err := rows.Scan(&b.ID, &b.Source, &b.Parser, &b.Added, &b.Skipped,
			&b.Unparsable, &b.Deposits, &b.CreatedAt); err != nil {
			l.log.Warn().Err(err).Msg("failed to scan import batch row")
			continue
		}
		batches = append(batches, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating import batch rows: %w", err)
	}

	return batches, nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}
