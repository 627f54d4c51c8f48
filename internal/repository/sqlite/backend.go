// Package sqlite stores report buckets in a single embedded SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/andresuchdata/rxflow/internal/repository"
)

var (
	_ repository.Backend    = (*Backend)(nil)
	_ repository.BatchSaver = (*Backend)(nil)
)

const upsertState = `INSERT INTO state(bucket, payload, updated_at) VALUES(?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(bucket) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`

// Backend keeps one row per bucket with the JSON payload as a blob.
type Backend struct {
	db   *sql.DB
	path string
}

// Open creates the database file and the state table if needed.
func Open(path string) (*Backend, error) {
	if path == "" {
		path = "rxflow.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single writer avoids SQLITE_BUSY between collections
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	return &Backend{db: db, path: path}, nil
}

func (b *Backend) Load(ctx context.Context, bucket string) ([]byte, error) {
	var payload []byte
	err := b.db.QueryRowContext(ctx, `SELECT payload FROM state WHERE bucket = ?`, bucket).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", bucket, err)
	}
	return payload, nil
}

func (b *Backend) Save(ctx context.Context, bucket string, payload []byte) error {
	if _, err := b.db.ExecContext(ctx, upsertState, bucket, payload); err != nil {
		return fmt.Errorf("upsert %s: %w", bucket, err)
	}
	return nil
}

// SaveBatch upserts every bucket in one transaction.
func (b *Backend) SaveBatch(ctx context.Context, payloads map[string][]byte) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	for bucket, payload := range payloads {
		if _, err := tx.ExecContext(ctx, upsertState, bucket, payload); err != nil {
			return fmt.Errorf("upsert %s: %w", bucket, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

func (b *Backend) Close() error { return b.db.Close() }

// Path returns the configured database path.
func (b *Backend) Path() string { return b.path }
