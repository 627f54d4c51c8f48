package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andresuchdata/rxflow/internal/repository"
)

var (
	_ repository.Backend    = (*Backend)(nil)
	_ repository.BatchSaver = (*Backend)(nil)
)

const upsertState = `
	INSERT INTO report_state (bucket, payload, updated_at)
	VALUES ($1, $2, NOW())
	ON CONFLICT (bucket)
	DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()
`

const stateTableDDL = `
	CREATE TABLE IF NOT EXISTS report_state (
		bucket TEXT PRIMARY KEY,
		payload JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// Backend keeps one jsonb row per report bucket.
type Backend struct {
	db *DB
}

// NewBackend ensures the state table exists.
func NewBackend(ctx context.Context, db *DB) (*Backend, error) {
	if err := db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, stateTableDDL)
		return err
	}); err != nil {
		return nil, fmt.Errorf("create report_state table: %w", err)
	}
	return &Backend{db: db}, nil
}

func (b *Backend) Load(ctx context.Context, bucket string) ([]byte, error) {
	var payload []byte
	err := b.db.GetContext(ctx, &payload, `SELECT payload FROM report_state WHERE bucket = $1`, bucket)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", bucket, err)
	}
	return payload, nil
}

func (b *Backend) Save(ctx context.Context, bucket string, payload []byte) error {
	return b.SaveBatch(ctx, map[string][]byte{bucket: payload})
}

// SaveBatch upserts every bucket in one transaction.
func (b *Backend) SaveBatch(ctx context.Context, payloads map[string][]byte) error {
	return b.db.WithTx(ctx, func(tx *sql.Tx) error {
		for bucket, payload := range payloads {
			if _, err := tx.ExecContext(ctx, upsertState, bucket, string(payload)); err != nil {
				return fmt.Errorf("upsert %s: %w", bucket, err)
			}
		}
		return nil
	})
}

func (b *Backend) Close() error { return b.db.Close() }
