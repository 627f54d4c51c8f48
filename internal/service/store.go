package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/rxflow/internal/config"
	"github.com/andresuchdata/rxflow/internal/repository"
	"github.com/andresuchdata/rxflow/internal/repository/postgres"
	"github.com/andresuchdata/rxflow/internal/repository/sqlite"
)

const (
	StoreDriverFile     = "file"
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
)

// OpenBackend builds the persistence backend named by cfg.Store.Driver.
func OpenBackend(ctx context.Context, cfg *config.Config) (repository.Backend, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	switch driver {
	case "", StoreDriverFile:
		return repository.NewFileBackend(cfg.App.DataDir)
	case StoreDriverSQLite:
		return sqlite.Open(cfg.Store.SQLitePath)
	case StoreDriverPostgres:
		db, err := postgres.NewDB(&cfg.Database)
		if err != nil {
			return nil, err
		}
		backend, err := postgres.NewBackend(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// OpenStore opens the configured backend and loads every collection.
func OpenStore(ctx context.Context, cfg *config.Config) (*repository.Store, error) {
	backend, err := OpenBackend(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open store backend: %w", err)
	}
	store := repository.NewStore(backend)
	if err := store.Load(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("load store: %w", err)
	}
	log.Info().Str("driver", cfg.Store.Driver).Msg("report store loaded")
	return store, nil
}
