// Package app wires the configured store, cache, archive and services shared
// by the server and the CLI.
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/rxflow/internal/cache"
	"github.com/andresuchdata/rxflow/internal/config"
	"github.com/andresuchdata/rxflow/internal/drive"
	"github.com/andresuchdata/rxflow/internal/metrics"
	"github.com/andresuchdata/rxflow/internal/pipeline"
	"github.com/andresuchdata/rxflow/internal/repository"
	"github.com/andresuchdata/rxflow/internal/service"
	"github.com/andresuchdata/rxflow/internal/storage"
)

type App struct {
	Config  *config.Config
	Store   *repository.Store
	Cache   cache.RollupCache
	Archive *storage.Archive
	Metrics *metrics.Metrics
	Drive   *drive.Downloader
	// DriveService is nil when Drive credentials are not configured
	DriveService *drive.Service

	Ingest  *service.IngestService
	Reports *service.ReportService
}

// New opens the store and connects the optional collaborators. Redis and the
// archive are required once enabled; Drive is skipped when no credentials are set.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := service.OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	rollupCache, err := cache.NewRollupCache(cfg.Cache)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to connect rollup cache: %w", err)
	}

	var archive *storage.Archive
	if cfg.Archive.Enabled {
		client, err := storage.NewMinioClient(ctx, cfg.Archive)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to connect upload archive: %w", err)
		}
		archive = storage.NewArchive(client, cfg.Archive.Prefix)
		log.Info().Str("bucket", cfg.Archive.Bucket).Msg("upload archive enabled")
	}

	var (
		downloader   *drive.Downloader
		driveService *drive.Service
	)
	if strings.TrimSpace(cfg.Drive.CredentialsJSON) != "" {
		driveService, err = drive.NewService(ctx, cfg.Drive.CredentialsJSON)
		if err != nil {
			log.Warn().Err(err).Msg("drive import disabled")
		} else {
			downloader = drive.NewDownloader(driveService)
		}
	}

	m := metrics.New()
	return &App{
		Config:  cfg,
		Store:   store,
		Cache:   rollupCache,
		Archive: archive,
		Metrics: m,
		Drive:   downloader,

		DriveService: driveService,
		Ingest: service.NewIngestService(store, service.IngestDeps{
			Cache:     rollupCache,
			Archive:   archive,
			Metrics:   m,
			Options:   pipeline.Options{RequireTurnaroundDate: cfg.App.TurnaroundRequireDate},
			UploadDir: cfg.App.UploadDir,
		}),
		Reports: service.NewReportService(store, rollupCache, m),
	}, nil
}

func (a *App) Close() error {
	return a.Store.Close()
}
