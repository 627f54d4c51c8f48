package service

import (
	"context"
	"fmt"
	"os"

	"github.com/andresuchdata/rxflow/internal/domain"
	"github.com/andresuchdata/rxflow/internal/drive"
	"github.com/andresuchdata/rxflow/internal/pipeline"
)

// ImportDrive downloads one Drive export and ingests it. An empty family is
// inferred from the Drive file name.
func (s *IngestService) ImportDrive(ctx context.Context, d *drive.Downloader, fileID string, family domain.Family) (*domain.IngestOutcome, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	dir, err := os.MkdirTemp(s.uploadDir, "drive-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create download dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path, file, err := d.Download(ctx, fileID, dir)
	if err != nil {
		return nil, err
	}
	if family == "" {
		family, err = pipeline.InferFamily(file.Name)
		if err != nil {
			return nil, err
		}
	}
	return s.IngestFile(ctx, family, file.LocalName(), path)
}
