package drive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Downloader pulls report exports from Drive into a local directory.
type Downloader struct {
	source Source
}

// NewDownloader creates a new Downloader.
func NewDownloader(s Source) *Downloader {
	return &Downloader{source: s}
}

// Importable reports whether a Drive file can be read as a report export.
func Importable(f *File) bool {
	if f.IsSheet() {
		return true
	}
	switch strings.ToLower(filepath.Ext(f.Name)) {
	case ".csv", ".xlsx", ".xlsm":
		return true
	}
	return false
}

// ListImportable lists the exports of a folder, skipping everything else.
func (d *Downloader) ListImportable(ctx context.Context, folderID string) ([]*File, error) {
	files, err := d.source.ListFiles(ctx, folderID)
	if err != nil {
		return nil, err
	}
	var out []*File
	for _, f := range files {
		if Importable(f) {
			out = append(out, f)
		}
	}
	return out, nil
}

// Download saves one file into dir and returns its local path and metadata.
func (d *Downloader) Download(ctx context.Context, fileID, dir string) (string, *File, error) {
	if dir == "" {
		return "", nil, fmt.Errorf("download dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, fmt.Errorf("failed to create download dir: %w", err)
	}

	file, err := d.source.GetFile(ctx, fileID)
	if err != nil {
		return "", nil, err
	}
	if !Importable(file) {
		return "", nil, fmt.Errorf("drive file %s (%s) is not a csv or xlsx export", file.Name, file.MimeType)
	}

	localPath := filepath.Join(dir, filepath.Base(file.LocalName()))
	out, err := os.Create(localPath)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create local file %s: %w", localPath, err)
	}
	if err := d.source.DownloadFile(ctx, file, out); err != nil {
		out.Close()
		_ = os.Remove(localPath)
		return "", nil, fmt.Errorf("failed to download %s: %w", file.Name, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(localPath)
		return "", nil, fmt.Errorf("failed to close %s: %w", localPath, err)
	}
	return localPath, file, nil
}
