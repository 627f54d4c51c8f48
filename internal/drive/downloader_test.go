package drive

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakeSource struct {
	files   map[string]*File
	content map[string]string
}

func (f *fakeSource) ListFiles(ctx context.Context, folderID string) ([]*File, error) {
	var out []*File
	for _, id := range []string{"1", "2", "3"} {
		if file, ok := f.files[id]; ok {
			out = append(out, file)
		}
	}
	return out, nil
}

func (f *fakeSource) GetFile(ctx context.Context, fileID string) (*File, error) {
	file, ok := f.files[fileID]
	if !ok {
		return nil, errors.New("not found")
	}
	return file, nil
}

func (f *fakeSource) DownloadFile(ctx context.Context, file *File, w io.Writer) error {
	_, err := io.Copy(w, strings.NewReader(f.content[file.ID]))
	return err
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		files: map[string]*File{
			"1": {ID: "1", Name: "production.csv", MimeType: "text/csv"},
			"2": {ID: "2", Name: "Usage March", MimeType: sheetMimeType},
			"3": {ID: "3", Name: "notes.pdf", MimeType: "application/pdf"},
		},
		content: map[string]string{"1": "EntryDate,8:00\n45000,2\n", "2": "xlsx-bytes"},
	}
}

func TestListImportable(t *testing.T) {
	d := NewDownloader(newFakeSource())
	files, err := d.ListImportable(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 || files[0].ID != "1" || files[1].ID != "2" {
		t.Fatalf("unexpected importable files %+v", files)
	}
}

func TestDownload(t *testing.T) {
	d := NewDownloader(newFakeSource())
	dir := t.TempDir()

	path, file, err := d.Download(context.Background(), "1", dir)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if file.Name != "production.csv" || filepath.Base(path) != "production.csv" {
		t.Fatalf("unexpected file %s / %+v", path, file)
	}
	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "EntryDate") {
		t.Fatalf("unexpected content %q", data)
	}

	path, _, err = d.Download(context.Background(), "2", dir)
	if err != nil {
		t.Fatalf("Download sheet: %v", err)
	}
	if filepath.Base(path) != "Usage March.xlsx" {
		t.Fatalf("native sheet saved as %s", path)
	}

	if _, _, err := d.Download(context.Background(), "3", dir); err == nil {
		t.Fatal("expected pdf to be rejected")
	}
}
