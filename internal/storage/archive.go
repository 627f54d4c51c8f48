package storage

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/andresuchdata/rxflow/internal/domain"
)

// Archive keeps a copy of every uploaded export so it can be replayed later.
type Archive struct {
	store  ObjectStorage
	prefix string
	now    func() time.Time
}

func NewArchive(store ObjectStorage, prefix string) *Archive {
	return &Archive{store: store, prefix: strings.Trim(prefix, "/"), now: time.Now}
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Key renders <prefix>/<family>/<yyyy>/<mm>/<dd>/<unix-nanos>-<name>.
func (a *Archive) Key(family domain.Family, filename string) string {
	now := a.now().UTC()
	name := unsafeKeyChars.ReplaceAllString(filepath.Base(filename), "_")
	return path.Join(a.prefix, family.String(), now.Format("2006/01/02"), fmt.Sprintf("%d-%s", now.UnixNano(), name))
}

// Store uploads srcPath and returns the object key.
func (a *Archive) Store(ctx context.Context, family domain.Family, filename, srcPath string) (string, error) {
	key := a.Key(family, filename)
	if err := a.store.UploadFile(ctx, key, srcPath); err != nil {
		return "", err
	}
	return key, nil
}

// Fetch downloads key into dir, keeping the original extension so the reader
// can pick a format.
func (a *Archive) Fetch(ctx context.Context, key, dir string) (string, error) {
	dest := filepath.Join(dir, path.Base(key))
	if err := a.store.DownloadObject(ctx, key, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// List returns the archived objects of a family, or of every family when
// family is empty.
func (a *Archive) List(ctx context.Context, family domain.Family) ([]ObjectInfo, error) {
	prefix := a.prefix + "/"
	if family != "" {
		prefix += family.String() + "/"
	}
	return a.store.ListObjects(ctx, prefix)
}

// FamilyOfKey recovers the family segment of an archive key.
func (a *Archive) FamilyOfKey(key string) (domain.Family, bool) {
	rest := strings.TrimPrefix(key, a.prefix+"/")
	seg, _, _ := strings.Cut(rest, "/")
	return domain.ParseFamily(seg)
}
