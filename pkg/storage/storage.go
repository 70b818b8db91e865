// Package storage keeps generated documents on local disk or in Cloud Storage.
package storage

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/nikogura/academic-cv/pkg/config"
	"github.com/nikogura/academic-cv/pkg/renderer"
)

// ErrExists is returned when a document is already stored under the name.
var ErrExists = errors.New("document already stored")

// ErrInvalidName rejects names that are empty or escape the store root.
var ErrInvalidName = errors.New("invalid storage name")

// Store saves a finished document and reports where it went.
type Store interface {
	Save(ctx context.Context, name string, data []byte, contentType string) (location string, err error)
}

// New returns the store selected by cfg. The caller closes GCS-backed stores.
func New(ctx context.Context, cfg config.StorageConfig) (store Store, err error) {
	switch cfg.Backend {
	case config.BackendLocal, "":
		store = NewLocalStore(cfg.Dir)
	case config.BackendGCS:
		store, err = NewGCSStore(ctx, cfg.Bucket)
	default:
		err = errors.Errorf("unknown storage backend %q", cfg.Backend)
	}
	return store, err
}

// cleanName normalizes a slash-separated object name and rejects ones that climb out of the root.
func cleanName(name string) (clean string, err error) {
	slashed := strings.ReplaceAll(name, "\\", "/")
	for _, segment := range strings.Split(slashed, "/") {
		if segment == ".." {
			err = errors.Wrapf(ErrInvalidName, "%q", name)
			return clean, err
		}
	}

	clean = strings.TrimPrefix(path.Clean("/"+slashed), "/")
	if clean == "" {
		err = errors.Wrapf(ErrInvalidName, "%q", name)
	}
	return clean, err
}

// LocalStore writes documents under a directory.
type LocalStore struct {
	Dir string
}

// NewLocalStore returns a store rooted at dir.
func NewLocalStore(dir string) (s *LocalStore) {
	s = &LocalStore{Dir: dir}
	return s
}

// Save writes data atomically to Dir/name. Existing files are never overwritten.
func (s *LocalStore) Save(_ context.Context, name string, data []byte, _ string) (location string, err error) {
	clean, err := cleanName(name)
	if err != nil {
		return location, err
	}

	location = filepath.Join(s.Dir, filepath.FromSlash(clean))

	err = renderer.WriteFileExclusive(data, location)
	if errors.Is(err, os.ErrExist) {
		err = errors.Wrapf(ErrExists, "%s", location)
	}
	if err != nil {
		location = ""
		return location, err
	}

	return location, err
}
