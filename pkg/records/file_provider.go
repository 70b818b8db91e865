package records

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// FileProvider serves bundles stored as <profileID>.json in a directory.
type FileProvider struct {
	Dir string
}

// NewFileProvider returns a provider rooted at dir.
func NewFileProvider(dir string) (p *FileProvider) {
	p = &FileProvider{Dir: dir}
	return p
}

// Bundle loads the bundle for profileID.
func (p *FileProvider) Bundle(ctx context.Context, profileID string) (bundle Bundle, err error) {
	if profileID == "" || strings.ContainsAny(profileID, `/\`) || strings.HasPrefix(profileID, ".") {
		err = errors.Wrapf(ErrProfileNotFound, "invalid profile id %q", profileID)
		return bundle, err
	}

	path := filepath.Join(p.Dir, profileID+".json")
	_, err = os.Stat(path)
	if os.IsNotExist(err) {
		err = errors.Wrapf(ErrProfileNotFound, "no records for profile %s", profileID)
		return bundle, err
	}

	bundle, err = LoadWithContext(ctx, path)
	if err != nil {
		return bundle, err
	}

	if bundle.Profile.ID == "" {
		bundle.Profile.ID = profileID
	}

	return bundle, err
}
