package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/nikogura/academic-cv/pkg/config"
	"github.com/nikogura/academic-cv/pkg/naming"
	"github.com/nikogura/academic-cv/pkg/records"
	"github.com/nikogura/academic-cv/pkg/renderer"
)

func TestLocalStoreSave(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir)

	location, err := store.Save(context.Background(), "42/CV_Ana_20240305_103000.pdf", []byte("%PDF"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "42", "CV_Ana_20240305_103000.pdf"), location)

	data, err := os.ReadFile(location)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), data)

	// No temporary files are left next to the document.
	entries, err := os.ReadDir(filepath.Join(dir, "42"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLocalStoreRefusesOverwrite(t *testing.T) {
	store := NewLocalStore(t.TempDir())

	_, err := store.Save(context.Background(), "a.pdf", []byte("one"), "application/pdf")
	require.NoError(t, err)

	location, err := store.Save(context.Background(), "a.pdf", []byte("two"), "application/pdf")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExists))
	assert.Empty(t, location)

	data, err := os.ReadFile(filepath.Join(store.Dir, "a.pdf"))
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), data)

	entries, err := os.ReadDir(store.Dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLocalStoreSavesGeneratedPaths(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir)
	profile := &records.Profile{ID: "42", FullName: "Juan P.. Smith"}

	name := naming.StoragePath(profile, renderer.PDF, time.Unix(0, 0).UTC())
	assert.Equal(t, "42/CV_Juan_P.._Smith_19700101_000000.pdf", name)

	location, err := store.Save(context.Background(), name, []byte("%PDF"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "42", "CV_Juan_P.._Smith_19700101_000000.pdf"), location)

	data, err := os.ReadFile(location)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), data)
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      string
		wantError bool
	}{
		{name: "plain", input: "a.pdf", want: "a.pdf"},
		{name: "nested", input: "42/CV.pdf", want: "42/CV.pdf"},
		{name: "leading slash", input: "/42/CV.pdf", want: "42/CV.pdf"},
		{name: "backslashes", input: `42\CV.pdf`, want: "42/CV.pdf"},
		{name: "climbs out", input: "../etc/passwd", wantError: true},
		{name: "climbs out mid path", input: "42/../../etc/passwd", wantError: true},
		{name: "climbs out with backslashes", input: `42\..\..\x.pdf`, wantError: true},
		{name: "double dots inside a name", input: "42/CV_Juan_P.._Smith.pdf", want: "42/CV_Juan_P.._Smith.pdf"},
		{name: "dot segments", input: "42/./CV.pdf", want: "42/CV.pdf"},
		{name: "root only", input: "/", wantError: true},
		{name: "empty", input: "", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cleanName(tt.input)
			if tt.wantError {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidName))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewLocal(t *testing.T) {
	dir := t.TempDir()

	store, err := New(context.Background(), config.StorageConfig{Backend: config.BackendLocal, Dir: dir})
	require.NoError(t, err)

	local, ok := store.(*LocalStore)
	require.True(t, ok)
	assert.Equal(t, dir, local.Dir)
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := New(context.Background(), config.StorageConfig{Backend: "ftp"})
	assert.Error(t, err)
}

func TestNewGCSRequiresBucket(t *testing.T) {
	_, err := NewGCSStore(context.Background(), "")
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	err := classify(&googleapi.Error{Code: 412, Message: "conditionNotMet"}, "42/CV.pdf")
	assert.True(t, errors.Is(err, ErrExists))

	err = classify(&googleapi.Error{Code: 500}, "42/CV.pdf")
	assert.False(t, errors.Is(err, ErrExists))
	assert.Contains(t, err.Error(), "failed to write to cloud storage")
}
