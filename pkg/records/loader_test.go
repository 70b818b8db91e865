package records

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
)

const sampleBundle = `{
  "profile": {"id": "p-1", "full_name": "Ana María López", "email": "ana@example.edu", "birth_date": "1980-04-12"},
  "educations": [
    {"level": "doctoral", "degree": "PhD in Physics", "institution": "UNAM", "country": "Mexico", "start_date": "2005-09", "end_date": "2010-06-30"}
  ],
  "employments": [
    {"title": "Researcher", "institution": "CINVESTAV", "start_date": "2011-01-01", "end_date": null}
  ],
  "publications": [
    {"title": "On Things", "authors": ["A. López"], "venue": "J. Phys.", "year": 2020}
  ],
  "books": [
    {"title": "A Book", "authors": ["A. López"], "year": 2019}
  ]
}`

func writeBundle(t *testing.T, dir, name, content string) (path string) {
	t.Helper()
	path = filepath.Join(dir, name)
	err := os.WriteFile(path, []byte(content), 0600)
	if err != nil {
		t.Fatalf("Failed to write test bundle: %v", err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeBundle(t, tmpDir, "bundle.json", sampleBundle)

	bundle, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load bundle: %v", err)
	}

	if bundle.Profile.FullName != "Ana María López" {
		t.Errorf("Expected full name 'Ana María López', got '%s'", bundle.Profile.FullName)
	}

	if len(bundle.Educations) != 1 {
		t.Fatalf("Expected 1 education record, got %d", len(bundle.Educations))
	}

	// Month precision dates decode to the first of the month.
	start := bundle.Educations[0].StartDate
	if !Known(start) || start.Month() != time.September || start.Day() != 1 {
		t.Errorf("Expected start date 2005-09-01, got %v", start)
	}

	// Null end dates stay unknown.
	if Known(bundle.Employments[0].EndDate) {
		t.Errorf("Expected open end date, got %v", bundle.Employments[0].EndDate)
	}

	// Kinds are defaulted per collection.
	if bundle.Publications[0].Kind != KindArticle {
		t.Errorf("Expected article kind, got '%s'", bundle.Publications[0].Kind)
	}
	if bundle.Books[0].Kind != KindBook {
		t.Errorf("Expected book kind, got '%s'", bundle.Books[0].Kind)
	}
}

func TestLoadFromURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleBundle))
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	bundle, err := LoadWithContext(ctx, server.URL)
	if err != nil {
		t.Fatalf("Failed to load bundle from URL: %v", err)
	}

	if bundle.Profile.ID != "p-1" {
		t.Errorf("Expected profile id 'p-1', got '%s'", bundle.Profile.ID)
	}
}

func TestLoadFromURLNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := Load(server.URL)
	if !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("Expected ErrProfileNotFound, got %v", err)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantError bool
	}{
		{
			name:      "valid bundle",
			input:     sampleBundle,
			wantError: false,
		},
		{
			name:      "missing profile",
			input:     `{"educations": []}`,
			wantError: true,
		},
		{
			name:      "profile without name or id",
			input:     `{"profile": {"email": "x@example.edu"}}`,
			wantError: true,
		},
		{
			name:      "profile with id only",
			input:     `{"profile": {"id": "42"}}`,
			wantError: false,
		},
		{
			name:      "bad date",
			input:     `{"profile": {"id": "42"}, "courses": [{"name": "Algebra", "start_date": "last spring"}]}`,
			wantError: true,
		},
		{
			name:      "empty date string",
			input:     `{"profile": {"id": "42"}, "courses": [{"name": "Algebra", "start_date": ""}]}`,
			wantError: false,
		},
		{
			name:      "malformed json",
			input:     `{"profile":`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input))
			if (err != nil) != tt.wantError {
				t.Errorf("Decode() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestLoadEmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeBundle(t, tmpDir, "empty.json", "")

	_, err := Load(path)
	if err == nil {
		t.Error("Expected error loading empty file, got nil")
	}
}

func TestFileProvider(t *testing.T) {
	tmpDir := t.TempDir()
	writeBundle(t, tmpDir, "p-1.json", sampleBundle)
	writeBundle(t, tmpDir, "anon.json", `{"profile": {"full_name": "Anon"}}`)

	provider := NewFileProvider(tmpDir)
	ctx := context.Background()

	bundle, err := provider.Bundle(ctx, "p-1")
	if err != nil {
		t.Fatalf("Failed to load bundle: %v", err)
	}
	if len(bundle.Employments) != 1 {
		t.Errorf("Expected 1 employment, got %d", len(bundle.Employments))
	}

	// The file name supplies a missing profile id.
	bundle, err = provider.Bundle(ctx, "anon")
	if err != nil {
		t.Fatalf("Failed to load bundle: %v", err)
	}
	if bundle.Profile.ID != "anon" {
		t.Errorf("Expected profile id 'anon', got '%s'", bundle.Profile.ID)
	}

	for _, id := range []string{"missing", "../p-1", ""} {
		_, err = provider.Bundle(ctx, id)
		if !errors.Is(err, ErrProfileNotFound) {
			t.Errorf("Expected ErrProfileNotFound for %q, got %v", id, err)
		}
	}
}
