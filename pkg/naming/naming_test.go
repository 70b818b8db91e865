package naming

import (
	"testing"
	"time"

	"github.com/nikogura/academic-cv/pkg/records"
	"github.com/nikogura/academic-cv/pkg/renderer"
)

func TestName(t *testing.T) {
	tests := []struct {
		name    string
		profile *records.Profile
		format  renderer.Format
		want    string
	}{
		{
			name:    "full name with spaces",
			profile: &records.Profile{ID: "42", FullName: "Ana María López"},
			format:  renderer.PDF,
			want:    "CV_Ana_María_López.pdf",
		},
		{
			name:    "docx extension",
			profile: &records.Profile{ID: "42", FullName: "Ana López"},
			format:  renderer.DOCX,
			want:    "CV_Ana_López.docx",
		},
		{
			name:    "path unsafe characters removed",
			profile: &records.Profile{FullName: "../Evil/Name: <x>?"},
			format:  renderer.PDF,
			want:    "CV_EvilName_x.pdf",
		},
		{
			name:    "falls back to id",
			profile: &records.Profile{ID: "user 17", FullName: "   "},
			format:  renderer.PDF,
			want:    "CV_user_17.pdf",
		},
		{
			name:    "nothing usable",
			profile: &records.Profile{FullName: "///"},
			format:  renderer.PDF,
			want:    "CV.pdf",
		},
		{
			name:    "nil profile",
			profile: nil,
			format:  renderer.DOCX,
			want:    "CV.docx",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Name(tt.profile, tt.format)
			if got != tt.want {
				t.Errorf("Name() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNameIsDeterministic(t *testing.T) {
	p := &records.Profile{ID: "42", FullName: "Ana López"}
	if Name(p, renderer.PDF) != Name(p, renderer.PDF) {
		t.Error("Expected identical names for identical input")
	}
}

func TestStoragePath(t *testing.T) {
	at := time.Date(2024, time.March, 5, 10, 30, 15, 0, time.UTC)

	got := StoragePath(&records.Profile{ID: "42", FullName: "Ana López"}, renderer.PDF, at)
	want := "42/CV_Ana_López_20240305_103015.pdf"
	if got != want {
		t.Errorf("StoragePath() = %q, want %q", got, want)
	}

	got = StoragePath(&records.Profile{FullName: "Ana López"}, renderer.DOCX, at)
	want = "Ana_López/CV_Ana_López_20240305_103015.docx"
	if got != want {
		t.Errorf("StoragePath() = %q, want %q", got, want)
	}

	got = StoragePath(nil, renderer.PDF, at)
	want = "anonymous/CV_20240305_103015.pdf"
	if got != want {
		t.Errorf("StoragePath() = %q, want %q", got, want)
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "Simple", want: "Simple"},
		{input: "  two   spaces  ", want: "two_spaces"},
		{input: "tab\tand\nnewline", want: "tab_and_newline"},
		{input: ".hidden", want: "hidden"},
		{input: "a/b\\c", want: "abc"},
		{input: "José-Luis O.", want: "José-Luis_O."},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Sanitize(tt.input)
			if got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
