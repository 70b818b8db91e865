// Package renderer turns a composed document into PDF or DOCX bytes.
package renderer

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/nikogura/academic-cv/pkg/compose"
	"github.com/nikogura/academic-cv/pkg/style"
)

// Format is an output document format.
type Format string

// Supported formats.
const (
	PDF  Format = "pdf"
	DOCX Format = "docx"
)

// ErrUnknownFormat is returned for formats other than pdf and docx.
var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat accepts pdf or docx in any case, with or without a leading dot.
func ParseFormat(s string) (f Format, err error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "pdf", "":
		f = PDF
	case "docx", "word":
		f = DOCX
	default:
		err = errors.Wrapf(ErrUnknownFormat, "%q", s)
	}
	return f, err
}

// MIMEType returns the content type for the format.
func (f Format) MIMEType() (mime string) {
	switch f {
	case DOCX:
		mime = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		mime = "application/pdf"
	}
	return mime
}

// Extension returns the file extension without a dot.
func (f Format) Extension() (ext string) {
	ext = string(f)
	return ext
}

// Renderer lays out a composed document with a style set.
// Instances are request-scoped.
type Renderer interface {
	Format() Format
	// SupportsPerPageDecoration reports whether headers and footers are drawn
	// by a per-page callback rather than emulated with document-level regions.
	SupportsPerPageDecoration() bool
	Render(doc compose.Document, set style.StyleSet) ([]byte, error)
}

// RenderError wraps a backend failure. No output accompanies it.
type RenderError struct {
	Format Format
	Err    error
}

func (e *RenderError) Error() (msg string) {
	msg = "render " + string(e.Format) + ": " + e.Err.Error()
	return msg
}

// Unwrap returns the backend error.
func (e *RenderError) Unwrap() (err error) {
	err = e.Err
	return err
}

// Cause supports github.com/pkg/errors.Cause.
func (e *RenderError) Cause() (err error) {
	err = e.Err
	return err
}

// Option configures a renderer.
type Option func(*options)

type options struct {
	clock func() time.Time
}

// WithClock sets the time source for the generation stamp and document metadata.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// New returns a fresh renderer for format.
func New(format Format, opts ...Option) (r Renderer, err error) {
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	switch format {
	case PDF:
		r = &PdfRenderer{now: o.clock}
	case DOCX:
		r = &DocxRenderer{now: o.clock}
	default:
		err = errors.Wrapf(ErrUnknownFormat, "%q", format)
	}
	return r, err
}

// fail wraps err as a RenderError unless it already is one.
func fail(format Format, err error) (out error) {
	var re *RenderError
	if errors.As(err, &re) {
		out = err
		return out
	}
	out = &RenderError{Format: format, Err: err}
	return out
}

// generatedStamp is the literal date printed on documents.
func generatedStamp(t time.Time) (stamp string) {
	stamp = "Generated on " + t.Format("2006-01-02")
	return stamp
}
