// Package cvgen runs one CV generation request from records to a named file.
package cvgen

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nikogura/academic-cv/pkg/compose"
	"github.com/nikogura/academic-cv/pkg/metrics"
	"github.com/nikogura/academic-cv/pkg/naming"
	"github.com/nikogura/academic-cv/pkg/records"
	"github.com/nikogura/academic-cv/pkg/renderer"
	"github.com/nikogura/academic-cv/pkg/sections"
	"github.com/nikogura/academic-cv/pkg/style"
)

const tracerName = "github.com/nikogura/academic-cv/pkg/cvgen"

// unknownLabel stands in for unresolved request values.
const unknownLabel = "unknown"

// Request is one user action. It is consumed once and never stored.
type Request struct {
	ProfileID string   `json:"profile_id"`
	Template  string   `json:"template"`
	Format    string   `json:"format"`
	Sections  []string `json:"sections,omitempty"`
}

// Result is a rendered document ready to hand to the user.
type Result struct {
	Data        []byte
	FileName    string
	StoragePath string
	MIMEType    string
	Template    string
	Format      renderer.Format
	Sections    []sections.ID
	// Skipped lists explicitly requested sections that had no records.
	Skipped []sections.ID
	// Pages is zero for DOCX, which has no fixed pagination.
	Pages int
}

// Generator is safe for concurrent use. Composers and renderers are created per call.
type Generator struct {
	catalog  *style.Catalog
	fallback bool
	clock    func() time.Time
	tracer   trace.Tracer
	metrics  *metrics.Metrics
}

// Option configures a Generator.
type Option func(*Generator)

// WithTemplateFallback renders unknown templates with the institutional style instead of failing.
func WithTemplateFallback(enabled bool) Option {
	return func(g *Generator) {
		g.fallback = enabled
	}
}

// WithClock sets the time source used for stamps and metadata.
func WithClock(clock func() time.Time) Option {
	return func(g *Generator) {
		g.clock = clock
	}
}

// WithTracer overrides the global tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(g *Generator) {
		g.tracer = tracer
	}
}

// WithMetrics records generation metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Generator) {
		g.metrics = m
	}
}

// New returns a Generator over catalog.
func New(catalog *style.Catalog, opts ...Option) (g *Generator) {
	g = &Generator{
		catalog: catalog,
		clock:   time.Now,
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateForProfile loads the profile's records through provider, then generates.
func (g *Generator) GenerateForProfile(ctx context.Context, provider records.Provider, req Request) (result Result, err error) {
	bundle, err := provider.Bundle(ctx, req.ProfileID)
	if err != nil {
		g.metrics.IncrementGeneration(unknownLabel, unknownLabel, outcome(err))
		err = errors.Wrapf(err, "failed to load records for profile %q", req.ProfileID)
		return result, err
	}

	result, err = g.Generate(ctx, req, bundle)
	return result, err
}

// Generate renders bundle according to req.
func (g *Generator) Generate(ctx context.Context, req Request, bundle records.Bundle) (result Result, err error) {
	ctx, span := g.tracer.Start(ctx, "cvgen.Generate", trace.WithAttributes(
		attribute.String("cv.profile_id", req.ProfileID),
		attribute.String("cv.template", req.Template),
		attribute.String("cv.format", req.Format),
	))
	templateLabel, formatLabel := unknownLabel, unknownLabel
	defer func() {
		g.metrics.IncrementGeneration(templateLabel, formatLabel, outcome(err))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	format, err := renderer.ParseFormat(req.Format)
	if err != nil {
		return result, err
	}
	formatLabel = string(format)

	set, err := g.styleFor(req.Template)
	if err != nil {
		return result, err
	}
	templateLabel = set.ID

	ids := sections.Ensure(sections.Resolve(req.Sections), sections.PersonalData)

	doc, err := g.compose(ctx, bundle, ids, set)
	if err != nil {
		return result, err
	}

	data, err := g.render(ctx, format, doc, set)
	if err != nil {
		return result, err
	}

	if format == renderer.PDF {
		result.Pages, err = renderer.PageCount(data)
		if err != nil {
			err = &renderer.RenderError{Format: format, Err: err}
			return result, err
		}
		g.metrics.ObservePages(result.Pages)
	}

	result.Data = data
	result.Template = set.ID
	result.FileName = naming.Name(bundle.Profile, format)
	result.StoragePath = naming.StoragePath(bundle.Profile, format, g.clock())
	result.MIMEType = format.MIMEType()
	result.Format = format
	result.Sections = doc.SectionIDs()
	if len(req.Sections) > 0 {
		result.Skipped = doc.Empty
	}

	return result, err
}

// PreviewForProfile loads the profile's records through provider, then previews.
func (g *Generator) PreviewForProfile(ctx context.Context, provider records.Provider, req Request) (doc compose.Document, err error) {
	bundle, err := provider.Bundle(ctx, req.ProfileID)
	if err != nil {
		err = errors.Wrapf(err, "failed to load records for profile %q", req.ProfileID)
		return doc, err
	}

	doc, err = g.Preview(ctx, req, bundle)
	return doc, err
}

// Preview resolves and composes like Generate but stops before rendering.
// req.Format is ignored.
func (g *Generator) Preview(ctx context.Context, req Request, bundle records.Bundle) (doc compose.Document, err error) {
	ctx, span := g.tracer.Start(ctx, "cvgen.Preview", trace.WithAttributes(
		attribute.String("cv.profile_id", req.ProfileID),
		attribute.String("cv.template", req.Template),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	set, err := g.styleFor(req.Template)
	if err != nil {
		return doc, err
	}

	ids := sections.Ensure(sections.Resolve(req.Sections), sections.PersonalData)

	doc, err = g.compose(ctx, bundle, ids, set)
	return doc, err
}

func (g *Generator) styleFor(id string) (set style.StyleSet, err error) {
	if id == "" {
		set = g.catalog.Default()
		return set, err
	}

	set, err = g.catalog.Lookup(id)
	if err == nil || !g.fallback || !errors.Is(err, style.ErrUnknownTemplate) {
		return set, err
	}

	set, err = g.catalog.Lookup(style.Institutional)
	if err != nil {
		set = g.catalog.Default()
		err = nil
	}
	return set, err
}

func (g *Generator) compose(ctx context.Context, bundle records.Bundle, ids []sections.ID, set style.StyleSet) (doc compose.Document, err error) {
	_, span := g.tracer.Start(ctx, "cvgen.compose")
	defer span.End()

	doc, err = compose.Compose(bundle.Profile, bundle, ids, compose.Options{
		Template:             set.ID,
		SplitCurrentPosition: set.Layout.SplitCurrentPosition,
	})
	span.SetAttributes(attribute.Int("cv.sections", len(doc.Sections)))
	return doc, err
}

func (g *Generator) render(ctx context.Context, format renderer.Format, doc compose.Document, set style.StyleSet) (data []byte, err error) {
	_, span := g.tracer.Start(ctx, "cvgen.render", trace.WithAttributes(attribute.String("cv.format", string(format))))
	defer span.End()

	r, err := renderer.New(format, renderer.WithClock(g.clock))
	if err != nil {
		return data, err
	}

	start := time.Now()
	data, err = r.Render(doc, set)
	g.metrics.ObserveRender(string(format), time.Since(start))
	if err != nil {
		data = nil
		return data, err
	}

	span.SetAttributes(attribute.Int("cv.bytes", len(data)))
	return data, err
}

// outcome classifies err for the generations counter.
func outcome(err error) (label string) {
	var re *renderer.RenderError
	switch {
	case err == nil:
		label = metrics.OutcomeSuccess
	case errors.Is(err, compose.ErrMissingProfile), errors.Is(err, records.ErrProfileNotFound):
		label = metrics.OutcomeMissingProfile
	case errors.Is(err, style.ErrUnknownTemplate), errors.Is(err, renderer.ErrUnknownFormat):
		label = metrics.OutcomeInvalidRequest
	case errors.As(err, &re):
		label = metrics.OutcomeRenderError
	default:
		label = metrics.OutcomeFailed
	}
	return label
}
