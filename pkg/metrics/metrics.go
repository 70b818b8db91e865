// Package metrics exposes Prometheus instruments for CV generation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeSuccess        = "success"
	OutcomeMissingProfile = "missing_profile"
	OutcomeInvalidRequest = "invalid_request"
	OutcomeRenderError    = "render_error"
	OutcomeFailed         = "failed"
)

// Metrics provides observability for document generation.
type Metrics struct {
	// Generations by template, format and outcome
	Generations *prometheus.CounterVec

	// Render latency by format
	RenderLatency *prometheus.HistogramVec

	// Pages per generated PDF
	Pages prometheus.Histogram
}

// New registers the generation metrics with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) (m *Metrics) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	m = &Metrics{
		Generations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "academic_cv_generations_total",
			Help: "Total CV generations by template, format and outcome",
		}, []string{"template", "format", "outcome"}),

		RenderLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "academic_cv_render_duration_seconds",
			Help:    "Duration of document rendering by format",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"format"}),

		Pages: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "academic_cv_document_pages",
			Help:    "Page count of generated PDF documents",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 34},
		}),
	}
	return m
}

// IncrementGeneration records a generation outcome.
func (m *Metrics) IncrementGeneration(template, format, outcome string) {
	if m != nil {
		m.Generations.WithLabelValues(template, format, outcome).Inc()
	}
}

// ObserveRender records how long a renderer took.
func (m *Metrics) ObserveRender(format string, d time.Duration) {
	if m != nil {
		m.RenderLatency.WithLabelValues(format).Observe(d.Seconds())
	}
}

// ObservePages records the page count of a PDF.
func (m *Metrics) ObservePages(pages int) {
	if m != nil && pages > 0 {
		m.Pages.Observe(float64(pages))
	}
}
