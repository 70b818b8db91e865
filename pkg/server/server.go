// Package server exposes CV generation over HTTP.
package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RequestIDHeader carries the request ID in and out.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// New builds an HTTP server with sane defaults for this project.
func New(addr string, handler http.Handler) (srv *http.Server) {
	srv = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		// Rendering is synchronous, so the write timeout bounds a whole generation.
		WriteTimeout: 60 * time.Second,
	}
	return srv
}

// NewRouter mounts h and the operational endpoints. A nil gatherer serves the default registry.
func NewRouter(h *Handler, gatherer prometheus.Gatherer) (router chi.Router) {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	router = chi.NewRouter()
	router.Use(requestID)
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	router.Route("/api", h.Register)

	return router
}

// RequestID returns the ID assigned to the request in ctx.
func RequestID(ctx context.Context) (id string) {
	id, _ = ctx.Value(requestIDKey{}).(string)
	return id
}

// requestID reuses a caller-supplied ID or assigns a new one.
func requestID(next http.Handler) (wrapped http.Handler) {
	wrapped = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
	return wrapped
}

// NewLogger returns the JSON logger used by the server.
func NewLogger(w io.Writer, level slog.Level) (logger *slog.Logger) {
	logger = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	return logger
}
