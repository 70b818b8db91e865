package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/nikogura/academic-cv/pkg/compose"
	"github.com/nikogura/academic-cv/pkg/cvgen"
	"github.com/nikogura/academic-cv/pkg/ledger"
	"github.com/nikogura/academic-cv/pkg/records"
	"github.com/nikogura/academic-cv/pkg/renderer"
	"github.com/nikogura/academic-cv/pkg/sections"
	"github.com/nikogura/academic-cv/pkg/storage"
	"github.com/nikogura/academic-cv/pkg/style"
)

const maxBodyBytes = 64 << 10

// Deps are the collaborators a Handler needs. Store and Ledger are only used
// when a request asks for the document to be kept.
type Deps struct {
	Generator       *cvgen.Generator
	Provider        records.Provider
	Catalog         *style.Catalog
	Store           storage.Store
	Ledger          ledger.Ledger
	Logger          *slog.Logger
	DefaultTemplate string
}

// Handler wires CV endpoints to the generation pipeline.
type Handler struct {
	Deps
}

// NewHandler constructs a handler with its dependencies.
func NewHandler(deps Deps) (h *Handler) {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if deps.Ledger == nil {
		deps.Ledger = ledger.Nop{}
	}
	h = &Handler{Deps: deps}
	return h
}

// Register mounts CV endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/sections", h.HandleSections)
	r.Get("/templates", h.HandleTemplates)
	r.Post("/profiles/{profileID}/cv", h.HandleGenerate)
	r.Get("/profiles/{profileID}/cv/preview", h.HandlePreview)
}

// GenerateRequest is the body of POST /api/profiles/{profileID}/cv.
type GenerateRequest struct {
	Template string   `json:"template"`
	Format   string   `json:"format"`
	Sections []string `json:"sections"`
	Store    bool     `json:"store"`
}

// StoredResponse describes a document that was saved instead of streamed.
type StoredResponse struct {
	FileName string `json:"file_name"`
	Location string `json:"location"`
	MIMEType string   `json:"mime_type"`
	Pages    int      `json:"pages"`
	Skipped  []string `json:"skipped,omitempty"`
}

type templateResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// HandleSections handles GET /api/sections.
func (h *Handler) HandleSections(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, sections.Catalog())
}

// HandleTemplates handles GET /api/templates.
func (h *Handler) HandleTemplates(w http.ResponseWriter, _ *http.Request) {
	sets := h.Catalog.All()
	out := make([]templateResponse, 0, len(sets))
	for _, s := range sets {
		out = append(out, templateResponse{ID: s.ID, Name: s.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGenerate handles POST /api/profiles/{profileID}/cv.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := RequestID(ctx)
	profileID := chi.URLParam(r, "profileID")
	start := time.Now()

	var body GenerateRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body)
	if err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_request", "request body must be a JSON object")
		return
	}

	if body.Template == "" {
		body.Template = h.DefaultTemplate
	}

	req := cvgen.Request{
		ProfileID: profileID,
		Template:  body.Template,
		Format:    body.Format,
		Sections:  body.Sections,
	}

	result, err := h.Generator.GenerateForProfile(ctx, h.Provider, req)
	if err != nil {
		h.Logger.ErrorContext(ctx, "cv generation failed",
			"request_id", requestID,
			"profile_id", profileID,
			"template", req.Template,
			"format", req.Format,
			"error", err,
		)
		h.writeGenerateError(w, err)
		return
	}

	if body.Store {
		h.store(w, r, result)
		return
	}

	h.Logger.InfoContext(ctx, "cv generated",
		"request_id", requestID,
		"profile_id", profileID,
		"template", result.Template,
		"format", result.Format,
		"bytes", len(result.Data),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	w.Header().Set("Content-Type", result.MIMEType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": result.FileName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

func (h *Handler) store(w http.ResponseWriter, r *http.Request, result cvgen.Result) {
	ctx := r.Context()
	requestID := RequestID(ctx)
	profileID := chi.URLParam(r, "profileID")

	if h.Store == nil {
		writeError(w, http.StatusNotImplemented, "storage_unavailable", "document storage is not configured")
		return
	}

	location, err := h.Store.Save(ctx, result.StoragePath, result.Data, result.MIMEType)
	if err != nil {
		h.Logger.ErrorContext(ctx, "storing cv failed",
			"request_id", requestID,
			"profile_id", profileID,
			"path", result.StoragePath,
			"error", err,
		)
		if errors.Is(err, storage.ErrExists) {
			writeError(w, http.StatusConflict, "conflict", "a document with this name was already stored, retry shortly")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}

	err = h.Ledger.Record(ctx, ledger.Entry{
		ProfileID: profileID,
		FileName:  result.FileName,
		Location:  location,
		Template:  result.Template,
		Format:    string(result.Format),
		Sections:  idStrings(result.Sections),
		Pages:     result.Pages,
		Bytes:     len(result.Data),
	})
	if err != nil {
		// The document is already stored; a missing ledger row is not worth failing the request.
		h.Logger.WarnContext(ctx, "recording cv generation failed",
			"request_id", requestID,
			"profile_id", profileID,
			"location", location,
			"error", err,
		)
	}

	h.Logger.InfoContext(ctx, "cv stored",
		"request_id", requestID,
		"profile_id", profileID,
		"location", location,
	)

	writeJSON(w, http.StatusCreated, StoredResponse{
		FileName: result.FileName,
		Location: location,
		MIMEType: result.MIMEType,
		Pages:    result.Pages,
		Skipped:  idStrings(result.Skipped),
	})
}

// HandlePreview handles GET /api/profiles/{profileID}/cv/preview. It returns
// the composed document as JSON without rendering it.
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profileID := chi.URLParam(r, "profileID")
	query := r.URL.Query()

	req := cvgen.Request{
		ProfileID: profileID,
		Template:  query.Get("template"),
		Sections:  splitList(query["sections"]),
	}
	if req.Template == "" {
		req.Template = h.DefaultTemplate
	}

	doc, err := h.Generator.PreviewForProfile(ctx, h.Provider, req)
	if err != nil {
		h.Logger.ErrorContext(ctx, "cv preview failed",
			"request_id", RequestID(ctx),
			"profile_id", profileID,
			"template", req.Template,
			"error", err,
		)
		h.writeGenerateError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// splitList flattens repeated and comma separated query values.
func splitList(values []string) (out []string) {
	for _, v := range values {
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

func idStrings(ids []sections.ID) (out []string) {
	for _, id := range ids {
		out = append(out, string(id))
	}
	return out
}

// writeGenerateError maps pipeline failures onto HTTP statuses.
func (h *Handler) writeGenerateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, records.ErrProfileNotFound), errors.Is(err, compose.ErrMissingProfile):
		writeError(w, http.StatusNotFound, "profile_not_found", "complete your profile first")
	case errors.Is(err, style.ErrUnknownTemplate):
		writeError(w, http.StatusBadRequest, "unknown_template", "template must be one of the values listed at /api/templates")
	case errors.Is(err, renderer.ErrUnknownFormat):
		writeError(w, http.StatusBadRequest, "unknown_format", "format must be pdf or docx")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "")
	}
}
