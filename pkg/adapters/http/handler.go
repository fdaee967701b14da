// Copyright CSV Chart Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/google/uuid"

	"github.com/halejandromedinag15-gif/Proyecto1final/pkg/chartimage"
	"github.com/halejandromedinag15-gif/Proyecto1final/pkg/core/chart"
	"github.com/halejandromedinag15-gif/Proyecto1final/pkg/filestore"
	"github.com/halejandromedinag15-gif/Proyecto1final/pkg/observability/logging"
)

//go:embed templates/*.html
var templateFS embed.FS

// Options configures the upload boundary.
type Options struct {
	SlotName          string   // every upload overwrites this slot
	AllowedExtensions []string // lower-case, without the dot
	MaxBytes          int64
	DisableImage      bool
	Image             chartimage.Options
}

// Handler implements the HTTP adapter
type Handler struct {
	logger    *logging.Logger
	mux       *http.ServeMux
	store     filestore.FileStore
	extractor *chart.Extractor
	opts      Options
	templates *template.Template
}

type requestIDKey struct{}

// New creates a new HTTP handler
func New(logger *logging.Logger, store filestore.FileStore, extractor *chart.Extractor, opts Options) *Handler {
	if opts.SlotName == "" {
		opts.SlotName = "uploaded_data.csv"
	}
	if len(opts.AllowedExtensions) == 0 {
		opts.AllowedExtensions = []string{"csv"}
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 16 << 20
	}

	h := &Handler{
		logger:    logger,
		mux:       http.NewServeMux(),
		store:     store,
		extractor: extractor,
		opts:      opts,
		templates: template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}

	// Register routes
	h.mux.HandleFunc("GET /health", h.handleHealth)

	h.mux.HandleFunc("GET /{$}", h.handleIndex)
	h.mux.HandleFunc("GET /index", h.handleIndex)
	h.mux.HandleFunc("POST /upload", h.handleUpload)

	h.mux.HandleFunc("GET /api/chart", h.handleGetChart)
	h.mux.HandleFunc("GET /chart.png", h.handleChartImage)

	return h
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get("X-Request-Id")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set("X-Request-Id", requestID)

	h.logger.Info("Request",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
		"request_id", requestID)

	ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
	h.mux.ServeHTTP(w, r.WithContext(ctx))
}

// log returns the handler logger tagged with the request ID.
func (h *Handler) log(r *http.Request) *logging.Logger {
	if id, ok := r.Context().Value(requestIDKey{}).(string); ok {
		return h.logger.With("request_id", id)
	}
	return h.logger
}

// handleHealth handles health check requests
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// renderHTML executes a template into a buffer first so a template error
// still produces a clean 500.
func (h *Handler) renderHTML(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.log(r).Error("Failed to render template", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, errType, message string) {
	h.writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"type":    errType,
			"message": message,
		},
	})
}
