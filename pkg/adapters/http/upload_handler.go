// Copyright CSV Chart Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/halejandromedinag15-gif/Proyecto1final/pkg/chartimage"
	"github.com/halejandromedinag15-gif/Proyecto1final/pkg/core/chart"
	"github.com/halejandromedinag15-gif/Proyecto1final/pkg/filestore"
)

// extractionFailedMessage is shown for every extraction failure.
const extractionFailedMessage = "Error processing the CSV file. Check its format."

// multipart parts above this size spill to temporary files
const maxMemory = 8 << 20

type visualizationView struct {
	Chart    *chart.Data
	Filename string
	Image    template.URL
}

// handleIndex handles GET / and GET /index
func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.renderHTML(w, r, "index.html", map[string]any{
		"Accept": acceptAttr(h.opts.AllowedExtensions),
	})
}

// handleUpload handles POST /upload
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	logger := h.log(r)
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxBytes)

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.Warn("Upload too large", "limit", tooLarge.Limit)
			http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
			return
		}
		logger.Info("Rejecting upload without multipart form", "error", err)
		h.redirectToIndex(w, r)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		logger.Info("Rejecting upload without file", "error", err)
		h.redirectToIndex(w, r)
		return
	}
	defer file.Close()

	if header.Filename == "" || !h.allowedFile(header.Filename) {
		logger.Info("Rejecting upload with disallowed filename", "filename", header.Filename)
		h.redirectToIndex(w, r)
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		logger.Error("Failed to read file content", "error", err)
		http.Error(w, "Failed to read upload", http.StatusInternalServerError)
		return
	}

	upload := &filestore.Upload{
		Name:      h.opts.SlotName,
		Filename:  header.Filename,
		MimeType:  header.Header.Get("Content-Type"),
		Bytes:     int64(len(content)),
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := h.store.Save(r.Context(), upload); err != nil {
		logger.Error("Failed to save upload", "error", err)
		http.Error(w, "Failed to store upload", http.StatusInternalServerError)
		return
	}

	logger.Info("File uploaded", "slot", upload.Name, "filename", upload.Filename, "bytes", upload.Bytes)

	data, err := h.extractSlot(r.Context(), upload.Name)
	if err != nil {
		logger.Error("Failed to process upload", "filename", upload.Filename, "error", err)
		http.Error(w, extractionFailedMessage, http.StatusInternalServerError)
		return
	}

	view := visualizationView{
		Chart:    data,
		Filename: upload.Filename,
	}
	if !h.opts.DisableImage {
		if encoded, err := chartimage.RenderBase64(data, h.opts.Image); err == nil {
			view.Image = template.URL("data:image/png;base64," + encoded)
		} else {
			logger.Debug("Skipping chart image", "error", err)
		}
	}

	h.renderHTML(w, r, "visualization.html", view)
}

// handleGetChart handles GET /api/chart
func (h *Handler) handleGetChart(w http.ResponseWriter, r *http.Request) {
	data, err := h.extractSlot(r.Context(), h.opts.SlotName)
	if err != nil {
		if errors.Is(err, filestore.ErrFileNotFound) {
			h.writeError(w, http.StatusNotFound, "not_found", "No file has been uploaded")
			return
		}
		h.log(r).Error("Failed to extract chart data", "error", err)
		h.writeError(w, http.StatusInternalServerError, "extraction_error", extractionFailedMessage)
		return
	}
	h.writeJSON(w, http.StatusOK, data)
}

// handleChartImage handles GET /chart.png
func (h *Handler) handleChartImage(w http.ResponseWriter, r *http.Request) {
	data, err := h.extractSlot(r.Context(), h.opts.SlotName)
	if err != nil {
		if errors.Is(err, filestore.ErrFileNotFound) {
			http.Error(w, "No file has been uploaded", http.StatusNotFound)
			return
		}
		h.log(r).Error("Failed to extract chart data", "error", err)
		http.Error(w, extractionFailedMessage, http.StatusInternalServerError)
		return
	}

	png, err := chartimage.Render(data, h.opts.Image)
	if err != nil {
		if errors.Is(err, chartimage.ErrNonNumeric) || errors.Is(err, chartimage.ErrNoData) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		h.log(r).Error("Failed to render chart", "error", err)
		http.Error(w, "Failed to render chart", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// extractSlot runs the extractor over the slot's current content. Stores that
// keep the slot on local disk hand the path over directly.
func (h *Handler) extractSlot(ctx context.Context, name string) (*chart.Data, error) {
	if _, err := h.store.Get(ctx, name); err != nil {
		return nil, err
	}

	if loc, ok := h.store.(filestore.Locator); ok {
		path, err := loc.Path(name)
		if err != nil {
			return nil, err
		}
		return h.extractor.Extract(path)
	}

	content, err := h.store.Content(ctx, name)
	if err != nil {
		return nil, err
	}
	return h.extractor.ExtractFrom(bytes.NewReader(content))
}

// allowedFile checks the extension after the last dot, case-insensitively.
func (h *Handler) allowedFile(filename string) bool {
	dot := strings.LastIndex(filename, ".")
	if dot < 0 {
		return false
	}
	ext := strings.ToLower(filename[dot+1:])
	for _, allowed := range h.opts.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func (h *Handler) redirectToIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusFound)
}

func acceptAttr(exts []string) string {
	parts := make([]string, len(exts))
	for i, ext := range exts {
		parts[i] = "." + ext
	}
	return strings.Join(parts, ",")
}
