// Copyright CSV Chart Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"

	"github.com/halejandromedinag15-gif/Proyecto1final/pkg/core/chart"
	"github.com/halejandromedinag15-gif/Proyecto1final/pkg/filestore"
	"github.com/halejandromedinag15-gif/Proyecto1final/pkg/filestore/filesystem"
	"github.com/halejandromedinag15-gif/Proyecto1final/pkg/filestore/memory"
	"github.com/halejandromedinag15-gif/Proyecto1final/pkg/observability/logging"
)

const fruitCSV = "fruit,count\napple,3\n,4\ncherry,5\n"

var fruitChart = &chart.Data{
	Labels: []string{"apple", "cherry"},
	Values: []string{"3", "5"},
	Title:  chart.DefaultTitle,
}

func newTestHandler(t *testing.T, store filestore.FileStore, opts Options) *Handler {
	t.Helper()
	if store == nil {
		store = memory.New()
	}
	return New(logging.Discard(), store, &chart.Extractor{}, opts)
}

// stores returns one store of each kind the handler treats differently.
func stores(t *testing.T) map[string]filestore.FileStore {
	t.Helper()
	fs, err := filesystem.New(t.TempDir())
	if err != nil {
		t.Fatalf("filesystem.New: %v", err)
	}
	return map[string]filestore.FileStore{
		"memory":     memory.New(),
		"filesystem": fs,
	}
}

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		part.Write([]byte(content))
	} else {
		mw.WriteField("note", "no file here")
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// findElement returns the first element with the given tag and id, or any id
// when id is empty.
func findElement(n *html.Node, tag, id string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag && (id == "" || attr(n, "id") == id) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag, id); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func parsePage(t *testing.T, body string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

// embeddedChart decodes the JSON chart payload from a visualization page.
func embeddedChart(t *testing.T, doc *html.Node) *chart.Data {
	t.Helper()
	script := findElement(doc, "script", "chart-data")
	if script == nil || script.FirstChild == nil {
		t.Fatal("visualization page has no chart-data script")
	}
	var data chart.Data
	if err := json.Unmarshal([]byte(script.FirstChild.Data), &data); err != nil {
		t.Fatalf("decode chart-data %q: %v", script.FirstChild.Data, err)
	}
	return &data
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t, nil, Options{})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %q, want healthy", body["status"])
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("missing X-Request-Id header")
	}
}

func TestRequestID_Propagated(t *testing.T) {
	h := newTestHandler(t, nil, Options{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rec := serve(h, req)

	if got := rec.Header().Get("X-Request-Id"); got != "req-123" {
		t.Errorf("X-Request-Id = %q, want req-123", got)
	}
}

func TestIndex(t *testing.T) {
	h := newTestHandler(t, nil, Options{})

	for _, path := range []string{"/", "/index"} {
		t.Run(path, func(t *testing.T) {
			rec := serve(h, httptest.NewRequest(http.MethodGet, path, nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
				t.Errorf("Content-Type = %q", ct)
			}

			doc := parsePage(t, rec.Body.String())
			form := findElement(doc, "form", "upload-form")
			if form == nil {
				t.Fatal("index page has no upload form")
			}
			if attr(form, "action") != "/upload" || attr(form, "enctype") != "multipart/form-data" {
				t.Errorf("unexpected form attributes: %v", form.Attr)
			}
			input := findElement(form, "input", "")
			if input == nil || attr(input, "name") != "file" {
				t.Fatal("form has no file input named \"file\"")
			}
			if got := attr(input, "accept"); got != ".csv" {
				t.Errorf("accept = %q, want .csv", got)
			}
		})
	}
}

func TestIndex_UnknownPath(t *testing.T) {
	h := newTestHandler(t, nil, Options{})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestUpload_RendersChart(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			h := newTestHandler(t, store, Options{})

			rec := serve(h, uploadRequest(t, "fruit.csv", fruitCSV))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200; body %q", rec.Code, rec.Body.String())
			}

			doc := parsePage(t, rec.Body.String())
			if diff := cmp.Diff(fruitChart, embeddedChart(t, doc)); diff != "" {
				t.Errorf("chart data mismatch (-want +got):\n%s", diff)
			}

			img := findElement(doc, "img", "chart-image")
			if img == nil {
				t.Fatal("expected a static chart image")
			}
			if src := attr(img, "src"); !strings.HasPrefix(src, "data:image/png;base64,") {
				t.Errorf("image src = %.40q", src)
			}

			upload, err := store.Get(context.Background(), "uploaded_data.csv")
			if err != nil {
				t.Fatalf("slot not stored: %v", err)
			}
			if upload.Filename != "fruit.csv" || upload.Bytes != int64(len(fruitCSV)) {
				t.Errorf("unexpected stored metadata: %+v", upload)
			}
		})
	}
}

func TestUpload_CustomSlotAndExtensions(t *testing.T) {
	store := memory.New()
	h := newTestHandler(t, store, Options{SlotName: "latest.csv", AllowedExtensions: []string{"csv", "txt"}})

	rec := serve(h, uploadRequest(t, "NOTES.TXT", "a,b\nx,1\n"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if _, err := store.Get(context.Background(), "latest.csv"); err != nil {
		t.Errorf("upload not stored under custom slot: %v", err)
	}
}

func TestUpload_DisableImage(t *testing.T) {
	h := newTestHandler(t, nil, Options{DisableImage: true})

	rec := serve(h, uploadRequest(t, "fruit.csv", fruitCSV))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if img := findElement(parsePage(t, rec.Body.String()), "img", "chart-image"); img != nil {
		t.Error("image rendered although disabled")
	}
}

func TestUpload_NonNumericValuesSkipImage(t *testing.T) {
	h := newTestHandler(t, nil, Options{})

	rec := serve(h, uploadRequest(t, "levels.csv", "name,level\nalpha,high\nbeta,low\n"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	doc := parsePage(t, rec.Body.String())
	if img := findElement(doc, "img", "chart-image"); img != nil {
		t.Error("image rendered for non-numeric values")
	}
	want := &chart.Data{Labels: []string{"alpha", "beta"}, Values: []string{"high", "low"}, Title: chart.DefaultTitle}
	if diff := cmp.Diff(want, embeddedChart(t, doc)); diff != "" {
		t.Errorf("chart data mismatch (-want +got):\n%s", diff)
	}
}

func TestUpload_Redirects(t *testing.T) {
	tests := []struct {
		name string
		req  func(t *testing.T) *http.Request
	}{
		{"no file part", func(t *testing.T) *http.Request { return uploadRequest(t, "", "") }},
		{"disallowed extension", func(t *testing.T) *http.Request { return uploadRequest(t, "data.txt", fruitCSV) }},
		{"no extension", func(t *testing.T) *http.Request { return uploadRequest(t, "csv", fruitCSV) }},
		{"not multipart", func(t *testing.T) *http.Request {
			req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("file=x"))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			return req
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New()
			h := newTestHandler(t, store, Options{})

			rec := serve(h, tt.req(t))
			if rec.Code != http.StatusFound {
				t.Fatalf("status = %d, want 302", rec.Code)
			}
			if loc := rec.Header().Get("Location"); loc != "/" {
				t.Errorf("Location = %q, want /", loc)
			}
			if _, err := store.Get(context.Background(), "uploaded_data.csv"); err == nil {
				t.Error("rejected upload was stored")
			}
		})
	}
}

func TestUpload_ExtractionFailure(t *testing.T) {
	inputs := map[string]string{
		"empty":        "",
		"one column":   "only\n1\n2\n",
		"row too long": "a,b\n1,2,3\n",
	}

	for name, content := range inputs {
		t.Run(name, func(t *testing.T) {
			h := newTestHandler(t, nil, Options{})

			rec := serve(h, uploadRequest(t, "bad.csv", content))
			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d, want 500", rec.Code)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != extractionFailedMessage {
				t.Errorf("body = %q, want %q", got, extractionFailedMessage)
			}
		})
	}
}

func TestUpload_TooLarge(t *testing.T) {
	h := newTestHandler(t, nil, Options{MaxBytes: 256})

	rec := serve(h, uploadRequest(t, "big.csv", strings.Repeat("label,1\n", 512)))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestUpload_OverwritesSlot(t *testing.T) {
	h := newTestHandler(t, nil, Options{})

	serve(h, uploadRequest(t, "first.csv", fruitCSV))
	rec := serve(h, uploadRequest(t, "second.csv", "city,pop\nLima,10\n"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/chart", nil))
	var got chart.Data
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	want := chart.Data{Labels: []string{"Lima"}, Values: []string{"10"}, Title: chart.DefaultTitle}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("chart data mismatch (-want +got):\n%s", diff)
	}
}

func TestGetChart(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			h := newTestHandler(t, store, Options{})

			rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/chart", nil))
			if rec.Code != http.StatusNotFound {
				t.Fatalf("before upload: status = %d, want 404", rec.Code)
			}

			serve(h, uploadRequest(t, "fruit.csv", fruitCSV))

			rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/chart", nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			var got chart.Data
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if diff := cmp.Diff(*fruitChart, got); diff != "" {
				t.Errorf("chart data mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGetChart_ExtractionFailure(t *testing.T) {
	store := memory.New()
	err := store.Save(context.Background(), &filestore.Upload{
		Name:      "uploaded_data.csv",
		Content:   []byte("single\n"),
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	h := newTestHandler(t, store, Options{})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/chart", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error.Type != "extraction_error" || body.Error.Message != extractionFailedMessage {
		t.Errorf("unexpected error body: %+v", body.Error)
	}
}

func TestChartImage(t *testing.T) {
	h := newTestHandler(t, nil, Options{})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/chart.png", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("before upload: status = %d, want 404", rec.Code)
	}

	serve(h, uploadRequest(t, "fruit.csv", fruitCSV))

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/chart.png", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("body is not a PNG")
	}
}

func TestChartImage_Unprocessable(t *testing.T) {
	tests := map[string]string{
		"non-numeric": "name,level\nalpha,high\n",
		"no rows":     "name,level\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			h := newTestHandler(t, nil, Options{})
			serve(h, uploadRequest(t, "data.csv", content))

			rec := serve(h, httptest.NewRequest(http.MethodGet, "/chart.png", nil))
			if rec.Code != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want 422", rec.Code)
			}
		})
	}
}

func TestAllowedFile(t *testing.T) {
	h := newTestHandler(t, nil, Options{})

	tests := []struct {
		filename string
		want     bool
	}{
		{"data.csv", true},
		{"DATA.CSV", true},
		{"archive.tar.csv", true},
		{".csv", true},
		{"data.csv.txt", false},
		{"data.", false},
		{"csv", false},
	}
	for _, tt := range tests {
		if got := h.allowedFile(tt.filename); got != tt.want {
			t.Errorf("allowedFile(%q) = %v, want %v", tt.filename, got, tt.want)
		}
	}
}
