package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/alnah/go-html2pdf"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Fake converter
// ---------------------------------------------------------------------------

// fakeConverter runs real filename validation, workspace allocation and
// streaming ingestion, then writes a stub PDF instead of launching Chrome.
type fakeConverter struct {
	ws        *html2pdf.Workspaces
	ingest    *html2pdf.Ingestor
	renderErr error
	pages     int

	mu        sync.Mutex
	filenames []string
	released  []*html2pdf.Job
	discarded []*html2pdf.Job
}

var _ Converter = (*fakeConverter)(nil)

func newFakeConverter(t *testing.T, limit int64) *fakeConverter {
	t.Helper()

	ws := html2pdf.NewWorkspaces(t.TempDir())
	return &fakeConverter{ws: ws, ingest: html2pdf.NewIngestor(ws, limit), pages: 2}
}

func (f *fakeConverter) Convert(ctx context.Context, filename string, body io.Reader) (*html2pdf.Result, error) {
	f.mu.Lock()
	f.filenames = append(f.filenames, filename)
	f.mu.Unlock()

	if err := html2pdf.ValidateFilename(filename); err != nil {
		return nil, err
	}
	if err := f.ws.EnsureRoot(); err != nil {
		return nil, err
	}
	job, err := f.ws.Allocate()
	if err != nil {
		return nil, err
	}
	n, err := f.ingest.Ingest(ctx, body, job)
	if err != nil {
		return nil, err
	}
	if f.renderErr != nil {
		_ = f.ws.Destroy(job.Dir)
		return nil, f.renderErr
	}
	if err := os.WriteFile(job.OutputPath, []byte("%PDF-1.4 stub"), 0o600); err != nil {
		return nil, err
	}
	return &html2pdf.Result{Job: job, Size: n, Pages: f.pages}, nil
}

func (f *fakeConverter) Release(job *html2pdf.Job) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, job)
}

func (f *fakeConverter) Discard(job *html2pdf.Job) {
	f.mu.Lock()
	f.discarded = append(f.discarded, job)
	f.mu.Unlock()
	_ = f.ws.Destroy(job.Dir)
}

func (f *fakeConverter) MaxFileSize() int64 { return f.ingest.Limit() }

func (f *fakeConverter) Workspaces() *html2pdf.Workspaces { return f.ws }

func (f *fakeConverter) releasedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.released)
}

// jobCount returns the number of workspaces on disk.
func (f *fakeConverter) jobCount(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(f.ws.Root())
	if err != nil {
		if os.IsNotExist(err) {
			return 0
		}
		t.Fatal(err)
	}
	return len(entries)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newTestHandler(conv Converter) http.Handler {
	srv := New(conv, slog.New(slog.DiscardHandler), Options{
		AllowedOrigins: []string{"http://localhost:5173"},
	})
	return srv.Handler()
}

type formField struct {
	name, filename, content string
}

// multipartBody encodes fields; a non-empty filename makes a file part.
func multipartBody(t *testing.T, fields ...formField) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range fields {
		var (
			w   io.Writer
			err error
		)
		if f.filename != "" {
			w, err = mw.CreateFormFile(f.name, f.filename)
		} else {
			w, err = mw.CreateFormField(f.name)
		}
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.WriteString(w, f.content); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func postConvert(t *testing.T, h http.Handler, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/convert", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not a detail body: %q", rec.Body.String())
	}
	return body.Detail
}
