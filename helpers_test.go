package html2pdf

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Fakes
// ---------------------------------------------------------------------------

// fakeRenderer writes a PDF header followed by the input bytes, so tests can
// tell which upload produced which output.
type fakeRenderer struct {
	err   error
	panic any

	mu    sync.Mutex
	calls []string
}

func (f *fakeRenderer) Render(_ context.Context, htmlPath, pdfPath string) error {
	f.mu.Lock()
	f.calls = append(f.calls, htmlPath)
	f.mu.Unlock()

	if f.panic != nil {
		panic(f.panic)
	}
	if f.err != nil {
		return f.err
	}
	html, err := os.ReadFile(htmlPath)
	if err != nil {
		return err
	}
	return os.WriteFile(pdfPath, append([]byte("%PDF-1.4\n"), html...), 0o600)
}

func (f *fakeRenderer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeInspector reports a fixed page count.
type fakeInspector struct {
	pages int
	err   error
}

func (f fakeInspector) PageCount(path string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	if _, err := os.Stat(path); err != nil {
		return 0, err
	}
	return f.pages, nil
}

// errReader fails every read.
type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

var errBoom = errors.New("boom")

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// newTestConverter builds a Converter with fakes under a fresh root.
func newTestConverter(t *testing.T, r Renderer, opts ...Option) (*Converter, string) {
	t.Helper()

	root := t.TempDir()
	all := append([]Option{
		WithRenderer(r),
		withInspector(fakeInspector{pages: 1}),
		WithLogger(discardLogger()),
	}, opts...)

	conv, err := NewConverter(root, all...)
	if err != nil {
		t.Fatalf("NewConverter: %v", err)
	}
	t.Cleanup(func() { _ = conv.Close() })
	return conv, root
}

// jobDirs lists the job directories currently under root.
func jobDirs(t *testing.T, root string) []string {
	t.Helper()

	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatalf("reading root: %v", err)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	return dirs
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}
