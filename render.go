package html2pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-html2pdf/internal/process"
)

// Renderer turns a local HTML file into a PDF file.
// Implementations must release every engine resource before returning.
type Renderer interface {
	Render(ctx context.Context, htmlPath, pdfPath string) error
}

// Compile-time interface checks
var (
	_ Renderer = (*rodRenderer)(nil)
	_ Renderer = (*limitedRenderer)(nil)
)

// DefaultRenderTimeout bounds a single render, launch included.
const DefaultRenderTimeout = 60 * time.Second

// browserProfileDir is created inside the job workspace so the browser
// profile is reclaimed together with the job.
const browserProfileDir = "browser-profile"

// RenderOptions configures the Chromium renderer.
type RenderOptions struct {
	Timeout    time.Duration
	Page       *PageSettings
	BrowserBin string // empty = rod's lookup/download
	NoSandbox  bool   // required in most containers
}

// rodRenderer implements Renderer with a fresh headless Chromium per call.
// Rod automatically downloads Chromium on first run if not found.
type rodRenderer struct {
	opts RenderOptions
}

// NewRodRenderer creates the production renderer.
func NewRodRenderer(opts RenderOptions) Renderer {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultRenderTimeout
	}
	if opts.Page == nil {
		opts.Page = DefaultPageSettings()
	}
	return &rodRenderer{opts: opts}
}

// Render launches Chromium, loads htmlPath through a file:// URL and prints
// it to pdfPath with backgrounds. Browser and process teardown run on every
// exit path; panics raised by the CDP client are converted to errors.
func (r *rodRenderer) Render(ctx context.Context, htmlPath, pdfPath string) (err error) {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRenderFailure, err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: browser panic: %v", ErrPDFGeneration, p)
		}
	}()

	l := r.newLauncher(filepath.Join(filepath.Dir(pdfPath), browserProfileDir)).Context(ctx)
	defer teardown(l)

	controlURL, err := l.Launch()
	if err != nil {
		return classify(ctx, ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return classify(ctx, ErrBrowserConnect, err)
	}
	defer func() { _ = browser.Close() }()

	page, err := browser.Page(proto.TargetCreateTarget{URL: fileURL(htmlPath)})
	if err != nil {
		return classify(ctx, ErrPageCreate, err)
	}
	defer func() { _ = page.Close() }()

	if err := page.WaitLoad(); err != nil {
		return classify(ctx, ErrPageLoad, err)
	}

	stream, err := page.PDF(r.printOptions())
	if err != nil {
		return classify(ctx, ErrPDFGeneration, err)
	}

	return writePDF(ctx, stream, pdfPath)
}

// newLauncher configures the Chromium process for one render.
func (r *rodRenderer) newLauncher(profileDir string) *launcher.Launcher {
	l := launcher.New().
		Headless(true).
		Leakless(true).
		UserDataDir(profileDir)

	if r.opts.BrowserBin != "" {
		l = l.Bin(r.opts.BrowserBin)
	}
	if r.opts.NoSandbox {
		l = l.NoSandbox(true)
	}
	return l
}

// printOptions builds the CDP print request from page settings.
func (r *rodRenderer) printOptions() *proto.PagePrintToPDF {
	width, height := r.opts.Page.dimensions()
	margin := r.opts.Page.Margin

	return &proto.PagePrintToPDF{
		PaperWidth:        floatPtr(width),
		PaperHeight:       floatPtr(height),
		MarginTop:         floatPtr(margin),
		MarginBottom:      floatPtr(margin),
		MarginLeft:        floatPtr(margin),
		MarginRight:       floatPtr(margin),
		PrintBackground:   true,
		PreferCSSPageSize: true,
	}
}

// teardown kills the browser and its children. The launcher only has a
// PID once the process started; before that there is nothing to reap.
func teardown(l *launcher.Launcher) {
	pid := l.PID()
	if pid <= 0 {
		return
	}
	l.Kill()
	process.KillProcessGroup(pid)
	l.Cleanup()
}

// writePDF streams the printed PDF into path without buffering it whole.
func writePDF(ctx context.Context, src io.Reader, path string) (err error) {
	// #nosec G304 -- path is built by Workspaces.Allocate
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWritePDF, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %v", ErrWritePDF, cerr)
		}
	}()

	if _, err := io.Copy(f, src); err != nil {
		return classify(ctx, ErrPDFGeneration, fmt.Errorf("reading PDF stream: %w", err))
	}
	return nil
}

// classify wraps err with sentinel, or with ErrRenderTimeout when the
// render deadline is what made the engine call fail.
func classify(ctx context.Context, sentinel error, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrRenderTimeout, err)
	}
	return fmt.Errorf("%w: %v", sentinel, err)
}

// fileURL returns a file:// URL for an absolute or relative local path.
func fileURL(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}
