package html2pdf

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
)

// allowedExtensions lists accepted upload extensions (lowercase).
var allowedExtensions = []string{".html", ".htm"}

// Converter runs the upload -> render -> cleanup lifecycle for one job at a
// time per call; calls are independent and safe to run concurrently.
// Create with NewConverter, call Release for every successful Result, and
// Close on shutdown.
type Converter struct {
	workspaces *Workspaces
	ingestor   *Ingestor
	renderer   Renderer
	inspector  pdfInspector
	reclaimer  *Reclaimer
	logger     *slog.Logger

	maxFileSize  int64
	cleanupDelay time.Duration
	renderOpts   RenderOptions
	renderSlots  int
}

// Option configures a Converter.
type Option func(*Converter)

// WithRenderer replaces the Chromium renderer (tests, alternative engines).
// The renderer is used as-is, without the concurrency limit.
func WithRenderer(r Renderer) Option {
	return func(c *Converter) { c.renderer = r }
}

// WithRenderOptions configures the default Chromium renderer.
func WithRenderOptions(opts RenderOptions) Option {
	return func(c *Converter) { c.renderOpts = opts }
}

// WithRenderSlots caps concurrent browsers (0 = derive from GOMAXPROCS).
func WithRenderSlots(n int) Option {
	return func(c *Converter) { c.renderSlots = n }
}

// WithMaxFileSize sets the upload ceiling in bytes.
func WithMaxFileSize(n int64) Option {
	return func(c *Converter) { c.maxFileSize = n }
}

// WithCleanupDelay sets how long served workspaces are kept.
func WithCleanupDelay(d time.Duration) Option {
	return func(c *Converter) { c.cleanupDelay = d }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) { c.logger = l }
}

// withInspector replaces the output check (tests only).
func withInspector(i pdfInspector) Option {
	return func(c *Converter) { c.inspector = i }
}

// Result describes a successfully rendered job.
// The PDF at Job.OutputPath stays on disk until Release schedules deletion.
type Result struct {
	Job   *Job
	Size  int64 // uploaded bytes
	Pages int
}

// NewConverter creates a Converter whose workspaces live under root.
// Returns error if the render options are invalid.
func NewConverter(root string, opts ...Option) (*Converter, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("%w: empty workspace root", ErrWorkspace)
	}

	c := &Converter{
		workspaces:   NewWorkspaces(root),
		inspector:    pdfcpuInspector{},
		logger:       slog.Default(),
		maxFileSize:  DefaultMaxFileSize,
		cleanupDelay: DefaultCleanupDelay,
	}

	for _, opt := range opts {
		opt(c)
	}

	if err := c.renderOpts.Page.Validate(); err != nil {
		return nil, err
	}

	// Create the Chromium renderer if not injected (e.g., by tests)
	if c.renderer == nil {
		c.renderer = NewLimitedRenderer(NewRodRenderer(c.renderOpts), ResolveRenderSlots(c.renderSlots))
	}

	c.ingestor = NewIngestor(c.workspaces, c.maxFileSize)
	c.reclaimer = NewReclaimer(c.workspaces, c.cleanupDelay, c.logger)
	return c, nil
}

// MaxFileSize returns the upload ceiling in bytes.
func (c *Converter) MaxFileSize() int64 {
	return c.ingestor.Limit()
}

// Workspaces returns the workspace manager.
func (c *Converter) Workspaces() *Workspaces {
	return c.workspaces
}

// Convert validates filename, stores body in a fresh workspace and renders
// it to PDF. Any failure after the workspace exists destroys it before
// returning, so failed jobs never depend on deferred cleanup.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (c *Converter) Convert(ctx context.Context, filename string, body io.Reader) (result *Result, err error) {
	if err := ValidateFilename(filename); err != nil {
		return nil, err
	}

	if err := c.workspaces.EnsureRoot(); err != nil {
		return nil, err
	}
	job, err := c.workspaces.Allocate()
	if err != nil {
		return nil, err
	}

	log := c.logger.With("job", job.ID)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
		if err != nil {
			c.discard(log, job)
		}
	}()

	size, err := c.ingestor.Ingest(ctx, body, job)
	if err != nil {
		return nil, err
	}
	log.Debug("upload stored", "file", filename, "bytes", size)

	start := time.Now()
	if err := c.renderer.Render(ctx, job.InputPath, job.OutputPath); err != nil {
		return nil, err
	}

	pages, err := c.inspector.PageCount(job.OutputPath)
	if err != nil {
		return nil, err
	}
	log.Debug("rendered", "pages", pages, "duration_ms", time.Since(start).Milliseconds())

	return &Result{Job: job, Size: size, Pages: pages}, nil
}

// Release schedules deferred deletion of a served job's workspace.
// Call it once the response has been handed off, whatever its outcome.
func (c *Converter) Release(job *Job) {
	if job == nil {
		return
	}
	c.reclaimer.Schedule(job.Dir)
}

// Discard deletes a job's workspace immediately. Use it when a Result
// cannot be served at all.
func (c *Converter) Discard(job *Job) {
	if job == nil {
		return
	}
	c.discard(c.logger.With("job", job.ID), job)
}

// PendingCleanups returns the number of workspaces awaiting deletion.
func (c *Converter) PendingCleanups() int {
	return c.reclaimer.Pending()
}

// Close destroys workspaces still waiting for their cleanup timer.
// Call after the HTTP server has stopped serving responses.
func (c *Converter) Close() error {
	c.reclaimer.Close()
	return nil
}

func (c *Converter) discard(log *slog.Logger, job *Job) {
	if err := c.workspaces.Destroy(job.Dir); err != nil {
		log.Warn("workspace cleanup failed", "dir", job.Dir, "error", err)
	}
}

// ValidateFilename rejects uploads without a name or with an extension
// other than .html/.htm (case-insensitive). It touches no files.
func ValidateFilename(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrMissingFilename
	}
	ext := strings.ToLower(filepath.Ext(strings.ReplaceAll(name, `\`, "/")))
	for _, allowed := range allowedExtensions {
		if ext == allowed {
			return nil
		}
	}
	return ErrUnsupportedExtension
}
