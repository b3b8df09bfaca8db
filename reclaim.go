package html2pdf

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultCleanupDelay is how long a served job's workspace is kept.
// The delay is a safety margin for slow transfers, not a completion signal.
const DefaultCleanupDelay = 120 * time.Second

// Reclaimer deletes job workspaces after a fixed delay, off the request path.
type Reclaimer struct {
	ws     *Workspaces
	delay  time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	closed  bool
}

// NewReclaimer creates a Reclaimer. A non-positive delay falls back to
// DefaultCleanupDelay; a nil logger discards output.
func NewReclaimer(ws *Workspaces, delay time.Duration, logger *slog.Logger) *Reclaimer {
	if delay <= 0 {
		delay = DefaultCleanupDelay
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reclaimer{
		ws:      ws,
		delay:   delay,
		logger:  logger,
		pending: make(map[string]*time.Timer),
	}
}

// Delay returns the grace period between scheduling and deletion.
func (r *Reclaimer) Delay() time.Duration {
	return r.delay
}

// Schedule arranges for dir to be destroyed once, after the delay.
// It never blocks. Scheduling the same dir twice keeps the first timer.
// After Close, dir is destroyed immediately instead.
func (r *Reclaimer) Schedule(dir string) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.destroy(dir)
		return
	}
	if _, ok := r.pending[dir]; ok {
		r.mu.Unlock()
		return
	}
	r.pending[dir] = time.AfterFunc(r.delay, func() { r.fire(dir) })
	r.mu.Unlock()
}

// Pending returns the number of armed timers.
func (r *Reclaimer) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Close stops every armed timer and destroys its workspace right away.
// Deletions already running in timer goroutines are not awaited.
func (r *Reclaimer) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	var dirs []string
	for dir, t := range r.pending {
		if t.Stop() {
			dirs = append(dirs, dir)
		}
	}
	r.pending = map[string]*time.Timer{}
	r.mu.Unlock()

	for _, dir := range dirs {
		r.destroy(dir)
	}
}

func (r *Reclaimer) fire(dir string) {
	r.mu.Lock()
	delete(r.pending, dir)
	r.mu.Unlock()

	r.destroy(dir)
}

// destroy is best-effort: failures are logged and dropped.
func (r *Reclaimer) destroy(dir string) {
	if err := r.ws.Destroy(dir); err != nil {
		r.logger.Warn("workspace cleanup failed", "dir", dir, "error", err)
		return
	}
	r.logger.Debug("workspace reclaimed", "dir", dir)
}
