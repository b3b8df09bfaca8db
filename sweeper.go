package html2pdf

import (
	"context"
	"log/slog"
	"time"
)

// RunSweeper calls Sweep every interval until ctx is done. It catches
// workspaces whose cleanup timer was lost, for example when another
// process shares the root. maxAge must exceed the longest a live job can
// take, or in-flight workspaces are removed.
//
// A non-positive interval disables sweeping; RunSweeper then waits for ctx.
// Always returns nil so it can run in an errgroup next to the server.
func (w *Workspaces) RunSweeper(ctx context.Context, interval, maxAge time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := w.Sweep(maxAge)
			if err != nil {
				logger.Warn("periodic sweep failed", "root", w.root, "error", err)
				continue
			}
			if n > 0 {
				logger.Info("removed stale workspaces", "count", n)
			}
		}
	}
}
