package html2pdf

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// Render slot sizing constants.
const (
	// MinRenderSlots ensures at least one browser can run.
	MinRenderSlots = 1

	// MaxRenderSlots caps concurrent browser instances to limit memory (~200MB each).
	MaxRenderSlots = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// limitedRenderer bounds how many renders run at once. Jobs past the limit
// wait for a slot; waiting honors ctx so a disconnected client stops queueing.
type limitedRenderer struct {
	next  Renderer
	slots *semaphore.Weighted
	size  int
}

// NewLimitedRenderer wraps next so at most n renders run concurrently.
func NewLimitedRenderer(next Renderer, n int) Renderer {
	if n < MinRenderSlots {
		n = MinRenderSlots
	}
	return &limitedRenderer{next: next, slots: semaphore.NewWeighted(int64(n)), size: n}
}

// Render acquires a slot, then delegates.
func (l *limitedRenderer) Render(ctx context.Context, htmlPath, pdfPath string) error {
	if err := l.slots.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: waiting for render slot: %v", ErrRenderFailure, err)
	}
	defer l.slots.Release(1)

	return l.next.Render(ctx, htmlPath, pdfPath)
}

// ResolveRenderSlots determines how many browsers may run concurrently.
// Priority: explicit workers > GOMAXPROCS-based calculation.
func ResolveRenderSlots(workers int) int {
	if workers > 0 {
		return workers
	}

	// GOMAXPROCS is adjusted by automaxprocs for containers
	n := runtime.GOMAXPROCS(0) / cpuDivisor

	if n < MinRenderSlots {
		return MinRenderSlots
	}
	if n > MaxRenderSlots {
		return MaxRenderSlots
	}
	return n
}
