package html2pdf

import (
	"os"
	"testing"
	"time"
)

func newTestReclaimer(t *testing.T, delay time.Duration) (*Reclaimer, *Workspaces) {
	t.Helper()

	ws := NewWorkspaces(t.TempDir())
	r := NewReclaimer(ws, delay, discardLogger())
	t.Cleanup(r.Close)
	return r, ws
}

func allocate(t *testing.T, ws *Workspaces) *Job {
	t.Helper()

	job, err := ws.Allocate()
	if err != nil {
		t.Fatal(err)
	}
	return job
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestReclaimer_Schedule(t *testing.T) {
	t.Parallel()

	r, ws := newTestReclaimer(t, 30*time.Millisecond)
	job := allocate(t, ws)

	r.Schedule(job.Dir)
	if !exists(job.Dir) {
		t.Fatal("workspace removed before the delay")
	}
	if r.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", r.Pending())
	}

	waitFor(t, 2*time.Second, func() bool { return !exists(job.Dir) })
	waitFor(t, time.Second, func() bool { return r.Pending() == 0 })
}

func TestReclaimer_Schedule_Twice(t *testing.T) {
	t.Parallel()

	r, ws := newTestReclaimer(t, time.Hour)
	job := allocate(t, ws)

	r.Schedule(job.Dir)
	r.Schedule(job.Dir)
	if r.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", r.Pending())
	}
}

func TestReclaimer_Schedule_MissingDir(t *testing.T) {
	t.Parallel()

	r, ws := newTestReclaimer(t, 10*time.Millisecond)
	job := allocate(t, ws)
	if err := ws.Destroy(job.Dir); err != nil {
		t.Fatal(err)
	}

	r.Schedule(job.Dir)
	waitFor(t, 2*time.Second, func() bool { return r.Pending() == 0 })
}

func TestReclaimer_Close(t *testing.T) {
	t.Parallel()

	r, ws := newTestReclaimer(t, time.Hour)
	jobs := []*Job{allocate(t, ws), allocate(t, ws), allocate(t, ws)}
	for _, job := range jobs {
		r.Schedule(job.Dir)
	}

	r.Close()

	for _, job := range jobs {
		if exists(job.Dir) {
			t.Errorf("%s survived Close", job.Dir)
		}
	}
	if r.Pending() != 0 {
		t.Errorf("Pending() = %d after Close, want 0", r.Pending())
	}

	// Close is idempotent and later schedules delete right away.
	r.Close()
	late := allocate(t, ws)
	r.Schedule(late.Dir)
	if exists(late.Dir) {
		t.Error("Schedule after Close should destroy immediately")
	}
}

func TestNewReclaimer_Defaults(t *testing.T) {
	t.Parallel()

	r := NewReclaimer(NewWorkspaces(t.TempDir()), 0, nil)
	if r.Delay() != DefaultCleanupDelay {
		t.Errorf("Delay() = %s, want %s", r.Delay(), DefaultCleanupDelay)
	}
	if r.logger == nil {
		t.Error("nil logger should be replaced")
	}
}
