package html2pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Workspace layout. Every job directory lives directly under the root.
const (
	jobDirPrefix   = "job-"
	inputFileName  = "input.html"
	outputFileName = "output.pdf"
)

// Job is one upload -> render -> respond -> cleanup unit of work.
// It is owned by a single request and never shared.
type Job struct {
	ID         string
	Dir        string
	InputPath  string
	OutputPath string
	CreatedAt  time.Time
}

// Workspaces allocates and destroys per-job directories under a root.
// The zero value is not usable; create with NewWorkspaces.
type Workspaces struct {
	root string
	now  func() time.Time
}

// NewWorkspaces returns a manager rooted at root. The directory itself is
// created lazily by EnsureRoot.
func NewWorkspaces(root string) *Workspaces {
	return &Workspaces{root: filepath.Clean(root), now: time.Now}
}

// Root returns the directory all workspaces are created under.
func (w *Workspaces) Root() string {
	return w.root
}

// EnsureRoot creates the root and its parents if missing.
// Safe to call concurrently: MkdirAll treats an existing directory as success.
func (w *Workspaces) EnsureRoot() error {
	if err := os.MkdirAll(w.root, 0o700); err != nil {
		return fmt.Errorf("%w: creating root %s: %v", ErrWorkspace, w.root, err)
	}
	return nil
}

// Allocate creates a fresh, empty, uniquely named job directory.
// os.Mkdir fails on an existing path, so two jobs can never share one.
func (w *Workspaces) Allocate() (*Job, error) {
	id := uuid.NewString()
	dir := filepath.Join(w.root, jobDirPrefix+id)
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorkspace, err)
	}
	return &Job{
		ID:         id,
		Dir:        dir,
		InputPath:  filepath.Join(dir, inputFileName),
		OutputPath: filepath.Join(dir, outputFileName),
		CreatedAt:  w.now(),
	}, nil
}

// Destroy removes a workspace and everything in it.
// Already-missing entries are not an error.
func (w *Workspaces) Destroy(dir string) error {
	if !w.owns(dir) {
		return fmt.Errorf("%w: %s is not a workspace under %s", ErrCleanup, dir, w.root)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("%w: %v", ErrCleanup, err)
	}
	return nil
}

// Sweep removes job directories older than maxAge. It reclaims workspaces
// orphaned by a previous process that exited before its timers fired.
// Returns the number of directories removed.
func (w *Workspaces) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: reading root: %v", ErrCleanup, err)
	}

	cutoff := w.now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), jobDirPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(w.root, e.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

// owns reports whether dir is a direct job child of the root.
func (w *Workspaces) owns(dir string) bool {
	dir = filepath.Clean(dir)
	return filepath.Dir(dir) == w.root && strings.HasPrefix(filepath.Base(dir), jobDirPrefix)
}
