package html2pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/docker/go-units"
)

// Upload limits.
const (
	// DefaultMaxFileSize is the upload ceiling when none is configured.
	DefaultMaxFileSize int64 = 200 * units.MiB

	// ingestChunkSize is how much of the upload is held in memory at once.
	ingestChunkSize = 1 * units.MiB
)

// Ingestor streams uploads into a job workspace under a byte ceiling.
type Ingestor struct {
	limit     int64
	chunkSize int
	ws        *Workspaces
}

// NewIngestor returns an Ingestor enforcing limit bytes per upload.
// A non-positive limit falls back to DefaultMaxFileSize.
func NewIngestor(ws *Workspaces, limit int64) *Ingestor {
	if limit <= 0 {
		limit = DefaultMaxFileSize
	}
	return &Ingestor{limit: limit, chunkSize: ingestChunkSize, ws: ws}
}

// Limit returns the configured byte ceiling.
func (in *Ingestor) Limit() int64 {
	return in.limit
}

// Ingest copies src into job.InputPath one chunk at a time and returns the
// number of bytes written. On any failure the job workspace is destroyed
// before the error is returned, so no partial upload outlives the call.
//
// Errors: ErrPayloadTooLarge past the ceiling, ErrIngest when reading src
// fails or ctx ends, ErrWorkspace when the disk rejects the write.
func (in *Ingestor) Ingest(ctx context.Context, src io.Reader, job *Job) (int64, error) {
	n, err := in.copy(ctx, src, job.InputPath)
	if err != nil {
		_ = in.ws.Destroy(job.Dir)
		return n, err
	}
	return n, nil
}

func (in *Ingestor) copy(ctx context.Context, src io.Reader, dest string) (total int64, err error) {
	// #nosec G304 -- dest is built by Workspaces.Allocate
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return 0, fmt.Errorf("%w: creating input file: %v", ErrWorkspace, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: closing input file: %v", ErrWorkspace, cerr)
		}
	}()

	buf := make([]byte, in.chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return total, fmt.Errorf("%w: %v", ErrIngest, err)
		}

		n, rerr := src.Read(buf)
		if n > 0 {
			total += int64(n)
			if total > in.limit {
				return total, fmt.Errorf("%w (max %s)", ErrPayloadTooLarge, units.BytesSize(float64(in.limit)))
			}
			if _, werr := f.Write(buf[:n]); werr != nil {
				return total, fmt.Errorf("%w: writing input file: %v", ErrWorkspace, werr)
			}
		}
		if errors.Is(rerr, io.EOF) {
			return total, nil
		}
		if rerr != nil {
			var maxErr *http.MaxBytesError
			if errors.As(rerr, &maxErr) {
				return total, fmt.Errorf("%w (max %s)", ErrPayloadTooLarge, units.BytesSize(float64(in.limit)))
			}
			return total, fmt.Errorf("%w: reading upload: %v", ErrIngest, rerr)
		}
	}
}
