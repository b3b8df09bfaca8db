package main

// Notes:
// - exitCodeFor: we test the sentinel errors run can surface, plus wrapped
//   errors to verify the errors.Is() chain.
// - Exit code constants: we verify Unix conventions and custom codes < 126.

import (
	"errors"
	"fmt"
	"testing"

	"github.com/alnah/go-html2pdf"
	"github.com/alnah/go-html2pdf/internal/config"
)

// ---------------------------------------------------------------------------
// TestExitCodeFor - Error to exit code mapping
// ---------------------------------------------------------------------------

func TestExitCodeFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, ExitSuccess},

		// I/O errors (exit 3)
		{"workspace", html2pdf.ErrWorkspace, ExitIO},
		{"wrapped workspace", fmt.Errorf("root: %w", html2pdf.ErrWorkspace), ExitIO},
		{"log file", fmt.Errorf("%w: permission denied", errLogFile), ExitIO},

		// Usage/config/validation errors (exit 2)
		{"usage", fmt.Errorf("%w: unknown flag", errUsage), ExitUsage},
		{"config not found", config.ErrConfigNotFound, ExitUsage},
		{"config parse", config.ErrConfigParse, ExitUsage},
		{"empty config name", config.ErrEmptyConfigName, ExitUsage},
		{"invalid config", fmt.Errorf("%w: server.port", config.ErrInvalidConfig), ExitUsage},
		{"invalid page size", html2pdf.ErrInvalidPageSize, ExitUsage},
		{"invalid orientation", html2pdf.ErrInvalidOrientation, ExitUsage},
		{"invalid margin", html2pdf.ErrInvalidMargin, ExitUsage},

		// Everything else (exit 1)
		{"render failure", html2pdf.ErrRenderFailure, ExitGeneral},
		{"listen", errors.New("address already in use"), ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestExitCodeConstants - Unix conventions
// ---------------------------------------------------------------------------

func TestExitCodeConstants(t *testing.T) {
	t.Parallel()

	if ExitSuccess != 0 {
		t.Errorf("ExitSuccess = %d, want 0", ExitSuccess)
	}
	if ExitGeneral != 1 {
		t.Errorf("ExitGeneral = %d, want 1", ExitGeneral)
	}
	if ExitUsage != 2 {
		t.Errorf("ExitUsage = %d, want 2", ExitUsage)
	}
	for _, code := range []int{ExitSuccess, ExitGeneral, ExitUsage, ExitIO} {
		if code >= 126 {
			t.Errorf("exit code %d collides with shell-reserved codes", code)
		}
	}
}
