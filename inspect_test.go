package html2pdf

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestPdfcpuInspector_RejectsBadOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.pdf")
	if err := os.WriteFile(garbage, []byte("<html>not a pdf</html>"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"not a pdf", garbage},
		{"missing file", filepath.Join(dir, "absent.pdf")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := pdfcpuInspector{}.PageCount(tt.path)
			if !errors.Is(err, ErrPDFGeneration) {
				t.Errorf("error = %v, want ErrPDFGeneration", err)
			}
		})
	}
}
