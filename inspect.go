package html2pdf

import (
	"fmt"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// pdfInspector reads back a rendered file to confirm it is a usable PDF.
type pdfInspector interface {
	PageCount(path string) (int, error)
}

var _ pdfInspector = pdfcpuInspector{}

// pdfcpuConfigOnce keeps pdfcpu from writing a config dir under $HOME.
var pdfcpuConfigOnce sync.Once

// pdfcpuInspector validates output with pdfcpu.
type pdfcpuInspector struct{}

// PageCount parses the PDF at path and returns its page count.
// A file pdfcpu cannot read, or one with no pages, is a generation failure.
func (pdfcpuInspector) PageCount(path string) (int, error) {
	pdfcpuConfigOnce.Do(api.DisableConfigDir)

	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("%w: unreadable output: %v", ErrPDFGeneration, err)
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: output has no pages", ErrPDFGeneration)
	}
	return n, nil
}
