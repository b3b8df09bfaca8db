package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/docker/go-units"

	"github.com/alnah/go-html2pdf"
	"github.com/alnah/go-html2pdf/internal/hints"
)

// classify maps a conversion error to an HTTP status and client message.
// limit is the upload ceiling reported in 413 messages. 4xx messages
// describe the input; 5xx messages carry the cause so an operator can
// diagnose from the client report.
func classify(err error, limit int64) (int, string) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, html2pdf.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, sentence(err.Error())
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge, tooLarge(limit)
	case errors.Is(err, html2pdf.ErrValidation), errors.Is(err, errNoFilePart):
		return http.StatusBadRequest, sentence(err.Error())
	case errors.Is(err, html2pdf.ErrIngest):
		return http.StatusBadRequest, sentence(err.Error())
	case errors.Is(err, html2pdf.ErrRenderFailure):
		cause := strings.TrimPrefix(err.Error(), html2pdf.ErrRenderFailure.Error()+": ")
		return http.StatusInternalServerError, "Conversion failed: " + cause
	case errors.Is(err, html2pdf.ErrWorkspace):
		return http.StatusInternalServerError, sentence(err.Error())
	}
	return http.StatusInternalServerError, "Internal error"
}

// hintFor returns an operator hint for environment failures, if any.
func hintFor(err error, conv Converter) string {
	switch {
	case errors.Is(err, html2pdf.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, html2pdf.ErrRenderTimeout):
		return hints.ForTimeout()
	case errors.Is(err, html2pdf.ErrWorkspace):
		if c, ok := conv.(interface{ Workspaces() *html2pdf.Workspaces }); ok {
			return hints.ForWorkspaceRoot(c.Workspaces().Root())
		}
	}
	return ""
}

func tooLarge(limit int64) string {
	return fmt.Sprintf("File too large (max %s)", units.BytesSize(float64(limit)))
}

// sentence upper-cases the first letter of msg.
func sentence(msg string) string {
	r, size := utf8.DecodeRuneInString(msg)
	if r == utf8.RuneError {
		return msg
	}
	return string(unicode.ToUpper(r)) + msg[size:]
}
