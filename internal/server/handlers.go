package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"

	"github.com/alnah/go-html2pdf"
)

// Response constants.
const (
	uploadField       = "file"
	outputFilename    = "output.pdf"
	contentTypePDF    = "application/pdf"
	headerPageCount   = "X-Page-Count"
	multipartOverhead = 1 << 20 // boundaries, part headers, small extra fields
)

var errNoFilePart = errors.New("missing file")

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleConvert streams the multipart upload straight into the converter,
// serves the PDF, then hands the workspace to deferred cleanup.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.conv.MaxFileSize()+multipartOverhead)

	mr, err := r.MultipartReader()
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Expected multipart/form-data body")
		return
	}

	part, err := nextFilePart(mr)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer part.Close()

	res, err := s.conv.Convert(r.Context(), part.FileName(), part)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.serve(w, r, res)
}

// serve writes the PDF and schedules workspace deletion once the handler
// has handed off the response, whatever the transfer outcome.
func (s *Server) serve(w http.ResponseWriter, r *http.Request, res *html2pdf.Result) {
	f, err := os.Open(res.Job.OutputPath)
	if err != nil {
		s.conv.Discard(res.Job)
		s.fail(w, r, err)
		return
	}
	defer s.conv.Release(res.Job)
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.fail(w, r, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", contentTypePDF)
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": outputFilename}))
	h.Set(headerPageCount, strconv.Itoa(res.Pages))
	http.ServeContent(w, r, outputFilename, info.ModTime(), f)
}

// fail maps err to a status and a {"detail": ...} body.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := classify(err, s.conv.MaxFileSize())
	attrs := []any{"path", r.URL.Path, "status", status, "error", err}
	if hint := hintFor(err, s.conv); hint != "" {
		attrs = append(attrs, "hint", hint)
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("conversion request failed", attrs...)
	} else {
		s.logger.Debug("conversion request rejected", attrs...)
	}
	writeDetail(w, status, detail)
}

// nextFilePart skips parts until the "file" field. Other fields are drained.
// Body read failures are upload errors; an oversized body keeps its
// *http.MaxBytesError so it maps to 413.
func nextFilePart(mr *multipart.Reader) (*multipart.Part, error) {
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, errNoFilePart
		}
		if err != nil {
			return nil, uploadError(err)
		}
		if part.FormName() == uploadField {
			return part, nil
		}
		_, err = io.Copy(io.Discard, part)
		_ = part.Close()
		if err != nil {
			return nil, uploadError(err)
		}
	}
}

func uploadError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return err
	}
	return fmt.Errorf("%w: %v", html2pdf.ErrIngest, err)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
