package html2pdf

import "errors"

// Sentinel errors for the conversion lifecycle.
//
// Categories map onto HTTP semantics in internal/server:
// ErrValidation, ErrPayloadTooLarge and ErrIngest are caller errors (4xx),
// ErrWorkspace and ErrRenderFailure are environment errors (5xx),
// ErrCleanup is only ever logged.
var (
	ErrValidation      = errors.New("invalid upload")
	ErrPayloadTooLarge = errors.New("file too large")
	ErrIngest          = errors.New("upload failed")
	ErrWorkspace       = errors.New("workspace allocation failed")
	ErrRenderFailure   = errors.New("conversion failed")
	ErrCleanup         = errors.New("workspace cleanup failed")

	// Validation errors.
	ErrMissingFilename      = kindError{ErrValidation, "missing file"}
	ErrUnsupportedExtension = kindError{ErrValidation, "only .html or .htm files are supported"}

	// Render errors.
	ErrBrowserConnect = kindError{ErrRenderFailure, "failed to connect to browser"}
	ErrPageCreate     = kindError{ErrRenderFailure, "failed to create browser page"}
	ErrPageLoad       = kindError{ErrRenderFailure, "failed to load page"}
	ErrPDFGeneration  = kindError{ErrRenderFailure, "PDF generation failed"}
	ErrWritePDF       = kindError{ErrRenderFailure, "failed to write PDF file"}
	ErrRenderTimeout  = kindError{ErrRenderFailure, "render timed out"}

	// Page settings validation errors.
	ErrInvalidPageSize    = errors.New("invalid page size")
	ErrInvalidOrientation = errors.New("invalid orientation")
	ErrInvalidMargin      = errors.New("invalid margin")
)

// kindError is a sentinel that also matches its category with errors.Is,
// so callers can test either the precise cause or the broad class.
type kindError struct {
	kind error
	msg  string
}

func (e kindError) Error() string { return e.msg }

func (e kindError) Is(target error) bool { return target == e.kind }
