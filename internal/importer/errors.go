package importer

import "errors"

// Input-format errors. They are detected before any remote call.
var (
	ErrUnsupportedFile    = errors.New("unsupported file type: only .json, .xlsx and .xls files are accepted")
	ErrFileTooLarge       = errors.New("file exceeds the maximum upload size")
	ErrUnreadableWorkbook = errors.New("file is not a readable spreadsheet")
	ErrEmptyWorkbook      = errors.New("workbook has no sheets")
	ErrNoDataRows         = errors.New("file contains no data rows")
	ErrInvalidJSON        = errors.New("file is not valid JSON")
	ErrNotAnArray         = errors.New("JSON file must contain an array of records")
	ErrNotAnObject        = errors.New("JSON array element is not an object")
	ErrTooManyRows        = errors.New("file exceeds the maximum number of rows per import")
)

// Orchestration and transport errors.
var (
	ErrInvalidTransition = errors.New("action not allowed in the current state")
	ErrUploadInFlight    = errors.New("an upload is already in progress")
	ErrUploadTimeout     = errors.New("upload timed out")
	ErrTransport         = errors.New("upload failed")
)

// IsInputError reports whether err is one of the input-format errors.
func IsInputError(err error) bool {
	for _, target := range []error{
		ErrUnsupportedFile, ErrFileTooLarge, ErrUnreadableWorkbook, ErrEmptyWorkbook,
		ErrNoDataRows, ErrInvalidJSON, ErrNotAnArray, ErrNotAnObject, ErrTooManyRows,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ErrCancelled is returned by an upload whose session was cancelled while
// the request was in flight. The late response is discarded.
var ErrCancelled = errors.New("import session was cancelled")
