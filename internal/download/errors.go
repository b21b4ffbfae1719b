package download

import "errors"

// Sentinel errors for the download package.
var (
	// ErrNotActive is returned when an operation names a URL with no active download.
	ErrNotActive = errors.New("download not active")

	// ErrInvalidTransition is returned when a state change is not allowed.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrBadStatus is returned when the server answers a transfer with a non-success status.
	ErrBadStatus = errors.New("unexpected http status")

	// ErrMoveFailed is returned when a finished transfer cannot be moved into the documents directory.
	ErrMoveFailed = errors.New("move into documents failed")

	// ErrInvalidResumeData is returned when a resume token cannot be decoded.
	ErrInvalidResumeData = errors.New("invalid resume data")

	// ErrInvalidURL is returned when a download is requested for an unusable URL.
	ErrInvalidURL = errors.New("invalid download url")

	// ErrNotFound is returned when no completed download exists for a URL.
	ErrNotFound = errors.New("completed download not found")

	// ErrClosed is returned after the manager has been closed.
	ErrClosed = errors.New("download manager closed")
)
