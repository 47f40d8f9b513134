package store

import "errors"

// Typed store errors. These map to HTTP 404/401/409/500 at the admin
// surface, and to T00_INTERNAL_ERROR when a lookup fails mid-pipeline.
var (
	ErrAccountNotFound = errors.New("store: account not found")
	ErrUnauthorized    = errors.New("store: unauthorized")
	ErrConflict        = errors.New("store: conflict")
)

// Other wraps an opaque backend failure (a dropped Redis connection, a
// malformed record) that doesn't fit the named cases above.
func Other(err error) error {
	return &otherError{err: err}
}

type otherError struct{ err error }

func (e *otherError) Error() string { return "store: " + e.err.Error() }
func (e *otherError) Unwrap() error { return e.err }
