package release

import "errors"

// Sentinel errors shared across the store, vault, and service layers.
// Callers match them with errors.Is.
var (
	// ErrNotFound is returned when a project, version, record, or
	// vault file does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotAuthenticated gates delete operations: nobody is logged in.
	ErrNotAuthenticated = errors.New("not logged in")

	// ErrAuthFailed is returned on login with an unknown user or a
	// mismatched password. Callers get no hint which one it was.
	ErrAuthFailed = errors.New("invalid username or password")

	// ErrValidation is returned when a required field is missing or
	// malformed on a create/update.
	ErrValidation = errors.New("validation failed")

	// ErrCanceled marks a user-aborted interactive prompt. It is a
	// distinct outcome, never an I/O failure.
	ErrCanceled = errors.New("canceled")
)
