package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// ErrChannelUnavailable means the moderation channel could not be
	// resolved before the readiness deadline. It is logged by the caller
	// but never changes the submitter-facing response.
	ErrChannelUnavailable = errors.New("moderation channel unavailable")
)
