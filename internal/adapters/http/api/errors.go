package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("missing identity headers")
	ErrForbidden    = errors.New("moderator role required")
)
