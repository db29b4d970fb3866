package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound       = errors.New("not found")
	ErrAlreadyClosed  = errors.New("store closed")
	ErrReportResolved = errors.New("report already resolved")
)
