package ranking

import "errors"

// Sentinel kinds for ranking query validation.
var (
	ErrInvalidDays          = errors.New("invalid days window")
	ErrSubjectNotRecognized = errors.New("subject not recognized")
	ErrTooManyCandidates    = errors.New("candidate set too large")
)
