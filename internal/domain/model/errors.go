package model

import "errors"

// Sentinel kinds for state and status label parsing.
var (
	ErrUnknownNoteState    = errors.New("unknown note state")
	ErrUnknownCommentState = errors.New("unknown comment state")
	ErrUnknownTargetType   = errors.New("unknown report target type")
	ErrUnknownReportStatus = errors.New("unknown report status")
)
