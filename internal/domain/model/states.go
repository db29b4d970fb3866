package model

import "fmt"

// ParseNoteState validates a note state label.
func ParseNoteState(s string) (NoteState, error) {
	switch NoteState(s) {
	case NotePublished, NotePending, NoteRejected, NoteHidden:
		return NoteState(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownNoteState, s)
	}
}

// ParseCommentState validates a comment state label.
func ParseCommentState(s string) (CommentState, error) {
	switch CommentState(s) {
	case CommentVisible, CommentPending, CommentHidden, CommentRejected:
		return CommentState(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCommentState, s)
	}
}

// ParseTargetType validates a report target label.
func ParseTargetType(s string) (TargetType, error) {
	switch TargetType(s) {
	case TargetNote, TargetComment:
		return TargetType(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTargetType, s)
	}
}

// ParseReportStatus validates a report status label.
func ParseReportStatus(s string) (ReportStatus, error) {
	switch ReportStatus(s) {
	case ReportOpen, ReportReviewed, ReportDismissed:
		return ReportStatus(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownReportStatus, s)
	}
}

// Metrics returns the read-only snapshot used by ranking.
func (n *Note) Metrics() NoteMetrics {
	return NoteMetrics{
		ID:          n.ID,
		Title:       n.Title,
		Subject:     n.Subject,
		AuthorName:  n.AuthorName,
		RatingAvg:   n.RatingAvg,
		RatingCount: n.RatingCount,
		Downloads:   n.Downloads,
		CreatedAt:   n.CreatedAt,
	}
}
