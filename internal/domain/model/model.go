// Package model contains domain models passed between layers.
package model

import "time"

// NoteState captures the moderation state of a note.
type NoteState string

// Valid note moderation states.
const (
	NotePublished NoteState = "published"
	NotePending   NoteState = "pending"
	NoteRejected  NoteState = "rejected"
	NoteHidden    NoteState = "hidden"
)

// CommentState captures the moderation state of a comment.
type CommentState string

// Valid comment moderation states.
const (
	CommentVisible  CommentState = "visible"
	CommentPending  CommentState = "pending"
	CommentHidden   CommentState = "hidden"
	CommentRejected CommentState = "rejected"
)

// ReportStatus captures the review status of a report.
type ReportStatus string

// Valid report statuses.
const (
	ReportOpen      ReportStatus = "open"
	ReportReviewed  ReportStatus = "reviewed"
	ReportDismissed ReportStatus = "dismissed"
)

// TargetType identifies what a report points at.
type TargetType string

// Valid report targets.
const (
	TargetNote    TargetType = "note"
	TargetComment TargetType = "comment"
)

// Moderation records the moderation decision attached to a note.
type Moderation struct {
	State     NoteState
	Reason    string
	DecidedBy string
	DecidedAt time.Time
}

// Note is a user-submitted document record being rated and ranked.
// RatingAvg/RatingCount are denormalized aggregates maintained by the store;
// RatingCount == 0 implies RatingAvg == 0.
type Note struct {
	ID          string
	Title       string
	Description string
	Subject     string
	Topic       string
	Semester    string
	Tags        []string
	AuthorName  string
	AuthorEmail string

	// File metadata is passthrough from the upload collaborator.
	FileURL  string
	FileType string
	FileSize int64

	Views       int64
	Downloads   int64
	RatingAvg   float64
	RatingCount int

	Moderation Moderation

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Rating is one user's 1-5 vote on one note. At most one rating exists per
// (NoteID, UserID) pair; a revote overwrites Value in place.
type Rating struct {
	NoteID    string
	UserID    string
	Value     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Comment is a user's comment on a note.
type Comment struct {
	ID          string
	NoteID      string
	AuthorName  string
	AuthorEmail string
	Text        string
	State       CommentState
	CreatedAt   time.Time
}

// Report is a user complaint about a note or a comment.
type Report struct {
	ID         string
	TargetType TargetType
	TargetID   string
	Reason     string
	ByName     string
	ByEmail    string
	Status     ReportStatus
	CreatedAt  time.Time
}

// NoteMetrics is the read-only snapshot the ranking computer operates on.
type NoteMetrics struct {
	ID          string
	Title       string
	Subject     string
	AuthorName  string
	RatingAvg   float64
	RatingCount int
	Downloads   int64
	CreatedAt   time.Time
}
