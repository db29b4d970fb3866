// Package repository defines the note store interface and errors.
package repository

import (
	"context"

	"github.com/apuntia/apuntia/internal/domain/model"
	"github.com/apuntia/apuntia/internal/domain/rating"
)

// NoteFilter narrows ListNotes results. Zero values mean "no filter".
type NoteFilter struct {
	Subject     string
	State       model.NoteState
	AuthorEmail string
	Limit       int
}

// Store provides persistence for notes, ratings, comments, and reports.
//
// RateNote must serialize the upsert-then-recompute sequence per note so a
// concurrent reader never observes an aggregate computed from a stale vote
// snapshot. Both implementations honor this: the in-memory store with a
// per-note mutex, the Postgres store with a single transaction.
type Store interface {
	// CreateNote persists a new note, assigning ID and timestamps.
	CreateNote(ctx context.Context, n *model.Note) error
	// GetNote returns ErrNotFound for unknown ids.
	GetNote(ctx context.Context, id string) (model.Note, error)
	// ListNotes returns notes matching the filter, newest first.
	ListNotes(ctx context.Context, f NoteFilter) ([]model.Note, error)
	// DeleteNote removes a note and cascades its ratings and comments.
	DeleteNote(ctx context.Context, id string) error
	// IncrementViews bumps the view counter.
	IncrementViews(ctx context.Context, id string) error
	// IncrementDownloads bumps the download counter.
	IncrementDownloads(ctx context.Context, id string) error

	// RateNote upserts the (noteID, userID) vote and recomputes the note's
	// denormalized aggregate atomically. Returns the fresh aggregate.
	RateNote(ctx context.Context, noteID, userID string, value int) (rating.Summary, error)
	// UserRating returns the acting user's vote, or ErrNotFound.
	UserRating(ctx context.Context, noteID, userID string) (model.Rating, error)

	// ListMetrics returns ranking snapshots for published notes,
	// optionally restricted to one subject.
	ListMetrics(ctx context.Context, subject string) ([]model.NoteMetrics, error)

	// SetNoteState applies an already-validated moderation transition.
	SetNoteState(ctx context.Context, id string, to model.NoteState, reason, decidedBy string) error

	// AddComment persists a new comment, assigning ID and timestamp.
	AddComment(ctx context.Context, c *model.Comment) error
	// ListComments returns a note's comments, oldest first. When
	// visibleOnly is set, only visible comments are returned.
	ListComments(ctx context.Context, noteID string, visibleOnly bool) ([]model.Comment, error)
	// GetComment returns ErrNotFound for unknown ids.
	GetComment(ctx context.Context, id string) (model.Comment, error)
	// SetCommentState applies an already-validated transition.
	SetCommentState(ctx context.Context, id string, to model.CommentState) error

	// AddReport persists a new open report.
	AddReport(ctx context.Context, r *model.Report) error
	// ListOpenReports returns unresolved reports, oldest first.
	ListOpenReports(ctx context.Context) ([]model.Report, error)
	// ResolveReport moves an open report to reviewed or dismissed.
	ResolveReport(ctx context.Context, id string, status model.ReportStatus) error

	// CountNotes returns the number of stored notes.
	CountNotes(ctx context.Context) int

	// Close releases store resources.
	Close() error
}
