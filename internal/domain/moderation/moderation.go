// Package moderation implements the state machine for note and comment
// visibility plus the content screen applied on submission.
package moderation

import (
	"errors"
	"fmt"

	"github.com/apuntia/apuntia/internal/domain/model"
)

// ErrInvalidTransition reports a moderation state change outside the
// allowed table.
var ErrInvalidTransition = errors.New("invalid moderation transition")

// noteTransitions is the allowed state table for notes. Published notes may
// be hidden or rejected; pending notes resolve to published or rejected;
// hidden notes may be restored or rejected. Rejection is terminal.
var noteTransitions = map[model.NoteState][]model.NoteState{
	model.NotePublished: {model.NoteHidden, model.NoteRejected},
	model.NotePending:   {model.NotePublished, model.NoteRejected},
	model.NoteHidden:    {model.NotePublished, model.NoteRejected},
	model.NoteRejected:  {},
}

// commentTransitions mirrors the note table for comments.
var commentTransitions = map[model.CommentState][]model.CommentState{
	model.CommentVisible:  {model.CommentHidden, model.CommentRejected},
	model.CommentPending:  {model.CommentVisible, model.CommentRejected},
	model.CommentHidden:   {model.CommentVisible, model.CommentRejected},
	model.CommentRejected: {},
}

// CanTransitionNote reports whether a note may move from one state to another.
func CanTransitionNote(from, to model.NoteState) bool {
	for _, allowed := range noteTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// TransitionNote validates the state change and returns the new moderation
// record stub for the caller to complete with reason and actor.
func TransitionNote(from, to model.NoteState) error {
	if !CanTransitionNote(from, to) {
		return fmt.Errorf("%w: note %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// CanTransitionComment reports whether a comment may move between states.
func CanTransitionComment(from, to model.CommentState) bool {
	for _, allowed := range commentTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// TransitionComment validates a comment state change.
func TransitionComment(from, to model.CommentState) error {
	if !CanTransitionComment(from, to) {
		return fmt.Errorf("%w: comment %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// InitialNoteState returns the state a freshly uploaded note enters:
// pending when the title or description trips the content screen,
// published otherwise.
func InitialNoteState(title, description string) model.NoteState {
	if IsProfane(title) || IsProfane(description) {
		return model.NotePending
	}
	return model.NotePublished
}

// InitialCommentState returns the state a new comment enters.
func InitialCommentState(text string) model.CommentState {
	if IsProfane(text) {
		return model.CommentPending
	}
	return model.CommentVisible
}
