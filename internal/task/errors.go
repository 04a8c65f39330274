package task

import "errors"

var (
	ErrNotFound     = errors.New("task: not found")
	ErrConflict     = errors.New("task: already exists")
	ErrInvalidInput = errors.New("task: invalid input")

	// ErrInvalidTransition covers every rejected lifecycle move. The wrapped
	// message names the legal next status so clients can self-correct.
	ErrInvalidTransition = errors.New("task: invalid status transition")

	// ErrStaleStatus means the compare-and-set against the persisted status
	// found a different value than the one the transition was computed from.
	// The caller re-reads and decides; the engine never retries on its own.
	ErrStaleStatus = errors.New("task: status changed concurrently")

	// ErrNotAssignable is returned when a user's role excludes them from
	// project or task assignment.
	ErrNotAssignable = errors.New("task: user role is not assignable")

	// ErrNotAuthor is returned when a caller edits or deletes a comment they
	// did not write and their capabilities do not allow moderating.
	ErrNotAuthor = errors.New("task: not the comment author")
)
