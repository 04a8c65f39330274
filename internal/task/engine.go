package task

import (
	"fmt"
	"time"
)

// Lifecycle is the slice of a work item the transition engine reads and
// writes. Both tasks and projects embed it.
type Lifecycle struct {
	Status      Status
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// Advance computes the result of moving lc to requested at time now. The
// engine is pure: it validates and produces the updated lifecycle, while the
// store layer is responsible for persisting it under a compare-and-set on the
// prior status.
//
// Exactly one step forward is legal per call. Terminal items reject every
// request, including a repeat of the terminal status itself.
func Advance(lc Lifecycle, requested Status, now time.Time) (Lifecycle, error) {
	if !requested.Valid() {
		return lc, fmt.Errorf("%w: unknown status", ErrInvalidTransition)
	}
	if lc.Status.Terminal() {
		return lc, fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, lc.Status)
	}
	next := lc.Status.Next()
	if requested != next {
		return lc, fmt.Errorf("%w: %s can only move to %s", ErrInvalidTransition, lc.Status, next)
	}

	out := lc
	out.Status = requested
	switch requested {
	case StatusInProgress:
		if out.StartedAt == nil {
			t := now.UTC()
			out.StartedAt = &t
		}
	case StatusCompleted:
		t := now.UTC()
		out.CompletedAt = &t
	}
	return out, nil
}
