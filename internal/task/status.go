package task

import (
	"fmt"
	"strings"
)

// Status is the position of a work item in its lifecycle. The lifecycle is
// strictly linear: Unassigned, Assigned, InProgress, Completed. There is no
// way back and no skipping.
type Status int

const (
	StatusUnassigned Status = iota
	StatusAssigned
	StatusInProgress
	StatusCompleted
)

var statusNames = [...]string{
	StatusUnassigned: "unassigned",
	StatusAssigned:   "assigned",
	StatusInProgress: "inprogress",
	StatusCompleted:  "completed",
}

func (s Status) String() string {
	if s < StatusUnassigned || s > StatusCompleted {
		return fmt.Sprintf("status(%d)", int(s))
	}
	return statusNames[s]
}

// Valid reports whether s is one of the four lifecycle states.
func (s Status) Valid() bool {
	return s >= StatusUnassigned && s <= StatusCompleted
}

// Terminal reports whether s admits no further transition.
func (s Status) Terminal() bool {
	return s == StatusCompleted
}

// Next returns the only legal successor. Calling Next on the terminal state
// returns it unchanged; callers guard with Terminal first.
func (s Status) Next() Status {
	if s.Terminal() {
		return s
	}
	return s + 1
}

// ParseStatus maps a wire name to a Status. Matching is case-insensitive and
// tolerates the two-word spelling of the in-progress state.
func ParseStatus(raw string) (Status, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	name = strings.ReplaceAll(name, " ", "")
	name = strings.ReplaceAll(name, "_", "")
	name = strings.ReplaceAll(name, "-", "")
	for s, n := range statusNames {
		if n == name {
			return Status(s), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, raw)
}
