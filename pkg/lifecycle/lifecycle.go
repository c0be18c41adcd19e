// Package lifecycle defines the status machine shared by subscription and
// add-on entities: Active is the only live state, Expired and Cancelled are
// terminal. The one sanctioned way back out of a terminal state is the
// admin override, which callers are expected to log as an exceptional path.
package lifecycle

import (
	"errors"
	"fmt"
)

// Status is an entity lifecycle state.
type Status string

const (
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s admits no regular outgoing transitions.
func (s Status) Terminal() bool {
	return s == StatusExpired || s == StatusCancelled
}

var ErrInvalidStatus = errors.New("lifecycle: invalid status")

// ErrTransitionNotAllowed indicates the regular state machine has no edge
// between the two statuses.
type ErrTransitionNotAllowed struct {
	From Status
	To   Status
}

func (e *ErrTransitionNotAllowed) Error() string {
	return fmt.Sprintf("lifecycle: transition %s -> %s not allowed", e.From, e.To)
}

// transitions is the regular edge set. Terminal states have no entries.
var transitions = map[Status][]Status{
	StatusActive: {StatusExpired, StatusCancelled},
}

// CanTransition reports whether the regular machine allows from -> to.
// Self-transitions are allowed so idempotent operations (a second
// MarkExpired) stay no-ops instead of errors.
func CanTransition(from, to Status) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates a regular state change.
func Transition(from, to Status) error {
	if !from.Valid() || !to.Valid() {
		return ErrInvalidStatus
	}
	if !CanTransition(from, to) {
		return &ErrTransitionNotAllowed{From: from, To: to}
	}
	return nil
}

// TransitionAdmin validates an administrative override, which may move an
// entity between any two valid statuses, including out of terminal ones.
func TransitionAdmin(from, to Status) error {
	if !from.Valid() || !to.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// IsTransitionNotAllowed reports whether err is a rejected transition.
func IsTransitionNotAllowed(err error) bool {
	var e *ErrTransitionNotAllowed
	return errors.As(err, &e)
}
