package actor

import "errors"

var (
	ErrStateNotFound = errors.New("actor: state not found")
	ErrRuntimeClosed = errors.New("actor: runtime is closed")
	ErrNilTurn       = errors.New("actor: turn function cannot be nil")
	ErrTurnPanic     = errors.New("actor: turn panicked")
)
