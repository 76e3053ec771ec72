/*
errors.go - Centralized error types for the shift domain

ERROR CATEGORIES:
  1. Persistence errors - ledger read/write failures; the in-flight
     shift survives them so nothing captured is lost
  2. Configuration errors - ledger unreachable at startup; fatal
  3. Transition errors - an action invalid for the controller's current
     state; a presentation-layer contract violation, not operator input
  4. Input errors - operator-correctable validation failures

Use errors.Is with the sentinels; errors.As for the structured types.
*/
package shift

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrPersistence marks any ledger read/write failure. Surfaced
	// verbatim to the operator; never retried by the core.
	ErrPersistence = errors.New("persistence failure")

	// ErrConfiguration marks a ledger that is unreachable or
	// misconfigured at startup. Fatal for the session.
	ErrConfiguration = errors.New("ledger configuration error")

	// ErrInvalidTransition marks an action requested in a state that
	// does not allow it. This indicates a bug in the calling layer.
	ErrInvalidTransition = errors.New("invalid action for current state")

	// ErrInvalidInput marks operator input that fails validation
	// (unknown platform, negative amount, missing date).
	ErrInvalidInput = errors.New("invalid input")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// PersistenceError wraps a storage failure with the failed operation.
type PersistenceError struct {
	Op  string // e.g. "insert shift"
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// InvalidTransitionError reports which action was attempted in which
// state. Treated as an assertion failure by callers.
type InvalidTransitionError struct {
	State  State
	Action string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("action %q is not valid in state %q", e.Action, e.State)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }
