package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across layers.
var (
	ErrNotFound       = errors.New("not found")
	ErrNoSession      = errors.New("no active session")
	ErrSessionActive  = errors.New("a session is already active")
	ErrSessionEnded   = errors.New("session already ended")
	ErrSessionPaused  = errors.New("session is paused")
	ErrNoMoreSteps    = errors.New("no more steps in recipe")
	ErrNoEarlierSteps = errors.New("no earlier step to return to")
	ErrBadServings    = errors.New("servings must be positive")
	ErrBadDuration    = errors.New("duration must be positive")
)

// ConversionError reports a measurement conversion that cannot be
// performed: unknown units, incompatible categories, or temperature
// units passed to the factor-based converter. Callers match it with
// errors.As.
type ConversionError struct {
	Amount   float64
	FromUnit string
	ToUnit   string
	Reason   string
}

// Error implements the error interface.
func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert %g %s to %s: %s", e.Amount, e.FromUnit, e.ToUnit, e.Reason)
}
