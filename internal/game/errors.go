package game

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks. The concrete error types below match them.
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidState  = errors.New("invalid state")
	ErrDataIntegrity = errors.New("data integrity")
	ErrValidation    = errors.New("validation failed")
)

// SessionNotFoundError is returned when no session exists for an id.
type SessionNotFoundError struct {
	ID string
}

func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("game session %q not found", e.ID)
}

func (e *SessionNotFoundError) Is(target error) bool { return target == ErrNotFound }

// AssociationNotFoundError is returned when the catalog has nothing to play.
// Number is nil when a random primary association was requested.
type AssociationNotFoundError struct {
	Number *int
}

func (e *AssociationNotFoundError) Error() string {
	if e.Number == nil {
		return "no associations available"
	}
	return fmt.Sprintf("association for number %d not found", *e.Number)
}

func (e *AssociationNotFoundError) Is(target error) bool { return target == ErrNotFound }

// InvalidStateError is returned for operations the session status forbids.
type InvalidStateError struct {
	SessionID string
	Status    Status
	Msg       string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s (session %s, status %s)", e.Msg, e.SessionID, e.Status)
}

func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

// DataIntegrityError means a stored session cannot be evaluated.
// It is never reported as a wrong answer.
type DataIntegrityError struct {
	SessionID string
	Reason    string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("session %s: %s", e.SessionID, e.Reason)
}

func (e *DataIntegrityError) Is(target error) bool { return target == ErrDataIntegrity }

// ValidationError describes malformed input rejected before the engine runs.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Msg
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
