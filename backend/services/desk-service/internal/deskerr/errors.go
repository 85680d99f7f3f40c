// Package deskerr defines the layered failure kinds of the desk service.
//
// Field validators and the lifecycle produce the specific kinds
// (ValidationError, StateError, DurationError, NotFoundError); the
// orchestrator normalizes everything it surfaces into a SessionError whose
// cause chain keeps the original kind reachable via errors.As.
package deskerr

import (
	"errors"
	"fmt"
)

// GenericMessage is the caller-visible text for failures whose detail must
// not leak past the orchestrator (persistence errors in particular).
const GenericMessage = "An error occurred. Please check your data and try again."

// ValidationError reports a rejected input field with a human-readable reason.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Validation builds a ValidationError.
func Validation(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// StateError reports an operation attempted against a session or station in
// the wrong state.
type StateError struct {
	SessionID int64
	From      string
	Op        string
}

func (e *StateError) Error() string {
	if e.SessionID == 0 {
		return fmt.Sprintf("cannot %s: station is %s", e.Op, e.From)
	}
	return fmt.Sprintf("cannot %s session %d in state %q", e.Op, e.SessionID, e.From)
}

// DurationError reports a non-positive session duration. Times are minutes
// since midnight; overnight sessions are not supported, so logout must be
// strictly after login on the same day.
type DurationError struct {
	LoginMinutes  int
	LogoutMinutes int
}

func (e *DurationError) Error() string {
	return fmt.Sprintf("logout time (%s) must be after login time (%s)",
		FormatMinutes(e.LogoutMinutes), FormatMinutes(e.LoginMinutes))
}

// NotFoundError reports a missing record.
type NotFoundError struct {
	Kind string
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

// SessionError is the single failure kind the orchestrator surfaces. Message
// is always safe to show; Cause retains the original failure for logging and
// for errors.As matching at the boundary.
type SessionError struct {
	Op      string
	Message string
	Cause   error
}

func (e *SessionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *SessionError) Unwrap() error {
	return e.Cause
}

// WrapSession normalizes a lower-layer failure into a SessionError. Specific
// kinds keep their own message; anything else (persistence failures) gets the
// generic non-technical one.
func WrapSession(op string, cause error) *SessionError {
	return &SessionError{Op: op, Message: userMessage(cause), Cause: cause}
}

func userMessage(err error) string {
	var (
		ve *ValidationError
		se *StateError
		de *DurationError
		ne *NotFoundError
	)
	switch {
	case errors.As(err, &ve):
		return ve.Reason
	case errors.As(err, &de):
		return de.Error()
	case errors.As(err, &se):
		return se.Error()
	case errors.As(err, &ne):
		return ne.Error()
	}
	return GenericMessage
}

// FormatMinutes renders minutes since midnight as a 24-hour HH:MM clock.
func FormatMinutes(m int) string {
	if m < 0 {
		m = 0
	}
	return fmt.Sprintf("%02d:%02d", (m/60)%24, m%60)
}
