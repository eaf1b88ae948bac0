package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by repositories when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable is returned when an optional backend is not configured.
	ErrUnavailable = errors.New("service unavailable")
)

// ValidationError reports input that breaks a business rule. Field names the
// offending input (for example "monday" or "rows[2].project_id").
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// AuthorizationError reports a caller without the capability for Action.
type AuthorizationError struct {
	Action string
	Reason string
}

func (e *AuthorizationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("permission denied: cannot %s", e.Action)
	}
	return fmt.Sprintf("permission denied: cannot %s: %s", e.Action, e.Reason)
}

// StateError reports a transition attempted from a state that forbids it.
// Entity is "timesheet" or "leave"; Current is the status it was found in.
type StateError struct {
	Action  string
	Entity  string
	Current string
}

func (e *StateError) Error() string {
	if e.Entity == "timesheet" && e.Current == string(TimesheetApproved) {
		return "timesheet is approved and immutable"
	}
	return fmt.Sprintf("cannot %s %s in %s state", e.Action, e.Entity, e.Current)
}

// ConflictError reports a uniqueness violation detected by the store.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// IsValidation reports whether err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsAuthorization reports whether err is, or wraps, an *AuthorizationError.
func IsAuthorization(err error) bool {
	var a *AuthorizationError
	return errors.As(err, &a)
}

// IsState reports whether err is, or wraps, a *StateError.
func IsState(err error) bool {
	var s *StateError
	return errors.As(err, &s)
}

// IsConflict reports whether err is, or wraps, a *ConflictError.
func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}
