package errors

import (
	"fmt"
)

// ErrNotFound is returned when a referenced entity does not exist
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnauthorized is returned when authentication fails
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrForbidden is returned when an authenticated caller lacks a permission
type ErrForbidden struct {
	Permission string
}

func (e *ErrForbidden) Error() string {
	if e.Permission != "" {
		return fmt.Sprintf("missing permission: %s", e.Permission)
	}
	return "forbidden"
}

// ErrValidation is returned when a business-rule precondition fails
type ErrValidation struct {
	Message string
	Fields  map[string]string
}

func (e *ErrValidation) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "validation failed"
}

// ErrConflict is returned when an operation collides with existing state,
// e.g. deleting an entity that still has active dependents
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "conflict"
}

// ErrInvalidStateTransition is returned when a status transition is not legal
type ErrInvalidStateTransition struct {
	From string
	To   string
}

func (e *ErrInvalidStateTransition) Error() string {
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}

// ErrRetryNotAllowed is returned when the retry workflow is gated off
type ErrRetryNotAllowed struct {
	Reason string
}

func (e *ErrRetryNotAllowed) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("retry not allowed: %s", e.Reason)
	}
	return "retry not allowed"
}
