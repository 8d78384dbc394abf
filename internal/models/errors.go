package models

import (
	"fmt"
	"strings"
)

// ValidationError is a user-correctable problem with the request or uploaded file.
type ValidationError struct {
	Field   string
	Missing []string
	Reason  string
}

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return "missing required columns: " + strings.Join(e.Missing, ", ")
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return e.Reason
}

// NotFoundError is returned for unknown ids and for ids owned by someone else.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// LimitExceededError is returned when an owner is at the upload limit and
// retention is configured to reject instead of evicting.
type LimitExceededError struct {
	Limit int
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("upload limit of %d datasets reached", e.Limit)
}
