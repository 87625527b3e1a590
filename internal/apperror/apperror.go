// Package apperror holds the error kinds shared by the domain packages.
// Domain sentinels wrap one of these kinds so the HTTP layer can map them
// to status codes with errors.Is without importing every domain package.
package apperror

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrForbidden      = errors.New("forbidden")
	ErrNotConfigured  = errors.New("not configured")
	ErrDelivery       = errors.New("delivery failed")
	ErrInvalidType    = errors.New("invalid type")
	ErrMissingPayload = errors.New("missing payload")
)

// ValidationError is a user-correctable input problem.
type ValidationError struct {
	Reason string
	Fields []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Reason, strings.Join(e.Fields, ", "))
}

// Missing reports every missing required field at once.
func Missing(fields ...string) *ValidationError {
	return &ValidationError{Reason: "missing required fields", Fields: fields}
}

func Invalid(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

// AsValidation unwraps err into a *ValidationError.
func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
