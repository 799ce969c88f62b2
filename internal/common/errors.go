// Package common defines shared constants and sentinel errors used across
// client and server layers of Conduit. Callers should use errors.Is to
// match these values, either against a specific error or its category.
package common

import (
	"errors"
	"fmt"
)

// Error categories. Every specific error below wraps exactly one of them.
var (
	ErrValidation          = errors.New("validation error")
	ErrConflict            = errors.New("conflict")
	ErrAuthentication      = errors.New("authentication error")
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

var (
	// Registration conflicts.
	ErrEmailTaken    = fmt.Errorf("%w: email already taken", ErrConflict)
	ErrUsernameTaken = fmt.Errorf("%w: username already taken", ErrConflict)
	ErrSlugTaken     = fmt.Errorf("%w: slug already taken", ErrConflict)

	// Authentication failures.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrAuthentication)
	ErrUnauthenticated    = fmt.Errorf("%w: unauthenticated", ErrAuthentication)

	// Token lifecycle errors.
	ErrTokenExpired     = fmt.Errorf("%w: token expired", ErrAuthentication)
	ErrInvalidSignature = fmt.Errorf("%w: invalid token signature", ErrAuthentication)
	ErrMalformedToken   = fmt.Errorf("%w: malformed token", ErrAuthentication)

	// Relationship toggles.
	ErrSubjectNotFound = fmt.Errorf("%w: subject not found", ErrNotFound)
	ErrTargetNotFound  = fmt.Errorf("%w: article not found", ErrNotFound)

	ErrUserNotFound = fmt.Errorf("%w: user not found", ErrNotFound)

	ErrNotArticleAuthor = fmt.Errorf("%w: only the author may modify this article", ErrForbidden)
)

// ValidationError reports which input field was rejected and why.
// It matches ErrValidation with errors.Is.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError is a shorthand for &ValidationError{Field: field, Reason: reason}.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Unavailable wraps a storage failure so that it matches ErrUpstreamUnavailable
// while keeping the original cause in the message and the chain.
func Unavailable(cause error) error {
	return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, cause)
}
