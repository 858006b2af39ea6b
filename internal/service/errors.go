// Package service provides application-level services for managing students,
// courses, and the enrollment relationship between them.
package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Common service errors - sentinel errors used across service implementations.
// These errors represent conditions that callers may want to check for with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped with context via fmt.Errorf("%w")
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrPasswordRequired indicates a student was created without a password.
	ErrPasswordRequired = errors.New("password is required")
)

// CascadeError reports a cascading delete that completed its primary removal
// but failed one or more compensating reference removals. It is a partial
// failure: the parent entity is gone, and the listed entities may still hold
// a stale back-reference until the reconciler heals them.
type CascadeError struct {
	// Entity is the kind of entity that was deleted ("student" or "course").
	Entity string

	// DeletedID is the ID of the removed entity.
	DeletedID uuid.UUID

	// Failed lists the entities whose back-reference removal failed.
	Failed []uuid.UUID

	// Errs holds the underlying failure for each entry in Failed.
	Errs []error
}

// Error implements the error interface.
func (e *CascadeError) Error() string {
	ids := make([]string, len(e.Failed))
	for i, id := range e.Failed {
		ids[i] = id.String()
	}
	return fmt.Sprintf(
		"deleted %s %s but failed to remove %d back-reference(s): %s",
		e.Entity,
		e.DeletedID,
		len(e.Failed),
		strings.Join(ids, ", "),
	)
}

// Unwrap exposes the underlying failures for errors.Is/errors.As.
func (e *CascadeError) Unwrap() []error {
	return e.Errs
}
