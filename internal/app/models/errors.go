package models

import "errors"

// Domain errors shared across repositories, services and handlers.
// Handlers translate these into HTTP status codes; nothing below the
// handler layer knows about HTTP.
var (
	ErrNotFound        = errors.New("requested item not found")
	ErrConflict        = errors.New("item already exists or conflict")
	ErrUnauthenticated = errors.New("authentication required or invalid credentials")
	ErrForbidden       = errors.New("action forbidden")
	ErrValidation      = errors.New("validation failed")
	// ErrNoLocation marks proximity operations on a user without a current
	// location. Distinct from ErrNotFound so callers can distinguish "no
	// center to query from" from a missing entity.
	ErrNoLocation = errors.New("user has no current location")
)
