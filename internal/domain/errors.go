package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist or has been soft-deleted or archived.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing required field, event ends before it starts).
// Handlers should map this to HTTP 400.
var ErrValidation = errors.New("validation error")

// ErrForbidden is returned when an authenticated user attempts an action
// their trip membership does not permit (non-member posting, non-owner
// deleting a trip). Handlers should map this to HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrCodeTaken is returned by TripRepo.CreateWithSetup when the generated
// join code collides with an existing trip's unique code. The trip service
// treats it as retryable and draws a fresh code; it never reaches a handler.
var ErrCodeTaken = errors.New("join code already taken")
