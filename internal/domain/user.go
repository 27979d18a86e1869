// Package domain contains the core data types for the trip planner.
// This package has zero dependencies beyond the uuid library and is
// imported by every other internal package (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an internal user record backing an external identity-provider
// subject. The ID is derived deterministically from the subject, so the
// same person always resolves to the same row.
type User struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"` // empty when the token carried no email claim
	CreatedAt  time.Time `json:"createdAt"`
	LastSeenAt time.Time `json:"lastSeenAt"`
}
