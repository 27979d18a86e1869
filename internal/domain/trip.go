package domain

import (
	"time"

	"github.com/google/uuid"
)

// MemberRole distinguishes the trip creator from everyone who joined later.
type MemberRole string

const (
	RoleOwner  MemberRole = "OWNER"
	RoleMember MemberRole = "MEMBER"
)

// Day count bounds enforced at trip creation and by a database CHECK.
const (
	MinDayCount = 1
	MaxDayCount = 60
)

// Trip is the top-level aggregate. Everything else (members, days, posts
// and their children) hangs off a trip and is cascade-deleted with it.
// Trips are never hard-deleted through the API; Archived is the soft-delete
// flag and archived trips are excluded from reads.
type Trip struct {
	ID          uuid.UUID  `json:"id"`
	Code        string     `json:"code"` // 8-char join code, unique across all trips
	Name        string     `json:"name"`
	Destination string     `json:"destination"`
	StartDate   *time.Time `json:"startDate,omitempty"` // date-only; nil when the trip is undated
	DayCount    int        `json:"dayCount"`
	OwnerID     uuid.UUID  `json:"ownerId"`
	Archived    bool       `json:"archived"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TripMember links a user to a trip. The (TripID, UserID) pair is the
// primary key: re-joining reactivates the existing row rather than
// inserting a duplicate. Owners are never removed, only deactivated when
// the trip is archived.
type TripMember struct {
	TripID   uuid.UUID  `json:"tripId"`
	UserID   uuid.UUID  `json:"userId"`
	Role     MemberRole `json:"role"`
	Active   bool       `json:"active"`
	JoinedAt time.Time  `json:"joinedAt"`
}

// TripDay is one numbered day of a trip, generated once at creation for
// every number 1..DayCount. Posts reference (TripID, DayNumber) as a
// composite foreign key so a post's day can never belong to another trip.
type TripDay struct {
	TripID    uuid.UUID  `json:"tripId"`
	DayNumber int        `json:"dayNumber"`
	Date      *time.Time `json:"date,omitempty"` // start date + (DayNumber-1) days, nil for undated trips
	Label     string     `json:"label"`
}
