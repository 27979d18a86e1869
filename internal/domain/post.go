package domain

import (
	"time"

	"github.com/google/uuid"
)

// PostType discriminates the feed post variants. PIN existed in an earlier
// schema generation and was retired in favor of CRAWL; it is not accepted
// on write.
type PostType string

const (
	PostSuggestion PostType = "SUGGESTION"
	PostEvent      PostType = "EVENT"
	PostCrawl      PostType = "CRAWL"
)

// Valid reports whether t is one of the accepted post types.
func (t PostType) Valid() bool {
	switch t {
	case PostSuggestion, PostEvent, PostCrawl:
		return true
	}
	return false
}

// Bounds on crawl itineraries and post attachments.
const (
	MinCrawlStops    = 1
	MaxCrawlStops    = 12
	MaxImagesPerPost = 8
)

// TimeWindow is a from/to pair. Validation requires To strictly after From.
type TimeWindow struct {
	From time.Time `json:"fromTime"`
	To   time.Time `json:"toTime"`
}

// GeoPoint is a validated latitude/longitude pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// InRange reports whether the point is a real coordinate:
// latitude in [-90,90], longitude in [-180,180].
func (g GeoPoint) InRange() bool {
	return g.Lat >= -90 && g.Lat <= 90 && g.Lng >= -180 && g.Lng <= 180
}

// Post is a persisted feed post of any type. Which optional fields are set
// depends on Type; the service validator guarantees the per-type rules
// before a Post ever reaches the repo, and database CHECK constraints
// back the same rules up.
type Post struct {
	ID           uuid.UUID  `json:"id"`
	TripID       uuid.UUID  `json:"tripId"`
	DayNumber    *int       `json:"dayNumber,omitempty"`
	AuthorID     uuid.UUID  `json:"authorId"`
	Type         PostType   `json:"type"`
	Title        string     `json:"title,omitempty"`
	Body         string     `json:"body,omitempty"`
	EventName    string     `json:"eventName,omitempty"`
	Window       *TimeWindow `json:"window,omitempty"`
	LocationName string     `json:"locationName,omitempty"`
	Coords       *GeoPoint  `json:"coords,omitempty"`
	Deleted      bool       `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// CrawlLocation is one ordered stop of a CRAWL post. Stops own their own
// images and challenges, cascade-deleted with the stop.
type CrawlLocation struct {
	ID        uuid.UUID `json:"id"`
	PostID    uuid.UUID `json:"postId"`
	SortOrder int       `json:"sortOrder"`
	Name      string    `json:"name"`
	Coords    *GeoPoint `json:"coords,omitempty"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

// Comment is a remark on a post. Soft-deleted comments stay in the table
// but are excluded from feed reads.
type Comment struct {
	ID        uuid.UUID `json:"id"`
	PostID    uuid.UUID `json:"postId"`
	AuthorID  uuid.UUID `json:"authorId"`
	Body      string    `json:"body"`
	Deleted   bool      `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// Image is an ordered attachment on a post or a crawl stop. URL is the
// public path the file is served from, keyed by a generated filename.
type Image struct {
	ID        uuid.UUID `json:"id"`
	ParentID  uuid.UUID `json:"-"` // post id or crawl location id depending on table
	SortOrder int       `json:"sortOrder"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
}

// Challenge is a checklist item on a post or a crawl stop. Completed and
// CompletedBy are set together or both absent, enforced here by the
// service and in the schema by a CHECK constraint.
type Challenge struct {
	ID           uuid.UUID  `json:"id"`
	ParentID     uuid.UUID  `json:"-"` // post id or crawl location id depending on table
	AuthorID     uuid.UUID  `json:"authorId"`
	Text         string     `json:"text"`
	TaggedUserID *uuid.UUID `json:"taggedUserId,omitempty"`
	Completed    bool       `json:"completed"`
	CompletedBy  *uuid.UUID `json:"completedBy,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// VoteSummary is the per-post vote rollup computed for a specific reader.
type VoteSummary struct {
	Count    int      `json:"count"`
	HasVoted bool     `json:"hasVoted"`
	Voters   []string `json:"voters"` // de-duplicated display names
}
