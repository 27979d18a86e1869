package service_test

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripcrew/tripcrew/internal/domain"
	"github.com/tripcrew/tripcrew/internal/service"
)

// postServiceFixture bundles a PostService with the mocks behind it so
// individual tests can override single methods.
type postServiceFixture struct {
	trips      *mockTripRepo
	members    *mockMemberRepo
	posts      *mockPostRepo
	comments   *mockCommentRepo
	votes      *mockVoteRepo
	challenges *mockChallengeRepo
	crawl      *mockCrawlRepo
	images     *mockImageRepo

	trip domain.Trip
	post domain.Post
}

// newPostFixture wires a PostService over one live trip containing one
// suggestion post. Every membership check passes by default.
func newPostFixture() *postServiceFixture {
	trip := domain.Trip{ID: uuid.New(), Name: "Lisbon Week", DayCount: 5}
	post := domain.Post{
		ID:       uuid.New(),
		TripID:   trip.ID,
		AuthorID: uuid.New(),
		Type:     domain.PostSuggestion,
		Title:    "Pastel de nata crawl?",
	}

	f := &postServiceFixture{
		trips: &mockTripRepo{
			getByID: func(_ context.Context, id uuid.UUID) (domain.Trip, error) {
				if id == trip.ID {
					return trip, nil
				}
				return domain.Trip{}, domain.ErrNotFound
			},
		},
		members: allowAll(),
		posts: &mockPostRepo{
			create: func(_ context.Context, p domain.Post, _ []domain.CrawlLocation) (domain.Post, error) {
				p.ID = uuid.New()
				return p, nil
			},
			getByID: func(_ context.Context, id uuid.UUID) (domain.Post, error) {
				if id == post.ID {
					return post, nil
				}
				return domain.Post{}, domain.ErrNotFound
			},
			update:      func(_ context.Context, p domain.Post) (domain.Post, error) { return p, nil },
			softDelete:  func(context.Context, uuid.UUID) error { return nil },
			countImages: func(context.Context, uuid.UUID) (int, error) { return 0, nil },
		},
		comments: &mockCommentRepo{
			create: func(_ context.Context, c domain.Comment) (domain.Comment, error) {
				c.ID = uuid.New()
				return c, nil
			},
		},
		votes:      &mockVoteRepo{},
		challenges: &mockChallengeRepo{},
		crawl:      &mockCrawlRepo{},
		images:     &mockImageRepo{},
		trip:       trip,
		post:       post,
	}
	return f
}

func (f *postServiceFixture) service() *service.PostService {
	return service.NewPostService(f.trips, f.members, f.posts, f.comments, f.votes, f.challenges, f.crawl, f.images)
}

func window(fromHour, toHour int) (*time.Time, *time.Time) {
	from := time.Date(2026, 9, 2, fromHour, 0, 0, 0, time.UTC)
	to := time.Date(2026, 9, 2, toHour, 0, 0, 0, time.UTC)
	return &from, &to
}

func day(n int) *int { return &n }

// ---- Create validation -----------------------------------------------------

func TestPostService_Create_Validation(t *testing.T) {
	from, to := window(18, 22)
	stop := service.StopInput{Name: "Park Bar"}

	tests := []struct {
		name    string
		in      service.PostInput
		wantErr bool
	}{
		{"suggestion with title", service.PostInput{Type: domain.PostSuggestion, Title: "Tapas?"}, false},
		{"suggestion with body only", service.PostInput{Type: domain.PostSuggestion, Body: "thoughts?"}, false},
		{"suggestion with neither", service.PostInput{Type: domain.PostSuggestion}, true},
		{"unknown type", service.PostInput{Type: "PIN", Title: "old style"}, true},

		{"valid event", service.PostInput{Type: domain.PostEvent, EventName: "Fado night", From: from, To: to, DayNumber: day(2)}, false},
		{"event missing name", service.PostInput{Type: domain.PostEvent, From: from, To: to, DayNumber: day(2)}, true},
		{"event missing window", service.PostInput{Type: domain.PostEvent, EventName: "Fado night", DayNumber: day(2)}, true},
		{"event missing day", service.PostInput{Type: domain.PostEvent, EventName: "Fado night", From: from, To: to}, true},
		{"event day out of range", service.PostInput{Type: domain.PostEvent, EventName: "Fado night", From: from, To: to, DayNumber: day(6)}, true},
		{"event window inverted", service.PostInput{Type: domain.PostEvent, EventName: "Fado night", From: to, To: from, DayNumber: day(2)}, true},
		{"event window zero length", service.PostInput{Type: domain.PostEvent, EventName: "Fado night", From: from, To: from, DayNumber: day(2)}, true},
		{"event half window", service.PostInput{Type: domain.PostEvent, EventName: "Fado night", From: from, DayNumber: day(2)}, true},

		{"valid crawl", service.PostInput{Type: domain.PostCrawl, Title: "Bar crawl", From: from, To: to, Stops: []service.StopInput{stop}}, false},
		{"crawl missing title", service.PostInput{Type: domain.PostCrawl, From: from, To: to, Stops: []service.StopInput{stop}}, true},
		{"crawl missing window", service.PostInput{Type: domain.PostCrawl, Title: "Bar crawl", Stops: []service.StopInput{stop}}, true},
		{"crawl no stops", service.PostInput{Type: domain.PostCrawl, Title: "Bar crawl", From: from, To: to}, true},
		{"crawl unnamed stop", service.PostInput{Type: domain.PostCrawl, Title: "Bar crawl", From: from, To: to, Stops: []service.StopInput{{}}}, true},
		{"coords out of range", service.PostInput{Type: domain.PostSuggestion, Title: "x", Coords: &domain.GeoPoint{Lat: 91}}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newPostFixture()
			_, err := f.service().Create(context.Background(), uuid.New(), f.trip.ID, tc.in)
			if tc.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPostService_Create_TooManyStops(t *testing.T) {
	f := newPostFixture()
	from, to := window(18, 22)

	stops := make([]service.StopInput, domain.MaxCrawlStops+1)
	for i := range stops {
		stops[i] = service.StopInput{Name: "Stop"}
	}

	_, err := f.service().Create(context.Background(), uuid.New(), f.trip.ID, service.PostInput{
		Type: domain.PostCrawl, Title: "Mega crawl", From: from, To: to, Stops: stops,
	})

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestPostService_Create_MaxStopsAccepted(t *testing.T) {
	f := newPostFixture()
	from, to := window(18, 22)

	stops := make([]service.StopInput, domain.MaxCrawlStops)
	for i := range stops {
		stops[i] = service.StopInput{Name: "Stop"}
	}

	_, err := f.service().Create(context.Background(), uuid.New(), f.trip.ID, service.PostInput{
		Type: domain.PostCrawl, Title: "Mega crawl", From: from, To: to, Stops: stops,
	})

	assert.NoError(t, err, "a crawl at the stop limit is valid")
}

func TestPostService_Create_CrawlBackfillsLocationFromFirstStop(t *testing.T) {
	f := newPostFixture()
	from, to := window(18, 22)

	var created domain.Post
	f.posts.create = func(_ context.Context, p domain.Post, _ []domain.CrawlLocation) (domain.Post, error) {
		created = p
		return p, nil
	}

	_, err := f.service().Create(context.Background(), uuid.New(), f.trip.ID, service.PostInput{
		Type: domain.PostCrawl, Title: "Bar crawl", From: from, To: to,
		Stops: []service.StopInput{{Name: "Park Bar", Coords: &domain.GeoPoint{Lat: 38.71, Lng: -9.14}}},
	})

	require.NoError(t, err)
	assert.Equal(t, "Park Bar", created.LocationName)
	require.NotNil(t, created.Coords)
	assert.InDelta(t, 38.71, created.Coords.Lat, 1e-9)
}

func TestPostService_Create_TruncatesLongTitle(t *testing.T) {
	f := newPostFixture()

	var created domain.Post
	f.posts.create = func(_ context.Context, p domain.Post, _ []domain.CrawlLocation) (domain.Post, error) {
		created = p
		return p, nil
	}

	long := strings.Repeat("x", 500)
	_, err := f.service().Create(context.Background(), uuid.New(), f.trip.ID, service.PostInput{
		Type: domain.PostSuggestion, Title: long,
	})

	require.NoError(t, err)
	assert.Len(t, created.Title, 200, "over-long titles are cut, not rejected")
}

func TestPostService_Create_TruncationKeepsValidUTF8(t *testing.T) {
	f := newPostFixture()

	var created domain.Post
	f.posts.create = func(_ context.Context, p domain.Post, _ []domain.CrawlLocation) (domain.Post, error) {
		created = p
		return p, nil
	}

	// 100 three-byte runes: the 200-byte cap lands mid-rune.
	long := strings.Repeat("€", 100)
	_, err := f.service().Create(context.Background(), uuid.New(), f.trip.ID, service.PostInput{
		Type: domain.PostSuggestion, Title: long,
	})

	require.NoError(t, err)
	assert.True(t, utf8.ValidString(created.Title), "the cut must land on a rune boundary")
	assert.LessOrEqual(t, len(created.Title), 200)
	assert.Equal(t, strings.Repeat("€", 66), created.Title)
}

func TestPostService_Create_NonMember(t *testing.T) {
	f := newPostFixture()
	f.members.isMember = func(context.Context, uuid.UUID, uuid.UUID) (bool, error) { return false, nil }

	_, err := f.service().Create(context.Background(), uuid.New(), f.trip.ID, service.PostInput{
		Type: domain.PostSuggestion, Title: "Tapas?",
	})

	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestPostService_Create_ArchivedTripReadsAsMissing(t *testing.T) {
	f := newPostFixture()
	f.trip.Archived = true
	archived := f.trip
	f.trips.getByID = func(context.Context, uuid.UUID) (domain.Trip, error) { return archived, nil }

	_, err := f.service().Create(context.Background(), uuid.New(), f.trip.ID, service.PostInput{
		Type: domain.PostSuggestion, Title: "Tapas?",
	})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ---- Update / Delete -------------------------------------------------------

func TestPostService_Update_AuthorOnly(t *testing.T) {
	f := newPostFixture()

	_, err := f.service().Update(context.Background(), uuid.New(), f.post.ID, service.PostInput{
		Title: "hijacked",
	})

	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestPostService_Update_TypeIsImmutable(t *testing.T) {
	f := newPostFixture()

	var updated domain.Post
	f.posts.update = func(_ context.Context, p domain.Post) (domain.Post, error) {
		updated = p
		return p, nil
	}

	_, err := f.service().Update(context.Background(), f.post.AuthorID, f.post.ID, service.PostInput{
		Type:  domain.PostEvent, // attempt to switch type is ignored
		Title: "Still a suggestion",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.PostSuggestion, updated.Type)
	assert.Equal(t, "Still a suggestion", updated.Title)
}

func TestPostService_Delete_AuthorOrOwner(t *testing.T) {
	f := newPostFixture()
	deleted := false
	f.posts.softDelete = func(context.Context, uuid.UUID) error { deleted = true; return nil }

	// A random member who is not the owner cannot delete.
	f.members.isOwner = func(context.Context, uuid.UUID, uuid.UUID) (bool, error) { return false, nil }
	err := f.service().Delete(context.Background(), uuid.New(), f.post.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.False(t, deleted)

	// The author can.
	require.NoError(t, f.service().Delete(context.Background(), f.post.AuthorID, f.post.ID))
	assert.True(t, deleted)

	// So can the trip owner.
	deleted = false
	f.members.isOwner = func(context.Context, uuid.UUID, uuid.UUID) (bool, error) { return true, nil }
	require.NoError(t, f.service().Delete(context.Background(), uuid.New(), f.post.ID))
	assert.True(t, deleted)
}

// ---- Comments --------------------------------------------------------------

func TestPostService_AddComment_BlankBody(t *testing.T) {
	f := newPostFixture()

	_, err := f.service().AddComment(context.Background(), uuid.New(), f.post.ID, "   ")

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestPostService_AddComment(t *testing.T) {
	f := newPostFixture()
	userID := uuid.New()

	got, err := f.service().AddComment(context.Background(), userID, f.post.ID, "  count me in  ")

	require.NoError(t, err)
	assert.Equal(t, "count me in", got.Body, "bodies are trimmed")
	assert.Equal(t, userID, got.AuthorID)
}

// ---- Votes -----------------------------------------------------------------

func TestPostService_Vote_ReturnsSummary(t *testing.T) {
	f := newPostFixture()
	userID := uuid.New()
	f.votes.add = func(context.Context, uuid.UUID, uuid.UUID) error { return nil }
	f.votes.summary = func(context.Context, uuid.UUID, uuid.UUID) (domain.VoteSummary, error) {
		return domain.VoteSummary{Count: 3, HasVoted: true, Voters: []string{"Ada", "Ben"}}, nil
	}

	got, err := f.service().Vote(context.Background(), userID, f.post.ID)

	require.NoError(t, err)
	assert.Equal(t, 3, got.Count)
	assert.True(t, got.HasVoted)
}

func TestPostService_Vote_NonMember(t *testing.T) {
	f := newPostFixture()
	f.members.isMember = func(context.Context, uuid.UUID, uuid.UUID) (bool, error) { return false, nil }

	_, err := f.service().Vote(context.Background(), uuid.New(), f.post.ID)

	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// ---- Challenges ------------------------------------------------------------

func TestPostService_ToggleChallenge(t *testing.T) {
	f := newPostFixture()
	userID := uuid.New()
	challenge := domain.Challenge{ID: uuid.New(), ParentID: f.post.ID, AuthorID: uuid.New()}

	var gotCompletedBy *uuid.UUID
	set := false
	f.challenges.get = func(context.Context, uuid.UUID) (domain.Challenge, uuid.UUID, error) {
		return challenge, f.post.ID, nil
	}
	f.challenges.setCompletion = func(_ context.Context, _ uuid.UUID, completedBy *uuid.UUID) error {
		set = true
		gotCompletedBy = completedBy
		return nil
	}

	// Not yet completed: toggling completes it as the caller.
	require.NoError(t, f.service().ToggleChallenge(context.Background(), userID, challenge.ID))
	require.True(t, set)
	require.NotNil(t, gotCompletedBy)
	assert.Equal(t, userID, *gotCompletedBy)

	// Already completed: toggling clears it.
	challenge.Completed = true
	f.challenges.get = func(context.Context, uuid.UUID) (domain.Challenge, uuid.UUID, error) {
		return challenge, f.post.ID, nil
	}
	require.NoError(t, f.service().ToggleChallenge(context.Background(), userID, challenge.ID))
	assert.Nil(t, gotCompletedBy)
}

func TestPostService_DeleteChallenge_AuthorOnly(t *testing.T) {
	f := newPostFixture()
	author := uuid.New()
	challenge := domain.Challenge{ID: uuid.New(), ParentID: f.post.ID, AuthorID: author}
	f.challenges.get = func(context.Context, uuid.UUID) (domain.Challenge, uuid.UUID, error) {
		return challenge, f.post.ID, nil
	}
	deleted := false
	f.challenges.delete = func(context.Context, uuid.UUID) error { deleted = true; return nil }

	err := f.service().DeleteChallenge(context.Background(), uuid.New(), challenge.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.False(t, deleted)

	require.NoError(t, f.service().DeleteChallenge(context.Background(), author, challenge.ID))
	assert.True(t, deleted)
}

// ---- Images ----------------------------------------------------------------

func TestPostService_AttachImage_CapEnforced(t *testing.T) {
	f := newPostFixture()
	f.posts.countImages = func(context.Context, uuid.UUID) (int, error) {
		return domain.MaxImagesPerPost, nil
	}

	_, err := f.service().AttachImage(context.Background(), uuid.New(), f.post.ID, "/uploads/x.jpg")

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestPostService_AttachImage(t *testing.T) {
	f := newPostFixture()
	f.images.createForPost = func(_ context.Context, img domain.Image) (domain.Image, error) {
		img.ID = uuid.New()
		return img, nil
	}

	got, err := f.service().AttachImage(context.Background(), uuid.New(), f.post.ID, "/uploads/x.jpg")

	require.NoError(t, err)
	assert.Equal(t, "/uploads/x.jpg", got.URL)
	assert.Equal(t, f.post.ID, got.ParentID)
}

func TestPostService_AttachLocationImage(t *testing.T) {
	f := newPostFixture()
	loc := domain.CrawlLocation{ID: uuid.New(), PostID: f.post.ID, Name: "Park Bar"}
	f.crawl.getLocation = func(context.Context, uuid.UUID) (domain.CrawlLocation, error) { return loc, nil }
	f.images.countForLocation = func(context.Context, uuid.UUID) (int, error) { return 0, nil }
	f.images.createForLocation = func(_ context.Context, img domain.Image) (domain.Image, error) {
		img.ID = uuid.New()
		return img, nil
	}

	got, err := f.service().AttachLocationImage(context.Background(), uuid.New(), loc.ID, "/uploads/x.jpg")

	require.NoError(t, err)
	assert.Equal(t, "/uploads/x.jpg", got.URL)
	assert.Equal(t, loc.ID, got.ParentID)
}

func TestPostService_AttachLocationImage_CapEnforced(t *testing.T) {
	f := newPostFixture()
	loc := domain.CrawlLocation{ID: uuid.New(), PostID: f.post.ID, Name: "Park Bar"}
	f.crawl.getLocation = func(context.Context, uuid.UUID) (domain.CrawlLocation, error) { return loc, nil }
	f.images.countForLocation = func(context.Context, uuid.UUID) (int, error) {
		return domain.MaxImagesPerPost, nil
	}

	_, err := f.service().AttachLocationImage(context.Background(), uuid.New(), loc.ID, "/uploads/x.jpg")

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestPostService_AttachLocationImage_NonMember(t *testing.T) {
	f := newPostFixture()
	loc := domain.CrawlLocation{ID: uuid.New(), PostID: f.post.ID, Name: "Park Bar"}
	f.crawl.getLocation = func(context.Context, uuid.UUID) (domain.CrawlLocation, error) { return loc, nil }
	f.members.isMember = func(context.Context, uuid.UUID, uuid.UUID) (bool, error) { return false, nil }

	_, err := f.service().AttachLocationImage(context.Background(), uuid.New(), loc.ID, "/uploads/x.jpg")

	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// ---- Crawl operations ------------------------------------------------------

func TestPostService_ReorderCrawl_RejectsNonCrawl(t *testing.T) {
	f := newPostFixture() // fixture post is a SUGGESTION

	_, err := f.service().ReorderCrawl(context.Background(), uuid.New(), f.post.ID, []uuid.UUID{uuid.New()})

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestPostService_ToggleLocation(t *testing.T) {
	f := newPostFixture()
	loc := domain.CrawlLocation{ID: uuid.New(), PostID: f.post.ID, Name: "Park Bar", Completed: false}
	f.crawl.getLocation = func(context.Context, uuid.UUID) (domain.CrawlLocation, error) { return loc, nil }

	var setTo bool
	f.crawl.setCompleted = func(_ context.Context, _ uuid.UUID, completed bool) error {
		setTo = completed
		return nil
	}

	got, err := f.service().ToggleLocation(context.Background(), uuid.New(), loc.ID)

	require.NoError(t, err)
	assert.True(t, setTo, "an incomplete stop toggles to completed")
	assert.True(t, got.Completed)
}
