package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tripcrew/tripcrew/internal/domain"
	"github.com/tripcrew/tripcrew/internal/handler"
	"github.com/tripcrew/tripcrew/internal/middleware"
	"github.com/tripcrew/tripcrew/internal/service"
)

// Test doubles for the handler's service interfaces. Set only the method
// fields your test needs.

type mockIdentityServicer struct {
	resolve func(ctx context.Context, in service.ResolveInput) (domain.User, error)
}

func (m *mockIdentityServicer) Resolve(ctx context.Context, in service.ResolveInput) (domain.User, error) {
	return m.resolve(ctx, in)
}

var _ handler.IdentityServicer = (*mockIdentityServicer)(nil)

type mockTripServicer struct {
	create  func(ctx context.Context, ownerID uuid.UUID, in service.CreateTripInput) (domain.Trip, error)
	join    func(ctx context.Context, userID uuid.UUID, code string) (domain.Trip, error)
	list    func(ctx context.Context, userID uuid.UUID) ([]domain.Trip, error)
	archive func(ctx context.Context, userID, tripID uuid.UUID) error
}

func (m *mockTripServicer) Create(ctx context.Context, ownerID uuid.UUID, in service.CreateTripInput) (domain.Trip, error) {
	return m.create(ctx, ownerID, in)
}
func (m *mockTripServicer) Join(ctx context.Context, userID uuid.UUID, code string) (domain.Trip, error) {
	return m.join(ctx, userID, code)
}
func (m *mockTripServicer) List(ctx context.Context, userID uuid.UUID) ([]domain.Trip, error) {
	return m.list(ctx, userID)
}
func (m *mockTripServicer) Archive(ctx context.Context, userID, tripID uuid.UUID) error {
	return m.archive(ctx, userID, tripID)
}

var _ handler.TripServicer = (*mockTripServicer)(nil)

type mockFeedServicer struct {
	tripView func(ctx context.Context, viewerID, tripID uuid.UUID) (domain.TripView, error)
}

func (m *mockFeedServicer) TripView(ctx context.Context, viewerID, tripID uuid.UUID) (domain.TripView, error) {
	return m.tripView(ctx, viewerID, tripID)
}

var _ handler.FeedServicer = (*mockFeedServicer)(nil)

type mockPostServicer struct {
	create               func(ctx context.Context, userID, tripID uuid.UUID, in service.PostInput) (domain.Post, error)
	update               func(ctx context.Context, userID, postID uuid.UUID, in service.PostInput) (domain.Post, error)
	delete               func(ctx context.Context, userID, postID uuid.UUID) error
	addComment           func(ctx context.Context, userID, postID uuid.UUID, body string) (domain.Comment, error)
	deleteComment        func(ctx context.Context, userID, commentID uuid.UUID) error
	vote                 func(ctx context.Context, userID, postID uuid.UUID) (domain.VoteSummary, error)
	unvote               func(ctx context.Context, userID, postID uuid.UUID) (domain.VoteSummary, error)
	addChallenge         func(ctx context.Context, userID, postID uuid.UUID, text string, taggedUserID *uuid.UUID) (domain.Challenge, error)
	addLocationChallenge func(ctx context.Context, userID, locationID uuid.UUID, text string, taggedUserID *uuid.UUID) (domain.Challenge, error)
	toggleChallenge      func(ctx context.Context, userID, challengeID uuid.UUID) error
	deleteChallenge      func(ctx context.Context, userID, challengeID uuid.UUID) error
	attachImage          func(ctx context.Context, userID, postID uuid.UUID, url string) (domain.Image, error)
	attachLocationImage  func(ctx context.Context, userID, locationID uuid.UUID, url string) (domain.Image, error)
	deleteImage          func(ctx context.Context, userID, imageID uuid.UUID) (string, error)
	reorderCrawl         func(ctx context.Context, userID, postID uuid.UUID, order []uuid.UUID) ([]domain.CrawlLocation, error)
	toggleLocation       func(ctx context.Context, userID, locationID uuid.UUID) (domain.CrawlLocation, error)
}

func (m *mockPostServicer) Create(ctx context.Context, userID, tripID uuid.UUID, in service.PostInput) (domain.Post, error) {
	return m.create(ctx, userID, tripID, in)
}
func (m *mockPostServicer) Update(ctx context.Context, userID, postID uuid.UUID, in service.PostInput) (domain.Post, error) {
	return m.update(ctx, userID, postID, in)
}
func (m *mockPostServicer) Delete(ctx context.Context, userID, postID uuid.UUID) error {
	return m.delete(ctx, userID, postID)
}
func (m *mockPostServicer) AddComment(ctx context.Context, userID, postID uuid.UUID, body string) (domain.Comment, error) {
	return m.addComment(ctx, userID, postID, body)
}
func (m *mockPostServicer) DeleteComment(ctx context.Context, userID, commentID uuid.UUID) error {
	return m.deleteComment(ctx, userID, commentID)
}
func (m *mockPostServicer) Vote(ctx context.Context, userID, postID uuid.UUID) (domain.VoteSummary, error) {
	return m.vote(ctx, userID, postID)
}
func (m *mockPostServicer) Unvote(ctx context.Context, userID, postID uuid.UUID) (domain.VoteSummary, error) {
	return m.unvote(ctx, userID, postID)
}
func (m *mockPostServicer) AddChallenge(ctx context.Context, userID, postID uuid.UUID, text string, taggedUserID *uuid.UUID) (domain.Challenge, error) {
	return m.addChallenge(ctx, userID, postID, text, taggedUserID)
}
func (m *mockPostServicer) AddLocationChallenge(ctx context.Context, userID, locationID uuid.UUID, text string, taggedUserID *uuid.UUID) (domain.Challenge, error) {
	return m.addLocationChallenge(ctx, userID, locationID, text, taggedUserID)
}
func (m *mockPostServicer) ToggleChallenge(ctx context.Context, userID, challengeID uuid.UUID) error {
	return m.toggleChallenge(ctx, userID, challengeID)
}
func (m *mockPostServicer) DeleteChallenge(ctx context.Context, userID, challengeID uuid.UUID) error {
	return m.deleteChallenge(ctx, userID, challengeID)
}
func (m *mockPostServicer) AttachImage(ctx context.Context, userID, postID uuid.UUID, url string) (domain.Image, error) {
	return m.attachImage(ctx, userID, postID, url)
}
func (m *mockPostServicer) AttachLocationImage(ctx context.Context, userID, locationID uuid.UUID, url string) (domain.Image, error) {
	return m.attachLocationImage(ctx, userID, locationID, url)
}
func (m *mockPostServicer) DeleteImage(ctx context.Context, userID, imageID uuid.UUID) (string, error) {
	return m.deleteImage(ctx, userID, imageID)
}
func (m *mockPostServicer) ReorderCrawl(ctx context.Context, userID, postID uuid.UUID, order []uuid.UUID) ([]domain.CrawlLocation, error) {
	return m.reorderCrawl(ctx, userID, postID, order)
}
func (m *mockPostServicer) ToggleLocation(ctx context.Context, userID, locationID uuid.UUID) (domain.CrawlLocation, error) {
	return m.toggleLocation(ctx, userID, locationID)
}

var _ handler.PostServicer = (*mockPostServicer)(nil)

type mockUploader struct {
	save    func(src io.Reader, originalName string) (string, error)
	removed []string
}

func (m *mockUploader) Save(src io.Reader, originalName string) (string, error) {
	return m.save(src, originalName)
}
func (m *mockUploader) Remove(url string) { m.removed = append(m.removed, url) }

var _ handler.Uploader = (*mockUploader)(nil)

// ---- helpers ---------------------------------------------------------------

// testUser is the identity every test request carries.
var testUser = domain.User{ID: uuid.New(), Name: "Ada", Email: "ada@example.com"}

// passthroughIdentity resolves every request to testUser.
func passthroughIdentity() *mockIdentityServicer {
	return &mockIdentityServicer{
		resolve: func(context.Context, service.ResolveInput) (domain.User, error) {
			return testUser, nil
		},
	}
}

// testAuth injects a fixed identity, standing in for the JWT middleware.
func testAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := middleware.WithIdentity(r.Context(), middleware.Identity{
			Subject: "test|" + testUser.ID.String(),
			Email:   testUser.Email,
			Name:    testUser.Name,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// serverFixture bundles a routed handler with the mocks behind it.
type serverFixture struct {
	trips   *mockTripServicer
	feed    *mockFeedServicer
	posts   *mockPostServicer
	uploads *mockUploader
}

func newFixture() *serverFixture {
	return &serverFixture{
		trips:   &mockTripServicer{},
		feed:    &mockFeedServicer{},
		posts:   &mockPostServicer{},
		uploads: &mockUploader{},
	}
}

func (f *serverFixture) router() http.Handler {
	srv := handler.NewServer(passthroughIdentity(), f.trips, f.feed, f.posts, f.uploads)
	return srv.Routes(testAuth)
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

// decodeError parses the standard error envelope.
func decodeError(t *testing.T, body io.Reader) (code, message string) {
	t.Helper()
	var resp struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp.Error.Code, resp.Error.Message
}
