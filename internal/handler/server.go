// Package handler implements the HTTP handlers for the trip planner API.
// All handlers are methods on Server. Methods are split into resource
// files (trip.go, post.go, etc.) but all share the same Server struct so
// they can access its dependencies.
package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tripcrew/tripcrew/internal/domain"
	"github.com/tripcrew/tripcrew/internal/service"
)

// IdentityServicer resolves external token identities to user records.
// Defining the interfaces here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject mocks without touching the database or service layer.
type IdentityServicer interface {
	Resolve(ctx context.Context, in service.ResolveInput) (domain.User, error)
}

// TripServicer defines the trip lifecycle operations the handlers depend on.
type TripServicer interface {
	Create(ctx context.Context, ownerID uuid.UUID, in service.CreateTripInput) (domain.Trip, error)
	Join(ctx context.Context, userID uuid.UUID, code string) (domain.Trip, error)
	List(ctx context.Context, userID uuid.UUID) ([]domain.Trip, error)
	Archive(ctx context.Context, userID, tripID uuid.UUID) error
}

// FeedServicer assembles the aggregated trip view.
type FeedServicer interface {
	TripView(ctx context.Context, viewerID, tripID uuid.UUID) (domain.TripView, error)
}

// PostServicer defines the post and post-children operations.
type PostServicer interface {
	Create(ctx context.Context, userID, tripID uuid.UUID, in service.PostInput) (domain.Post, error)
	Update(ctx context.Context, userID, postID uuid.UUID, in service.PostInput) (domain.Post, error)
	Delete(ctx context.Context, userID, postID uuid.UUID) error

	AddComment(ctx context.Context, userID, postID uuid.UUID, body string) (domain.Comment, error)
	DeleteComment(ctx context.Context, userID, commentID uuid.UUID) error

	Vote(ctx context.Context, userID, postID uuid.UUID) (domain.VoteSummary, error)
	Unvote(ctx context.Context, userID, postID uuid.UUID) (domain.VoteSummary, error)

	AddChallenge(ctx context.Context, userID, postID uuid.UUID, text string, taggedUserID *uuid.UUID) (domain.Challenge, error)
	AddLocationChallenge(ctx context.Context, userID, locationID uuid.UUID, text string, taggedUserID *uuid.UUID) (domain.Challenge, error)
	ToggleChallenge(ctx context.Context, userID, challengeID uuid.UUID) error
	DeleteChallenge(ctx context.Context, userID, challengeID uuid.UUID) error

	AttachImage(ctx context.Context, userID, postID uuid.UUID, url string) (domain.Image, error)
	AttachLocationImage(ctx context.Context, userID, locationID uuid.UUID, url string) (domain.Image, error)
	DeleteImage(ctx context.Context, userID, imageID uuid.UUID) (string, error)

	ReorderCrawl(ctx context.Context, userID, postID uuid.UUID, order []uuid.UUID) ([]domain.CrawlLocation, error)
	ToggleLocation(ctx context.Context, userID, locationID uuid.UUID) (domain.CrawlLocation, error)
}

// Uploader stores uploaded files and reports their public URL.
type Uploader interface {
	Save(src io.Reader, originalName string) (string, error)
	Remove(url string)
}

// Server holds every handler dependency. Construct with NewServer and
// mount Routes under /api.
type Server struct {
	identity IdentityServicer
	trips    TripServicer
	feed     FeedServicer
	posts    PostServicer
	uploads  Uploader
}

// NewServer constructs the Server with all its dependencies.
func NewServer(identity IdentityServicer, trips TripServicer, feed FeedServicer, posts PostServicer, uploads Uploader) *Server {
	return &Server{identity: identity, trips: trips, feed: feed, posts: posts, uploads: uploads}
}

// Routes builds the API router. auth is the bearer-token middleware; the
// health and spec routes stay outside it, everything else requires a
// verified identity.
func (s *Server) Routes(auth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/health", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Group(func(r chi.Router) {
		r.Use(auth)
		r.Post("/auth/session", s.CreateSession)

		r.Route("/trips", func(r chi.Router) {
			r.Get("/", s.ListTrips)
			r.Post("/", s.CreateTrip)
			r.Post("/join", s.JoinTrip)
			r.Get("/{tripID}", s.GetTrip)
			r.Delete("/{tripID}", s.DeleteTrip)
			r.Post("/{tripID}/posts", s.CreatePost)
		})

		r.Route("/posts/{postID}", func(r chi.Router) {
			r.Patch("/", s.UpdatePost)
			r.Delete("/", s.DeletePost)
			r.Post("/comments", s.CreateComment)
			r.Post("/votes", s.CreateVote)
			r.Delete("/votes", s.DeleteVote)
			r.Post("/challenges", s.CreateChallenge)
			r.Post("/images", s.UploadImage)
			r.Put("/crawl-locations/order", s.ReorderCrawl)
		})

		r.Delete("/comments/{commentID}", s.DeleteComment)
		r.Patch("/challenges/{challengeID}", s.ToggleChallenge)
		r.Delete("/challenges/{challengeID}", s.DeleteChallenge)
		r.Delete("/images/{imageID}", s.DeleteImage)
		r.Patch("/crawl-locations/{locationID}", s.ToggleLocation)
		r.Post("/crawl-locations/{locationID}/challenges", s.CreateLocationChallenge)
		r.Post("/crawl-locations/{locationID}/images", s.UploadLocationImage)
	})

	return r
}
