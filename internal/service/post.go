package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tripcrew/tripcrew/internal/domain"
	"github.com/tripcrew/tripcrew/internal/repo"
)

// PostService implements business logic for feed posts and their children:
// comments, votes, challenges, images, and crawl stops. Every mutation is
// authorized against the trip's membership before touching data.
type PostService struct {
	trips      repo.TripRepo
	members    repo.MemberRepo
	posts      repo.PostRepo
	comments   repo.CommentRepo
	votes      repo.VoteRepo
	challenges repo.ChallengeRepo
	crawl      repo.CrawlRepo
	images     repo.ImageRepo
}

// NewPostService constructs a PostService backed by the provided repos.
func NewPostService(
	trips repo.TripRepo,
	members repo.MemberRepo,
	posts repo.PostRepo,
	comments repo.CommentRepo,
	votes repo.VoteRepo,
	challenges repo.ChallengeRepo,
	crawl repo.CrawlRepo,
	images repo.ImageRepo,
) *PostService {
	return &PostService{
		trips:      trips,
		members:    members,
		posts:      posts,
		comments:   comments,
		votes:      votes,
		challenges: challenges,
		crawl:      crawl,
		images:     images,
	}
}

// Create validates and persists a new post on the trip. Members only.
// CRAWL posts are created atomically with their stops.
func (s *PostService) Create(ctx context.Context, userID, tripID uuid.UUID, in PostInput) (domain.Post, error) {
	trip, err := s.liveTrip(ctx, tripID)
	if err != nil {
		return domain.Post{}, fmt.Errorf("service.PostService.Create: %w", err)
	}
	if err := s.requireMember(ctx, tripID, userID); err != nil {
		return domain.Post{}, fmt.Errorf("service.PostService.Create: %w", err)
	}

	var stops []domain.CrawlLocation
	if in.Type == domain.PostCrawl {
		stops, err = validateStops(in.Stops)
		if err != nil {
			return domain.Post{}, err
		}
	}
	post, err := validatePost(trip, in, stops)
	if err != nil {
		return domain.Post{}, err
	}
	post.AuthorID = userID

	created, err := s.posts.Create(ctx, post, stops)
	if err != nil {
		return domain.Post{}, fmt.Errorf("service.PostService.Create: %w", err)
	}
	return created, nil
}

// Update revalidates and overwrites a post's fields. Author only; the post
// type is immutable. Crawl stop edits go through the crawl operations, not
// here.
func (s *PostService) Update(ctx context.Context, userID, postID uuid.UUID, in PostInput) (domain.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return domain.Post{}, fmt.Errorf("service.PostService.Update: %w", err)
	}
	if post.AuthorID != userID {
		return domain.Post{}, fmt.Errorf("service.PostService.Update: %w", domain.ErrForbidden)
	}

	trip, err := s.liveTrip(ctx, post.TripID)
	if err != nil {
		return domain.Post{}, fmt.Errorf("service.PostService.Update: %w", err)
	}

	in.Type = post.Type
	var stops []domain.CrawlLocation
	if post.Type == domain.PostCrawl {
		// Stops are immutable through this path; the persisted list feeds
		// the location back-fill during revalidation.
		stops, err = s.crawl.ListByPost(ctx, postID)
		if err != nil {
			return domain.Post{}, fmt.Errorf("service.PostService.Update: %w", err)
		}
	}

	updated, err := validatePost(trip, in, stops)
	if err != nil {
		return domain.Post{}, err
	}

	updated.ID = post.ID
	updated.AuthorID = post.AuthorID

	result, err := s.posts.Update(ctx, updated)
	if err != nil {
		return domain.Post{}, fmt.Errorf("service.PostService.Update: %w", err)
	}
	return result, nil
}

// Delete soft-deletes a post. Allowed for the author or the trip owner.
func (s *PostService) Delete(ctx context.Context, userID, postID uuid.UUID) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return fmt.Errorf("service.PostService.Delete: %w", err)
	}
	if post.AuthorID != userID {
		owner, err := s.members.IsOwner(ctx, post.TripID, userID)
		if err != nil {
			return fmt.Errorf("service.PostService.Delete: %w", err)
		}
		if !owner {
			return fmt.Errorf("service.PostService.Delete: %w", domain.ErrForbidden)
		}
	}
	if err := s.posts.SoftDelete(ctx, postID); err != nil {
		return fmt.Errorf("service.PostService.Delete: %w", err)
	}
	return nil
}

// AddComment appends a comment to a post. Members only; blank bodies are
// rejected.
func (s *PostService) AddComment(ctx context.Context, userID, postID uuid.UUID, body string) (domain.Comment, error) {
	body = clip(body, maxCommentLen)
	if body == "" {
		return domain.Comment{}, fmt.Errorf("%w: comment body is required", domain.ErrValidation)
	}

	post, err := s.memberPost(ctx, userID, postID)
	if err != nil {
		return domain.Comment{}, fmt.Errorf("service.PostService.AddComment: %w", err)
	}

	comment, err := s.comments.Create(ctx, domain.Comment{PostID: post.ID, AuthorID: userID, Body: body})
	if err != nil {
		return domain.Comment{}, fmt.Errorf("service.PostService.AddComment: %w", err)
	}
	return comment, nil
}

// DeleteComment soft-deletes a comment. Allowed for the comment author or
// the trip owner.
func (s *PostService) DeleteComment(ctx context.Context, userID, commentID uuid.UUID) error {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return fmt.Errorf("service.PostService.DeleteComment: %w", err)
	}
	if comment.AuthorID != userID {
		post, err := s.posts.GetByID(ctx, comment.PostID)
		if err != nil {
			return fmt.Errorf("service.PostService.DeleteComment: %w", err)
		}
		owner, err := s.members.IsOwner(ctx, post.TripID, userID)
		if err != nil {
			return fmt.Errorf("service.PostService.DeleteComment: %w", err)
		}
		if !owner {
			return fmt.Errorf("service.PostService.DeleteComment: %w", domain.ErrForbidden)
		}
	}
	if err := s.comments.SoftDelete(ctx, commentID); err != nil {
		return fmt.Errorf("service.PostService.DeleteComment: %w", err)
	}
	return nil
}

// Vote records an upvote and returns the updated rollup. Idempotent: a
// second vote by the same user changes nothing.
func (s *PostService) Vote(ctx context.Context, userID, postID uuid.UUID) (domain.VoteSummary, error) {
	if _, err := s.memberPost(ctx, userID, postID); err != nil {
		return domain.VoteSummary{}, fmt.Errorf("service.PostService.Vote: %w", err)
	}
	if err := s.votes.Add(ctx, postID, userID); err != nil {
		return domain.VoteSummary{}, fmt.Errorf("service.PostService.Vote: %w", err)
	}
	summary, err := s.votes.Summary(ctx, postID, userID)
	if err != nil {
		return domain.VoteSummary{}, fmt.Errorf("service.PostService.Vote: %w", err)
	}
	return summary, nil
}

// Unvote withdraws an upvote and returns the updated rollup. Idempotent.
func (s *PostService) Unvote(ctx context.Context, userID, postID uuid.UUID) (domain.VoteSummary, error) {
	if _, err := s.memberPost(ctx, userID, postID); err != nil {
		return domain.VoteSummary{}, fmt.Errorf("service.PostService.Unvote: %w", err)
	}
	if err := s.votes.Remove(ctx, postID, userID); err != nil {
		return domain.VoteSummary{}, fmt.Errorf("service.PostService.Unvote: %w", err)
	}
	summary, err := s.votes.Summary(ctx, postID, userID)
	if err != nil {
		return domain.VoteSummary{}, fmt.Errorf("service.PostService.Unvote: %w", err)
	}
	return summary, nil
}

// AddChallenge attaches a checklist item to a post. Members only.
func (s *PostService) AddChallenge(ctx context.Context, userID, postID uuid.UUID, text string, taggedUserID *uuid.UUID) (domain.Challenge, error) {
	text = clip(text, maxChallengeLen)
	if text == "" {
		return domain.Challenge{}, fmt.Errorf("%w: challenge text is required", domain.ErrValidation)
	}
	if _, err := s.memberPost(ctx, userID, postID); err != nil {
		return domain.Challenge{}, fmt.Errorf("service.PostService.AddChallenge: %w", err)
	}

	c, err := s.challenges.CreateForPost(ctx, domain.Challenge{
		ParentID:     postID,
		AuthorID:     userID,
		Text:         text,
		TaggedUserID: taggedUserID,
	})
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("service.PostService.AddChallenge: %w", err)
	}
	return c, nil
}

// AddLocationChallenge attaches a checklist item to a crawl stop. Members only.
func (s *PostService) AddLocationChallenge(ctx context.Context, userID, locationID uuid.UUID, text string, taggedUserID *uuid.UUID) (domain.Challenge, error) {
	text = clip(text, maxChallengeLen)
	if text == "" {
		return domain.Challenge{}, fmt.Errorf("%w: challenge text is required", domain.ErrValidation)
	}

	loc, err := s.crawl.GetLocation(ctx, locationID)
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("service.PostService.AddLocationChallenge: %w", err)
	}
	if _, err := s.memberPost(ctx, userID, loc.PostID); err != nil {
		return domain.Challenge{}, fmt.Errorf("service.PostService.AddLocationChallenge: %w", err)
	}

	c, err := s.challenges.CreateForLocation(ctx, domain.Challenge{
		ParentID:     locationID,
		AuthorID:     userID,
		Text:         text,
		TaggedUserID: taggedUserID,
	})
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("service.PostService.AddLocationChallenge: %w", err)
	}
	return c, nil
}

// ToggleChallenge marks a challenge complete by the caller, or clears the
// completion if the caller already completed it. Any trip member may toggle.
func (s *PostService) ToggleChallenge(ctx context.Context, userID, challengeID uuid.UUID) error {
	challenge, postID, err := s.challenges.Get(ctx, challengeID)
	if err != nil {
		return fmt.Errorf("service.PostService.ToggleChallenge: %w", err)
	}
	if _, err := s.memberPost(ctx, userID, postID); err != nil {
		return fmt.Errorf("service.PostService.ToggleChallenge: %w", err)
	}

	completedBy := &userID
	if challenge.Completed {
		completedBy = nil
	}
	if err := s.challenges.SetCompletion(ctx, challengeID, completedBy); err != nil {
		return fmt.Errorf("service.PostService.ToggleChallenge: %w", err)
	}
	return nil
}

// DeleteChallenge removes a challenge. Author only.
func (s *PostService) DeleteChallenge(ctx context.Context, userID, challengeID uuid.UUID) error {
	challenge, _, err := s.challenges.Get(ctx, challengeID)
	if err != nil {
		return fmt.Errorf("service.PostService.DeleteChallenge: %w", err)
	}
	if challenge.AuthorID != userID {
		return fmt.Errorf("service.PostService.DeleteChallenge: %w", domain.ErrForbidden)
	}
	if err := s.challenges.Delete(ctx, challengeID); err != nil {
		return fmt.Errorf("service.PostService.DeleteChallenge: %w", err)
	}
	return nil
}

// AttachImage records an uploaded image against a post. Members only;
// the per-post image count is bounded.
func (s *PostService) AttachImage(ctx context.Context, userID, postID uuid.UUID, url string) (domain.Image, error) {
	if _, err := s.memberPost(ctx, userID, postID); err != nil {
		return domain.Image{}, fmt.Errorf("service.PostService.AttachImage: %w", err)
	}

	n, err := s.posts.CountImages(ctx, postID)
	if err != nil {
		return domain.Image{}, fmt.Errorf("service.PostService.AttachImage: %w", err)
	}
	if n >= domain.MaxImagesPerPost {
		return domain.Image{}, fmt.Errorf("%w: a post can have at most %d images", domain.ErrValidation, domain.MaxImagesPerPost)
	}

	img, err := s.images.CreateForPost(ctx, domain.Image{ParentID: postID, URL: url})
	if err != nil {
		return domain.Image{}, fmt.Errorf("service.PostService.AttachImage: %w", err)
	}
	return img, nil
}

// AttachLocationImage records an uploaded image against a crawl stop.
// Members only; the per-stop image count is bounded like a post's.
func (s *PostService) AttachLocationImage(ctx context.Context, userID, locationID uuid.UUID, url string) (domain.Image, error) {
	loc, err := s.crawl.GetLocation(ctx, locationID)
	if err != nil {
		return domain.Image{}, fmt.Errorf("service.PostService.AttachLocationImage: %w", err)
	}
	if _, err := s.memberPost(ctx, userID, loc.PostID); err != nil {
		return domain.Image{}, fmt.Errorf("service.PostService.AttachLocationImage: %w", err)
	}

	n, err := s.images.CountForLocation(ctx, locationID)
	if err != nil {
		return domain.Image{}, fmt.Errorf("service.PostService.AttachLocationImage: %w", err)
	}
	if n >= domain.MaxImagesPerPost {
		return domain.Image{}, fmt.Errorf("%w: a stop can have at most %d images", domain.ErrValidation, domain.MaxImagesPerPost)
	}

	img, err := s.images.CreateForLocation(ctx, domain.Image{ParentID: locationID, URL: url})
	if err != nil {
		return domain.Image{}, fmt.Errorf("service.PostService.AttachLocationImage: %w", err)
	}
	return img, nil
}

// DeleteImage removes an image row. Allowed for the owning post's author or
// the trip owner. Returns the stored URL so the caller can remove the file.
func (s *PostService) DeleteImage(ctx context.Context, userID, imageID uuid.UUID) (string, error) {
	img, postID, err := s.images.Get(ctx, imageID)
	if err != nil {
		return "", fmt.Errorf("service.PostService.DeleteImage: %w", err)
	}

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return "", fmt.Errorf("service.PostService.DeleteImage: %w", err)
	}
	if post.AuthorID != userID {
		owner, err := s.members.IsOwner(ctx, post.TripID, userID)
		if err != nil {
			return "", fmt.Errorf("service.PostService.DeleteImage: %w", err)
		}
		if !owner {
			return "", fmt.Errorf("service.PostService.DeleteImage: %w", domain.ErrForbidden)
		}
	}

	if err := s.images.Delete(ctx, imageID); err != nil {
		return "", fmt.Errorf("service.PostService.DeleteImage: %w", err)
	}
	return img.URL, nil
}

// ReorderCrawl rewrites a crawl's stop order. Members only; order must be a
// full permutation of the post's current stop IDs.
func (s *PostService) ReorderCrawl(ctx context.Context, userID, postID uuid.UUID, order []uuid.UUID) ([]domain.CrawlLocation, error) {
	post, err := s.memberPost(ctx, userID, postID)
	if err != nil {
		return nil, fmt.Errorf("service.PostService.ReorderCrawl: %w", err)
	}
	if post.Type != domain.PostCrawl {
		return nil, fmt.Errorf("%w: post is not a crawl", domain.ErrValidation)
	}

	if err := s.crawl.Reorder(ctx, postID, order); err != nil {
		return nil, fmt.Errorf("service.PostService.ReorderCrawl: %w", err)
	}
	locs, err := s.crawl.ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("service.PostService.ReorderCrawl: %w", err)
	}
	return locs, nil
}

// ToggleLocation flips a crawl stop's completion flag. Members only.
func (s *PostService) ToggleLocation(ctx context.Context, userID, locationID uuid.UUID) (domain.CrawlLocation, error) {
	loc, err := s.crawl.GetLocation(ctx, locationID)
	if err != nil {
		return domain.CrawlLocation{}, fmt.Errorf("service.PostService.ToggleLocation: %w", err)
	}
	if _, err := s.memberPost(ctx, userID, loc.PostID); err != nil {
		return domain.CrawlLocation{}, fmt.Errorf("service.PostService.ToggleLocation: %w", err)
	}

	if err := s.crawl.SetCompleted(ctx, locationID, !loc.Completed); err != nil {
		return domain.CrawlLocation{}, fmt.Errorf("service.PostService.ToggleLocation: %w", err)
	}
	loc.Completed = !loc.Completed
	return loc, nil
}

// memberPost loads a live post and verifies the caller is an active member
// of its trip.
func (s *PostService) memberPost(ctx context.Context, userID, postID uuid.UUID) (domain.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return domain.Post{}, err
	}
	if err := s.requireMember(ctx, post.TripID, userID); err != nil {
		return domain.Post{}, err
	}
	return post, nil
}

// requireMember returns domain.ErrForbidden unless the user is an active
// member of the trip.
func (s *PostService) requireMember(ctx context.Context, tripID, userID uuid.UUID) error {
	ok, err := s.members.IsMember(ctx, tripID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrForbidden
	}
	return nil
}

// liveTrip loads a trip and maps archived ones to domain.ErrNotFound.
func (s *PostService) liveTrip(ctx context.Context, tripID uuid.UUID) (domain.Trip, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return domain.Trip{}, err
	}
	if trip.Archived {
		return domain.Trip{}, domain.ErrNotFound
	}
	return trip, nil
}
