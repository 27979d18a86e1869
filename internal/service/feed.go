package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tripcrew/tripcrew/internal/domain"
	"github.com/tripcrew/tripcrew/internal/repo"
)

// FeedService assembles the nested trip view: header, days, members, and
// the post feed with comments, vote rollups, images, challenges, and crawl
// stops. Strictly read-only.
type FeedService struct {
	trips   repo.TripRepo
	members repo.MemberRepo
	feed    repo.FeedRepo
}

// NewFeedService constructs a FeedService backed by the provided repos.
func NewFeedService(trips repo.TripRepo, members repo.MemberRepo, feed repo.FeedRepo) *FeedService {
	return &FeedService{trips: trips, members: members, feed: feed}
}

// TripView loads the full aggregate for viewerID. Members only; archived
// trips read as not found. Soft-deleted posts and comments are excluded.
func (s *FeedService) TripView(ctx context.Context, viewerID, tripID uuid.UUID) (domain.TripView, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return domain.TripView{}, fmt.Errorf("service.FeedService.TripView: %w", err)
	}
	if trip.Archived {
		return domain.TripView{}, fmt.Errorf("service.FeedService.TripView: %w", domain.ErrNotFound)
	}

	ok, err := s.members.IsMember(ctx, tripID, viewerID)
	if err != nil {
		return domain.TripView{}, fmt.Errorf("service.FeedService.TripView: %w", err)
	}
	if !ok {
		return domain.TripView{}, fmt.Errorf("service.FeedService.TripView: %w", domain.ErrForbidden)
	}

	days, err := s.trips.ListDays(ctx, tripID)
	if err != nil {
		return domain.TripView{}, fmt.Errorf("service.FeedService.TripView: %w", err)
	}
	if len(days) == 0 {
		days = buildDays(trip.DayCount, trip.StartDate)
		for i := range days {
			days[i].TripID = trip.ID
		}
	}

	members, err := s.feed.ListMembers(ctx, tripID)
	if err != nil {
		return domain.TripView{}, fmt.Errorf("service.FeedService.TripView: %w", err)
	}

	posts, err := s.buildPosts(ctx, viewerID, tripID)
	if err != nil {
		return domain.TripView{}, fmt.Errorf("service.FeedService.TripView: %w", err)
	}

	return domain.TripView{Trip: trip, Days: days, Members: members, Posts: posts}, nil
}

// buildPosts loads the trip's posts and resolves every child collection in
// batched queries keyed by post ID.
func (s *FeedService) buildPosts(ctx context.Context, viewerID, tripID uuid.UUID) ([]domain.PostView, error) {
	posts, authors, err := s.feed.ListPosts(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return []domain.PostView{}, nil
	}

	ids := make([]uuid.UUID, len(posts))
	crawlIDs := make([]uuid.UUID, 0, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
		if p.Type == domain.PostCrawl {
			crawlIDs = append(crawlIDs, p.ID)
		}
	}

	comments, err := s.feed.ListComments(ctx, ids)
	if err != nil {
		return nil, err
	}
	votes, err := s.feed.ListVotes(ctx, ids)
	if err != nil {
		return nil, err
	}
	images, err := s.feed.ListImages(ctx, ids)
	if err != nil {
		return nil, err
	}
	challenges, err := s.feed.ListChallenges(ctx, ids)
	if err != nil {
		return nil, err
	}

	crawl := map[uuid.UUID][]domain.CrawlStopView{}
	if len(crawlIDs) > 0 {
		crawl, err = s.feed.ListCrawlStops(ctx, crawlIDs)
		if err != nil {
			return nil, err
		}
	}

	rollups := rollupVotes(votes, viewerID)

	views := make([]domain.PostView, len(posts))
	for i, p := range posts {
		view := domain.PostView{
			Post:       p,
			Author:     authors[p.ID],
			Comments:   comments[p.ID],
			Votes:      rollups[p.ID],
			Images:     images[p.ID],
			Challenges: challenges[p.ID],
		}
		if view.Comments == nil {
			view.Comments = []domain.CommentView{}
		}
		if view.Images == nil {
			view.Images = []domain.Image{}
		}
		if view.Challenges == nil {
			view.Challenges = []domain.Challenge{}
		}
		if view.Votes.Voters == nil {
			view.Votes.Voters = []string{}
		}
		if p.Type == domain.PostCrawl {
			view.Crawl = crawl[p.ID]
		}
		views[i] = view
	}
	return views, nil
}

// rollupVotes folds raw vote rows into per-post summaries for one viewer:
// count, whether the viewer voted, and voter names deduplicated in cast
// order.
func rollupVotes(votes []repo.VoteRow, viewerID uuid.UUID) map[uuid.UUID]domain.VoteSummary {
	out := map[uuid.UUID]domain.VoteSummary{}
	seen := map[uuid.UUID]map[string]bool{}
	for _, v := range votes {
		s := out[v.PostID]
		s.Count++
		if v.UserID == viewerID {
			s.HasVoted = true
		}
		if seen[v.PostID] == nil {
			seen[v.PostID] = map[string]bool{}
		}
		if !seen[v.PostID][v.Name] {
			seen[v.PostID][v.Name] = true
			s.Voters = append(s.Voters, v.Name)
		}
		out[v.PostID] = s
	}
	return out
}
