package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/tripcrew/tripcrew/internal/domain"
)

// VoteRow is one raw vote with its voter's display name, used by the feed
// service to build per-viewer rollups.
type VoteRow struct {
	PostID uuid.UUID
	UserID uuid.UUID
	Name   string
}

// FeedRepo provides the batched read queries the feed aggregator is built
// from. Every method is read-only; child rows are fetched for a whole set
// of post IDs at once rather than per post.
type FeedRepo interface {
	// ListMembers returns the trip's active members, owner first then by join time.
	ListMembers(ctx context.Context, tripID uuid.UUID) ([]domain.UserRef, error)

	// ListPosts returns the trip's live posts newest-first, plus each
	// post's author reference keyed by post ID.
	ListPosts(ctx context.Context, tripID uuid.UUID) ([]domain.Post, map[uuid.UUID]domain.UserRef, error)

	// ListComments returns live comments for the given posts, oldest-first,
	// grouped by post ID.
	ListComments(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID][]domain.CommentView, error)

	// ListVotes returns all votes for the given posts in cast order.
	ListVotes(ctx context.Context, postIDs []uuid.UUID) ([]VoteRow, error)

	// ListImages returns images for the given posts grouped by post ID,
	// ordered by sort order then creation time.
	ListImages(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID][]domain.Image, error)

	// ListChallenges returns post-level challenges grouped by post ID.
	ListChallenges(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID][]domain.Challenge, error)

	// ListCrawlStops returns crawl stops with their own images and
	// challenges resolved, grouped by post ID and ordered by sort order.
	ListCrawlStops(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID][]domain.CrawlStopView, error)
}

// pgFeedRepo is the Postgres implementation of FeedRepo.
type pgFeedRepo struct {
	db db
}

// NewFeedRepo constructs a FeedRepo backed by the provided db connection.
func NewFeedRepo(db db) FeedRepo {
	return &pgFeedRepo{db: db}
}

func (r *pgFeedRepo) ListMembers(ctx context.Context, tripID uuid.UUID) ([]domain.UserRef, error) {
	const q = `
		SELECT u.id, u.name
		FROM trip_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.trip_id = @trip_id AND m.active
		ORDER BY m.role = 'OWNER' DESC, m.joined_at`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.FeedRepo.ListMembers: %w", err)
	}
	defer rows.Close()

	members := []domain.UserRef{}
	for rows.Next() {
		var (
			id pgtype.UUID
			m  domain.UserRef
		)
		if err := rows.Scan(&id, &m.Name); err != nil {
			return nil, fmt.Errorf("repo.FeedRepo.ListMembers: scan: %w", err)
		}
		m.ID = uuid.UUID(id.Bytes).String()
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.FeedRepo.ListMembers: rows: %w", err)
	}
	return members, nil
}

func (r *pgFeedRepo) ListPosts(ctx context.Context, tripID uuid.UUID) ([]domain.Post, map[uuid.UUID]domain.UserRef, error) {
	const q = `
		SELECT p.id, p.trip_id, p.day_number, p.author_id, p.post_type, p.title, p.body,
		       p.event_name, p.from_time, p.to_time, p.location_name, p.latitude, p.longitude,
		       p.deleted, p.created_at, p.updated_at, u.name
		FROM feed_posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.trip_id = @trip_id AND NOT p.deleted
		ORDER BY p.created_at DESC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, nil, fmt.Errorf("repo.FeedRepo.ListPosts: %w", err)
	}
	defer rows.Close()

	var posts []domain.Post
	authors := map[uuid.UUID]domain.UserRef{}
	for rows.Next() {
		p, name, err := scanPostWithAuthor(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("repo.FeedRepo.ListPosts: scan: %w", err)
		}
		posts = append(posts, p)
		authors[p.ID] = domain.UserRef{ID: p.AuthorID.String(), Name: name}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("repo.FeedRepo.ListPosts: rows: %w", err)
	}
	return posts, authors, nil
}

func (r *pgFeedRepo) ListComments(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID][]domain.CommentView, error) {
	const q = `
		SELECT c.id, c.post_id, c.author_id, c.body, c.deleted, c.created_at, u.name
		FROM feed_comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.post_id = ANY(@post_ids) AND NOT c.deleted
		ORDER BY c.created_at`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"post_ids": postIDs})
	if err != nil {
		return nil, fmt.Errorf("repo.FeedRepo.ListComments: %w", err)
	}
	defer rows.Close()

	out := map[uuid.UUID][]domain.CommentView{}
	for rows.Next() {
		var (
			cv       domain.CommentView
			id       pgtype.UUID
			postID   pgtype.UUID
			authorID pgtype.UUID
		)
		err := rows.Scan(&id, &postID, &authorID, &cv.Comment.Body, &cv.Comment.Deleted,
			&cv.Comment.CreatedAt, &cv.Author.Name)
		if err != nil {
			return nil, fmt.Errorf("repo.FeedRepo.ListComments: scan: %w", err)
		}
		cv.Comment.ID = uuid.UUID(id.Bytes)
		cv.Comment.PostID = uuid.UUID(postID.Bytes)
		cv.Comment.AuthorID = uuid.UUID(authorID.Bytes)
		cv.Author.ID = cv.Comment.AuthorID.String()
		out[cv.Comment.PostID] = append(out[cv.Comment.PostID], cv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.FeedRepo.ListComments: rows: %w", err)
	}
	return out, nil
}

func (r *pgFeedRepo) ListVotes(ctx context.Context, postIDs []uuid.UUID) ([]VoteRow, error) {
	const q = `
		SELECT v.post_id, v.user_id, u.name
		FROM post_votes v
		JOIN users u ON u.id = v.user_id
		WHERE v.post_id = ANY(@post_ids)
		ORDER BY v.created_at`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"post_ids": postIDs})
	if err != nil {
		return nil, fmt.Errorf("repo.FeedRepo.ListVotes: %w", err)
	}
	defer rows.Close()

	var votes []VoteRow
	for rows.Next() {
		var (
			v      VoteRow
			postID pgtype.UUID
			userID pgtype.UUID
		)
		if err := rows.Scan(&postID, &userID, &v.Name); err != nil {
			return nil, fmt.Errorf("repo.FeedRepo.ListVotes: scan: %w", err)
		}
		v.PostID = uuid.UUID(postID.Bytes)
		v.UserID = uuid.UUID(userID.Bytes)
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.FeedRepo.ListVotes: rows: %w", err)
	}
	return votes, nil
}

func (r *pgFeedRepo) ListImages(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID][]domain.Image, error) {
	const q = `
		SELECT id, post_id, sort_order, url, created_at
		FROM feed_post_images
		WHERE post_id = ANY(@post_ids)
		ORDER BY sort_order, created_at`

	return r.groupImages(ctx, q, postIDs, "repo.FeedRepo.ListImages")
}

func (r *pgFeedRepo) ListChallenges(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID][]domain.Challenge, error) {
	const q = `
		SELECT id, post_id, author_id, text, tagged_user_id, completed, completed_by, created_at
		FROM feed_post_challenges
		WHERE post_id = ANY(@post_ids)
		ORDER BY created_at`

	return r.groupChallenges(ctx, q, postIDs, "repo.FeedRepo.ListChallenges")
}

func (r *pgFeedRepo) ListCrawlStops(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID][]domain.CrawlStopView, error) {
	const locQ = `
		SELECT id, post_id, sort_order, name, latitude, longitude, completed, created_at
		FROM crawl_locations
		WHERE post_id = ANY(@post_ids)
		ORDER BY sort_order`

	rows, err := r.db.Query(ctx, locQ, pgx.NamedArgs{"post_ids": postIDs})
	if err != nil {
		return nil, fmt.Errorf("repo.FeedRepo.ListCrawlStops: %w", err)
	}
	var (
		locs   []domain.CrawlLocation
		locIDs []uuid.UUID
	)
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("repo.FeedRepo.ListCrawlStops: scan: %w", err)
		}
		locs = append(locs, l)
		locIDs = append(locIDs, l.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.FeedRepo.ListCrawlStops: rows: %w", err)
	}
	if len(locs) == 0 {
		return map[uuid.UUID][]domain.CrawlStopView{}, nil
	}

	const imgQ = `
		SELECT id, location_id, sort_order, url, created_at
		FROM crawl_location_images
		WHERE location_id = ANY(@post_ids)
		ORDER BY sort_order, created_at`
	images, err := r.groupImages(ctx, imgQ, locIDs, "repo.FeedRepo.ListCrawlStops: images")
	if err != nil {
		return nil, err
	}

	const chQ = `
		SELECT id, location_id, author_id, text, tagged_user_id, completed, completed_by, created_at
		FROM crawl_location_challenges
		WHERE location_id = ANY(@post_ids)
		ORDER BY created_at`
	challenges, err := r.groupChallenges(ctx, chQ, locIDs, "repo.FeedRepo.ListCrawlStops: challenges")
	if err != nil {
		return nil, err
	}

	out := map[uuid.UUID][]domain.CrawlStopView{}
	for _, l := range locs {
		out[l.PostID] = append(out[l.PostID], domain.CrawlStopView{
			Location:   l,
			Images:     orEmptyImages(images[l.ID]),
			Challenges: orEmptyChallenges(challenges[l.ID]),
		})
	}
	return out, nil
}

// groupImages runs an image query parameterized by parent IDs and groups
// the results by parent.
func (r *pgFeedRepo) groupImages(ctx context.Context, q string, ids []uuid.UUID, op string) (map[uuid.UUID][]domain.Image, error) {
	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"post_ids": ids})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := map[uuid.UUID][]domain.Image{}
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out[img.ParentID] = append(out[img.ParentID], img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return out, nil
}

// groupChallenges runs a challenge query parameterized by parent IDs and
// groups the results by parent.
func (r *pgFeedRepo) groupChallenges(ctx context.Context, q string, ids []uuid.UUID, op string) (map[uuid.UUID][]domain.Challenge, error) {
	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"post_ids": ids})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := map[uuid.UUID][]domain.Challenge{}
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out[c.ParentID] = append(out[c.ParentID], c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return out, nil
}

// scanPostWithAuthor scans the ListPosts projection: post columns plus the
// author's display name.
func scanPostWithAuthor(s scanner) (domain.Post, string, error) {
	var (
		p        domain.Post
		id       pgtype.UUID
		tripID   pgtype.UUID
		authorID pgtype.UUID
		day      pgtype.Int4
		from, to pgtype.Timestamptz
		lat, lng pgtype.Float8
		name     string
	)

	err := s.Scan(&id, &tripID, &day, &authorID, &p.Type, &p.Title, &p.Body,
		&p.EventName, &from, &to, &p.LocationName, &lat, &lng,
		&p.Deleted, &p.CreatedAt, &p.UpdatedAt, &name)
	if err != nil {
		return domain.Post{}, "", err
	}

	p.ID = uuid.UUID(id.Bytes)
	p.TripID = uuid.UUID(tripID.Bytes)
	p.AuthorID = uuid.UUID(authorID.Bytes)
	if day.Valid {
		n := int(day.Int32)
		p.DayNumber = &n
	}
	if from.Valid && to.Valid {
		p.Window = &domain.TimeWindow{From: from.Time, To: to.Time}
	}
	if lat.Valid && lng.Valid {
		p.Coords = &domain.GeoPoint{Lat: lat.Float64, Lng: lng.Float64}
	}
	return p, name, nil
}

// orEmptyImages and orEmptyChallenges keep JSON output as [] instead of null.
func orEmptyImages(in []domain.Image) []domain.Image {
	if in == nil {
		return []domain.Image{}
	}
	return in
}

func orEmptyChallenges(in []domain.Challenge) []domain.Challenge {
	if in == nil {
		return []domain.Challenge{}
	}
	return in
}
