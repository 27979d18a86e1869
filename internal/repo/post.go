package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/tripcrew/tripcrew/internal/domain"
)

// PostRepo defines the persistence operations for feed posts and their
// crawl stops. Creation of a CRAWL post and its stops is atomic.
type PostRepo interface {
	// Create inserts the post and, for CRAWL posts, its stops in one
	// transaction. Stops are stored with sort order matching slice order.
	Create(ctx context.Context, post domain.Post, stops []domain.CrawlLocation) (domain.Post, error)

	// GetByID retrieves a post by primary key.
	// Returns domain.ErrNotFound if the post does not exist or is soft-deleted.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Post, error)

	// Update overwrites the mutable fields of a post and bumps updated_at.
	// Returns domain.ErrNotFound if the post does not exist or is soft-deleted.
	Update(ctx context.Context, post domain.Post) (domain.Post, error)

	// SoftDelete marks the post deleted.
	// Returns domain.ErrNotFound if the post does not exist or is already deleted.
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// CountImages returns the number of images attached to the post.
	CountImages(ctx context.Context, postID uuid.UUID) (int, error)
}

// pgPostRepo is the Postgres implementation of PostRepo.
type pgPostRepo struct {
	db txStarter
}

// NewPostRepo constructs a PostRepo backed by the provided connection.
func NewPostRepo(db txStarter) PostRepo {
	return &pgPostRepo{db: db}
}

const postColumns = `id, trip_id, day_number, author_id, post_type, title, body,
	event_name, from_time, to_time, location_name, latitude, longitude,
	deleted, created_at, updated_at`

func (r *pgPostRepo) Create(ctx context.Context, post domain.Post, stops []domain.CrawlLocation) (domain.Post, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Post{}, fmt.Errorf("repo.PostRepo.Create: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insertPost = `
		INSERT INTO feed_posts (trip_id, day_number, author_id, post_type, title, body,
			event_name, from_time, to_time, location_name, latitude, longitude)
		VALUES (@trip_id, @day_number, @author_id, @post_type, @title, @body,
			@event_name, @from_time, @to_time, @location_name, @latitude, @longitude)
		RETURNING ` + postColumns

	created, err := scanPost(tx.QueryRow(ctx, insertPost, postArgs(post)))
	if err != nil {
		return domain.Post{}, fmt.Errorf("repo.PostRepo.Create: insert post: %w", err)
	}

	const insertStop = `
		INSERT INTO crawl_locations (post_id, sort_order, name, latitude, longitude)
		VALUES (@post_id, @sort_order, @name, @latitude, @longitude)`
	for i, stop := range stops {
		args := pgx.NamedArgs{
			"post_id":    created.ID,
			"sort_order": i,
			"name":       stop.Name,
		}
		args["latitude"], args["longitude"] = coordArgs(stop.Coords)
		if _, err := tx.Exec(ctx, insertStop, args); err != nil {
			return domain.Post{}, fmt.Errorf("repo.PostRepo.Create: insert stop %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Post{}, fmt.Errorf("repo.PostRepo.Create: commit: %w", err)
	}
	return created, nil
}

func (r *pgPostRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Post, error) {
	const q = `
		SELECT ` + postColumns + `
		FROM feed_posts
		WHERE id = @id AND NOT deleted`

	result, err := scanPost(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Post{}, fmt.Errorf("repo.PostRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgPostRepo) Update(ctx context.Context, post domain.Post) (domain.Post, error) {
	const q = `
		UPDATE feed_posts
		SET day_number    = @day_number,
		    title         = @title,
		    body          = @body,
		    event_name    = @event_name,
		    from_time     = @from_time,
		    to_time       = @to_time,
		    location_name = @location_name,
		    latitude      = @latitude,
		    longitude     = @longitude,
		    updated_at    = now()
		WHERE id = @id AND NOT deleted
		RETURNING ` + postColumns

	args := postArgs(post)
	args["id"] = post.ID

	result, err := scanPost(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Post{}, fmt.Errorf("repo.PostRepo.Update: %w", err)
	}
	return result, nil
}

func (r *pgPostRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	const q = `
		UPDATE feed_posts
		SET deleted = true, updated_at = now()
		WHERE id = @id AND NOT deleted`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.PostRepo.SoftDelete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.PostRepo.SoftDelete: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgPostRepo) CountImages(ctx context.Context, postID uuid.UUID) (int, error) {
	const q = `SELECT count(*) FROM feed_post_images WHERE post_id = @post_id`

	var n int
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"post_id": postID}).Scan(&n); err != nil {
		return 0, fmt.Errorf("repo.PostRepo.CountImages: %w", err)
	}
	return n, nil
}

// postArgs builds the named-arg map shared by insert and update.
func postArgs(post domain.Post) pgx.NamedArgs {
	args := pgx.NamedArgs{
		"trip_id":       post.TripID,
		"day_number":    post.DayNumber,
		"author_id":     post.AuthorID,
		"post_type":     string(post.Type),
		"title":         post.Title,
		"body":          post.Body,
		"event_name":    post.EventName,
		"location_name": post.LocationName,
	}
	if post.Window != nil {
		args["from_time"] = post.Window.From
		args["to_time"] = post.Window.To
	} else {
		args["from_time"] = nil
		args["to_time"] = nil
	}
	args["latitude"], args["longitude"] = coordArgs(post.Coords)
	return args
}

// coordArgs splits an optional GeoPoint into nullable lat/lng args.
func coordArgs(g *domain.GeoPoint) (any, any) {
	if g == nil {
		return nil, nil
	}
	return g.Lat, g.Lng
}

// scanPost maps a single database row into a domain.Post.
func scanPost(s scanner) (domain.Post, error) {
	var (
		p        domain.Post
		id       pgtype.UUID
		tripID   pgtype.UUID
		authorID pgtype.UUID
		day      pgtype.Int4
		from, to pgtype.Timestamptz
		lat, lng pgtype.Float8
	)

	err := s.Scan(&id, &tripID, &day, &authorID, &p.Type, &p.Title, &p.Body,
		&p.EventName, &from, &to, &p.LocationName, &lat, &lng,
		&p.Deleted, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Post{}, domain.ErrNotFound
		}
		return domain.Post{}, err
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
	return p, nil
}
