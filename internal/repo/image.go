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

// ImageRepo defines the persistence operations for image attachments.
// Like challenges, images live in two tables (post / crawl stop) sharing
// one random-UUID namespace.
type ImageRepo interface {
	// CreateForPost attaches an image to a post. SortOrder defaults to the
	// current image count so uploads append in arrival order.
	CreateForPost(ctx context.Context, img domain.Image) (domain.Image, error)

	// CreateForLocation attaches an image to a crawl stop.
	CreateForLocation(ctx context.Context, img domain.Image) (domain.Image, error)

	// CountForLocation returns the number of images attached to the crawl stop.
	CountForLocation(ctx context.Context, locationID uuid.UUID) (int, error)

	// Get retrieves an image from either table and the ID of the post it
	// ultimately belongs to. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, id uuid.UUID) (domain.Image, uuid.UUID, error)

	// Delete removes an image row from whichever table holds it.
	// Returns domain.ErrNotFound if no image with that ID exists.
	Delete(ctx context.Context, id uuid.UUID) error
}

// pgImageRepo is the Postgres implementation of ImageRepo.
type pgImageRepo struct {
	db db
}

// NewImageRepo constructs an ImageRepo backed by the provided db connection.
func NewImageRepo(db db) ImageRepo {
	return &pgImageRepo{db: db}
}

func (r *pgImageRepo) CreateForPost(ctx context.Context, img domain.Image) (domain.Image, error) {
	const q = `
		INSERT INTO feed_post_images (post_id, sort_order, url)
		VALUES (@parent_id,
		        (SELECT count(*) FROM feed_post_images WHERE post_id = @parent_id),
		        @url)
		RETURNING id, post_id, sort_order, url, created_at`

	result, err := scanImage(r.db.QueryRow(ctx, q, pgx.NamedArgs{"parent_id": img.ParentID, "url": img.URL}))
	if err != nil {
		return domain.Image{}, fmt.Errorf("repo.ImageRepo.CreateForPost: %w", err)
	}
	return result, nil
}

func (r *pgImageRepo) CreateForLocation(ctx context.Context, img domain.Image) (domain.Image, error) {
	const q = `
		INSERT INTO crawl_location_images (location_id, sort_order, url)
		VALUES (@parent_id,
		        (SELECT count(*) FROM crawl_location_images WHERE location_id = @parent_id),
		        @url)
		RETURNING id, location_id, sort_order, url, created_at`

	result, err := scanImage(r.db.QueryRow(ctx, q, pgx.NamedArgs{"parent_id": img.ParentID, "url": img.URL}))
	if err != nil {
		return domain.Image{}, fmt.Errorf("repo.ImageRepo.CreateForLocation: %w", err)
	}
	return result, nil
}

func (r *pgImageRepo) CountForLocation(ctx context.Context, locationID uuid.UUID) (int, error) {
	const q = `SELECT count(*) FROM crawl_location_images WHERE location_id = @location_id`

	var n int
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"location_id": locationID}).Scan(&n); err != nil {
		return 0, fmt.Errorf("repo.ImageRepo.CountForLocation: %w", err)
	}
	return n, nil
}

func (r *pgImageRepo) Get(ctx context.Context, id uuid.UUID) (domain.Image, uuid.UUID, error) {
	const q = `
		SELECT i.id, i.post_id, i.sort_order, i.url, i.created_at, i.post_id AS owner_post
		FROM feed_post_images i
		WHERE i.id = @id
		UNION ALL
		SELECT i.id, i.location_id, i.sort_order, i.url, i.created_at, l.post_id
		FROM crawl_location_images i
		JOIN crawl_locations l ON l.id = i.location_id
		WHERE i.id = @id`

	var (
		img       domain.Image
		iid       pgtype.UUID
		parentID  pgtype.UUID
		ownerPost pgtype.UUID
	)
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}).Scan(
		&iid, &parentID, &img.SortOrder, &img.URL, &img.CreatedAt, &ownerPost)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Image{}, uuid.Nil, fmt.Errorf("repo.ImageRepo.Get: %w", domain.ErrNotFound)
		}
		return domain.Image{}, uuid.Nil, fmt.Errorf("repo.ImageRepo.Get: %w", err)
	}

	img.ID = uuid.UUID(iid.Bytes)
	img.ParentID = uuid.UUID(parentID.Bytes)
	return img, uuid.UUID(ownerPost.Bytes), nil
}

func (r *pgImageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q1 = `DELETE FROM feed_post_images WHERE id = @id`
	tag, err := r.db.Exec(ctx, q1, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.ImageRepo.Delete: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	const q2 = `DELETE FROM crawl_location_images WHERE id = @id`
	tag, err = r.db.Exec(ctx, q2, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.ImageRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ImageRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// scanImage maps a single database row into a domain.Image.
func scanImage(s scanner) (domain.Image, error) {
	var (
		img      domain.Image
		id       pgtype.UUID
		parentID pgtype.UUID
	)

	err := s.Scan(&id, &parentID, &img.SortOrder, &img.URL, &img.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Image{}, domain.ErrNotFound
		}
		return domain.Image{}, err
	}

	img.ID = uuid.UUID(id.Bytes)
	img.ParentID = uuid.UUID(parentID.Bytes)
	return img, nil
}
