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

// CrawlRepo defines the persistence operations for crawl stops beyond
// their creation (which PostRepo.Create handles atomically with the post).
type CrawlRepo interface {
	// GetLocation retrieves a crawl stop by primary key.
	// Returns domain.ErrNotFound if no stop with that ID exists.
	GetLocation(ctx context.Context, id uuid.UUID) (domain.CrawlLocation, error)

	// ListByPost returns a post's stops ordered by sort order.
	ListByPost(ctx context.Context, postID uuid.UUID) ([]domain.CrawlLocation, error)

	// Reorder rewrites the sort order of a post's stops to match order,
	// which must be a permutation of the post's current stop IDs. The
	// parent post's updated_at is bumped in the same transaction.
	// Returns domain.ErrValidation if order is not a full permutation.
	Reorder(ctx context.Context, postID uuid.UUID, order []uuid.UUID) error

	// SetCompleted flips a stop's completion flag, bumping the parent
	// post's updated_at in the same transaction.
	// Returns domain.ErrNotFound if no stop with that ID exists.
	SetCompleted(ctx context.Context, id uuid.UUID, completed bool) error
}

// pgCrawlRepo is the Postgres implementation of CrawlRepo.
type pgCrawlRepo struct {
	db txStarter
}

// NewCrawlRepo constructs a CrawlRepo backed by the provided connection.
func NewCrawlRepo(db txStarter) CrawlRepo {
	return &pgCrawlRepo{db: db}
}

const locationColumns = `id, post_id, sort_order, name, latitude, longitude, completed, created_at`

func (r *pgCrawlRepo) GetLocation(ctx context.Context, id uuid.UUID) (domain.CrawlLocation, error) {
	const q = `
		SELECT ` + locationColumns + `
		FROM crawl_locations
		WHERE id = @id`

	result, err := scanLocation(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.CrawlLocation{}, fmt.Errorf("repo.CrawlRepo.GetLocation: %w", err)
	}
	return result, nil
}

func (r *pgCrawlRepo) ListByPost(ctx context.Context, postID uuid.UUID) ([]domain.CrawlLocation, error) {
	const q = `
		SELECT ` + locationColumns + `
		FROM crawl_locations
		WHERE post_id = @post_id
		ORDER BY sort_order`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"post_id": postID})
	if err != nil {
		return nil, fmt.Errorf("repo.CrawlRepo.ListByPost: %w", err)
	}
	defer rows.Close()

	var locs []domain.CrawlLocation
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.CrawlRepo.ListByPost: scan: %w", err)
		}
		locs = append(locs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.CrawlRepo.ListByPost: rows: %w", err)
	}
	return locs, nil
}

func (r *pgCrawlRepo) Reorder(ctx context.Context, postID uuid.UUID, order []uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repo.CrawlRepo.Reorder: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// The new order must name every current stop exactly once.
	const listIDs = `SELECT id FROM crawl_locations WHERE post_id = @post_id FOR UPDATE`
	rows, err := tx.Query(ctx, listIDs, pgx.NamedArgs{"post_id": postID})
	if err != nil {
		return fmt.Errorf("repo.CrawlRepo.Reorder: list: %w", err)
	}
	current := map[uuid.UUID]bool{}
	for rows.Next() {
		var id pgtype.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("repo.CrawlRepo.Reorder: scan: %w", err)
		}
		current[uuid.UUID(id.Bytes)] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("repo.CrawlRepo.Reorder: rows: %w", err)
	}

	if len(order) != len(current) {
		return fmt.Errorf("repo.CrawlRepo.Reorder: %w: order must name all %d stops", domain.ErrValidation, len(current))
	}
	for _, id := range order {
		if !current[id] {
			return fmt.Errorf("repo.CrawlRepo.Reorder: %w: unknown or repeated stop %s", domain.ErrValidation, id)
		}
		delete(current, id)
	}

	const setOrder = `UPDATE crawl_locations SET sort_order = @sort_order WHERE id = @id`
	for i, id := range order {
		if _, err := tx.Exec(ctx, setOrder, pgx.NamedArgs{"id": id, "sort_order": i}); err != nil {
			return fmt.Errorf("repo.CrawlRepo.Reorder: update: %w", err)
		}
	}

	const touch = `UPDATE feed_posts SET updated_at = now() WHERE id = @post_id`
	if _, err := tx.Exec(ctx, touch, pgx.NamedArgs{"post_id": postID}); err != nil {
		return fmt.Errorf("repo.CrawlRepo.Reorder: touch post: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repo.CrawlRepo.Reorder: commit: %w", err)
	}
	return nil
}

func (r *pgCrawlRepo) SetCompleted(ctx context.Context, id uuid.UUID, completed bool) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repo.CrawlRepo.SetCompleted: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const q = `
		UPDATE crawl_locations
		SET completed = @completed
		WHERE id = @id
		RETURNING post_id`

	var postID pgtype.UUID
	err = tx.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "completed": completed}).Scan(&postID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("repo.CrawlRepo.SetCompleted: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("repo.CrawlRepo.SetCompleted: %w", err)
	}

	const touch = `UPDATE feed_posts SET updated_at = now() WHERE id = @post_id`
	if _, err := tx.Exec(ctx, touch, pgx.NamedArgs{"post_id": uuid.UUID(postID.Bytes)}); err != nil {
		return fmt.Errorf("repo.CrawlRepo.SetCompleted: touch post: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repo.CrawlRepo.SetCompleted: commit: %w", err)
	}
	return nil
}

// scanLocation maps a single database row into a domain.CrawlLocation.
func scanLocation(s scanner) (domain.CrawlLocation, error) {
	var (
		l        domain.CrawlLocation
		id       pgtype.UUID
		postID   pgtype.UUID
		lat, lng pgtype.Float8
	)

	err := s.Scan(&id, &postID, &l.SortOrder, &l.Name, &lat, &lng, &l.Completed, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CrawlLocation{}, domain.ErrNotFound
		}
		return domain.CrawlLocation{}, err
	}

	l.ID = uuid.UUID(id.Bytes)
	l.PostID = uuid.UUID(postID.Bytes)
	if lat.Valid && lng.Valid {
		l.Coords = &domain.GeoPoint{Lat: lat.Float64, Lng: lng.Float64}
	}
	return l, nil
}
