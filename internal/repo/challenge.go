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

// ChallengeRepo defines the persistence operations for checklist challenges.
// Challenges live in two tables, attached to a post or to a crawl stop,
// but share one ID namespace (random UUIDs), so lookups by ID span both.
type ChallengeRepo interface {
	// CreateForPost inserts a challenge attached to a post.
	CreateForPost(ctx context.Context, c domain.Challenge) (domain.Challenge, error)

	// CreateForLocation inserts a challenge attached to a crawl stop.
	CreateForLocation(ctx context.Context, c domain.Challenge) (domain.Challenge, error)

	// Get retrieves a challenge from either table and the ID of the post it
	// ultimately belongs to (directly or via its crawl stop).
	// Returns domain.ErrNotFound if no challenge with that ID exists.
	Get(ctx context.Context, id uuid.UUID) (domain.Challenge, uuid.UUID, error)

	// SetCompletion sets or clears the completion pair. completedBy non-nil
	// marks the challenge complete by that user; nil clears both fields.
	// The owning post's updated_at is bumped in the same transaction so a
	// concurrent reader never sees updated content behind a stale timestamp.
	SetCompletion(ctx context.Context, id uuid.UUID, completedBy *uuid.UUID) error

	// Delete removes a challenge from whichever table holds it.
	// Returns domain.ErrNotFound if no challenge with that ID exists.
	Delete(ctx context.Context, id uuid.UUID) error
}

// pgChallengeRepo is the Postgres implementation of ChallengeRepo.
type pgChallengeRepo struct {
	db txStarter
}

// NewChallengeRepo constructs a ChallengeRepo backed by the provided connection.
func NewChallengeRepo(db txStarter) ChallengeRepo {
	return &pgChallengeRepo{db: db}
}

func (r *pgChallengeRepo) CreateForPost(ctx context.Context, c domain.Challenge) (domain.Challenge, error) {
	const q = `
		INSERT INTO feed_post_challenges (post_id, author_id, text, tagged_user_id)
		VALUES (@parent_id, @author_id, @text, @tagged_user_id)
		RETURNING id, post_id, author_id, text, tagged_user_id, completed, completed_by, created_at`

	result, err := scanChallenge(r.db.QueryRow(ctx, q, challengeArgs(c)))
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("repo.ChallengeRepo.CreateForPost: %w", err)
	}
	return result, nil
}

func (r *pgChallengeRepo) CreateForLocation(ctx context.Context, c domain.Challenge) (domain.Challenge, error) {
	const q = `
		INSERT INTO crawl_location_challenges (location_id, author_id, text, tagged_user_id)
		VALUES (@parent_id, @author_id, @text, @tagged_user_id)
		RETURNING id, location_id, author_id, text, tagged_user_id, completed, completed_by, created_at`

	result, err := scanChallenge(r.db.QueryRow(ctx, q, challengeArgs(c)))
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("repo.ChallengeRepo.CreateForLocation: %w", err)
	}
	return result, nil
}

func (r *pgChallengeRepo) Get(ctx context.Context, id uuid.UUID) (domain.Challenge, uuid.UUID, error) {
	// One query across both tables; the last column is the owning post.
	const q = `
		SELECT c.id, c.post_id, c.author_id, c.text, c.tagged_user_id,
		       c.completed, c.completed_by, c.created_at, c.post_id AS owner_post
		FROM feed_post_challenges c
		WHERE c.id = @id
		UNION ALL
		SELECT c.id, c.location_id, c.author_id, c.text, c.tagged_user_id,
		       c.completed, c.completed_by, c.created_at, l.post_id
		FROM crawl_location_challenges c
		JOIN crawl_locations l ON l.id = c.location_id
		WHERE c.id = @id`

	var (
		c         domain.Challenge
		cid       pgtype.UUID
		parentID  pgtype.UUID
		authorID  pgtype.UUID
		tagged    pgtype.UUID
		doneBy    pgtype.UUID
		ownerPost pgtype.UUID
	)
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}).Scan(
		&cid, &parentID, &authorID, &c.Text, &tagged, &c.Completed, &doneBy, &c.CreatedAt, &ownerPost)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Challenge{}, uuid.Nil, fmt.Errorf("repo.ChallengeRepo.Get: %w", domain.ErrNotFound)
		}
		return domain.Challenge{}, uuid.Nil, fmt.Errorf("repo.ChallengeRepo.Get: %w", err)
	}

	c.ID = uuid.UUID(cid.Bytes)
	c.ParentID = uuid.UUID(parentID.Bytes)
	c.AuthorID = uuid.UUID(authorID.Bytes)
	c.TaggedUserID = uuidPtr(tagged)
	c.CompletedBy = uuidPtr(doneBy)
	return c, uuid.UUID(ownerPost.Bytes), nil
}

func (r *pgChallengeRepo) SetCompletion(ctx context.Context, id uuid.UUID, completedBy *uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repo.ChallengeRepo.SetCompletion: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	args := pgx.NamedArgs{"id": id, "completed_by": completedBy}

	// Post-attached challenges first; fall through to crawl-stop challenges.
	const updatePostChallenge = `
		UPDATE feed_post_challenges
		SET completed = @completed_by IS NOT NULL, completed_by = @completed_by
		WHERE id = @id
		RETURNING post_id`

	var postID pgtype.UUID
	err = tx.QueryRow(ctx, updatePostChallenge, args).Scan(&postID)
	if errors.Is(err, pgx.ErrNoRows) {
		const updateLocChallenge = `
			UPDATE crawl_location_challenges c
			SET completed = @completed_by IS NOT NULL, completed_by = @completed_by
			FROM crawl_locations l
			WHERE c.id = @id AND l.id = c.location_id
			RETURNING l.post_id`
		err = tx.QueryRow(ctx, updateLocChallenge, args).Scan(&postID)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("repo.ChallengeRepo.SetCompletion: %w", domain.ErrNotFound)
		}
	}
	if err != nil {
		return fmt.Errorf("repo.ChallengeRepo.SetCompletion: %w", err)
	}

	const touch = `UPDATE feed_posts SET updated_at = now() WHERE id = @post_id`
	if _, err := tx.Exec(ctx, touch, pgx.NamedArgs{"post_id": uuid.UUID(postID.Bytes)}); err != nil {
		return fmt.Errorf("repo.ChallengeRepo.SetCompletion: touch post: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repo.ChallengeRepo.SetCompletion: commit: %w", err)
	}
	return nil
}

func (r *pgChallengeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q1 = `DELETE FROM feed_post_challenges WHERE id = @id`
	tag, err := r.db.Exec(ctx, q1, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.ChallengeRepo.Delete: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	const q2 = `DELETE FROM crawl_location_challenges WHERE id = @id`
	tag, err = r.db.Exec(ctx, q2, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.ChallengeRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ChallengeRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// challengeArgs builds the named-arg map shared by both create variants.
func challengeArgs(c domain.Challenge) pgx.NamedArgs {
	return pgx.NamedArgs{
		"parent_id":      c.ParentID,
		"author_id":      c.AuthorID,
		"text":           c.Text,
		"tagged_user_id": c.TaggedUserID,
	}
}

// scanChallenge maps a single database row into a domain.Challenge.
func scanChallenge(s scanner) (domain.Challenge, error) {
	var (
		c        domain.Challenge
		id       pgtype.UUID
		parentID pgtype.UUID
		authorID pgtype.UUID
		tagged   pgtype.UUID
		doneBy   pgtype.UUID
	)

	err := s.Scan(&id, &parentID, &authorID, &c.Text, &tagged, &c.Completed, &doneBy, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Challenge{}, domain.ErrNotFound
		}
		return domain.Challenge{}, err
	}

	c.ID = uuid.UUID(id.Bytes)
	c.ParentID = uuid.UUID(parentID.Bytes)
	c.AuthorID = uuid.UUID(authorID.Bytes)
	c.TaggedUserID = uuidPtr(tagged)
	c.CompletedBy = uuidPtr(doneBy)
	return c, nil
}

// uuidPtr converts a nullable pgtype.UUID into a *uuid.UUID.
func uuidPtr(u pgtype.UUID) *uuid.UUID {
	if !u.Valid {
		return nil
	}
	id := uuid.UUID(u.Bytes)
	return &id
}
