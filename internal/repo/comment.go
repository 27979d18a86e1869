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

// CommentRepo defines the persistence operations for post comments.
type CommentRepo interface {
	// Create inserts a comment and returns the persisted record.
	Create(ctx context.Context, comment domain.Comment) (domain.Comment, error)

	// GetByID retrieves a comment by primary key.
	// Returns domain.ErrNotFound if the comment does not exist or is soft-deleted.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Comment, error)

	// SoftDelete marks the comment deleted.
	// Returns domain.ErrNotFound if the comment does not exist or is already deleted.
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// pgCommentRepo is the Postgres implementation of CommentRepo.
type pgCommentRepo struct {
	db db
}

// NewCommentRepo constructs a CommentRepo backed by the provided db connection.
func NewCommentRepo(db db) CommentRepo {
	return &pgCommentRepo{db: db}
}

func (r *pgCommentRepo) Create(ctx context.Context, comment domain.Comment) (domain.Comment, error) {
	const q = `
		INSERT INTO feed_comments (post_id, author_id, body)
		VALUES (@post_id, @author_id, @body)
		RETURNING id, post_id, author_id, body, deleted, created_at`

	args := pgx.NamedArgs{
		"post_id":   comment.PostID,
		"author_id": comment.AuthorID,
		"body":      comment.Body,
	}

	result, err := scanComment(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Comment{}, fmt.Errorf("repo.CommentRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgCommentRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Comment, error) {
	const q = `
		SELECT id, post_id, author_id, body, deleted, created_at
		FROM feed_comments
		WHERE id = @id AND NOT deleted`

	result, err := scanComment(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Comment{}, fmt.Errorf("repo.CommentRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgCommentRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	const q = `
		UPDATE feed_comments
		SET deleted = true
		WHERE id = @id AND NOT deleted`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.CommentRepo.SoftDelete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.CommentRepo.SoftDelete: %w", domain.ErrNotFound)
	}
	return nil
}

// scanComment maps a single database row into a domain.Comment.
func scanComment(s scanner) (domain.Comment, error) {
	var (
		c        domain.Comment
		id       pgtype.UUID
		postID   pgtype.UUID
		authorID pgtype.UUID
	)

	err := s.Scan(&id, &postID, &authorID, &c.Body, &c.Deleted, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Comment{}, domain.ErrNotFound
		}
		return domain.Comment{}, err
	}

	c.ID = uuid.UUID(id.Bytes)
	c.PostID = uuid.UUID(postID.Bytes)
	c.AuthorID = uuid.UUID(authorID.Bytes)
	return c, nil
}
