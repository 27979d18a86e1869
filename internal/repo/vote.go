package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tripcrew/tripcrew/internal/domain"
)

// VoteRepo defines the persistence operations for post upvotes.
// Both Add and Remove are idempotent: the (post_id, user_id) primary key
// collapses concurrent duplicate votes into one row with no error.
type VoteRepo interface {
	// Add records an upvote. A second vote by the same user is a no-op.
	Add(ctx context.Context, postID, userID uuid.UUID) error

	// Remove withdraws an upvote. Removing a vote that was never cast is a no-op.
	Remove(ctx context.Context, postID, userID uuid.UUID) error

	// Summary returns the vote rollup for a post as seen by viewerID:
	// total count, whether the viewer voted, and deduplicated voter names.
	Summary(ctx context.Context, postID, viewerID uuid.UUID) (domain.VoteSummary, error)
}

// pgVoteRepo is the Postgres implementation of VoteRepo.
type pgVoteRepo struct {
	db db
}

// NewVoteRepo constructs a VoteRepo backed by the provided db connection.
func NewVoteRepo(db db) VoteRepo {
	return &pgVoteRepo{db: db}
}

func (r *pgVoteRepo) Add(ctx context.Context, postID, userID uuid.UUID) error {
	const q = `
		INSERT INTO post_votes (post_id, user_id)
		VALUES (@post_id, @user_id)
		ON CONFLICT (post_id, user_id) DO NOTHING`

	if _, err := r.db.Exec(ctx, q, pgx.NamedArgs{"post_id": postID, "user_id": userID}); err != nil {
		return fmt.Errorf("repo.VoteRepo.Add: %w", err)
	}
	return nil
}

func (r *pgVoteRepo) Remove(ctx context.Context, postID, userID uuid.UUID) error {
	const q = `DELETE FROM post_votes WHERE post_id = @post_id AND user_id = @user_id`

	if _, err := r.db.Exec(ctx, q, pgx.NamedArgs{"post_id": postID, "user_id": userID}); err != nil {
		return fmt.Errorf("repo.VoteRepo.Remove: %w", err)
	}
	return nil
}

func (r *pgVoteRepo) Summary(ctx context.Context, postID, viewerID uuid.UUID) (domain.VoteSummary, error) {
	const q = `
		SELECT u.name, v.user_id = @viewer_id
		FROM post_votes v
		JOIN users u ON u.id = v.user_id
		WHERE v.post_id = @post_id
		ORDER BY v.created_at`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"post_id": postID, "viewer_id": viewerID})
	if err != nil {
		return domain.VoteSummary{}, fmt.Errorf("repo.VoteRepo.Summary: %w", err)
	}
	defer rows.Close()

	summary := domain.VoteSummary{Voters: []string{}}
	seen := map[string]bool{}
	for rows.Next() {
		var (
			name     string
			isViewer bool
		)
		if err := rows.Scan(&name, &isViewer); err != nil {
			return domain.VoteSummary{}, fmt.Errorf("repo.VoteRepo.Summary: scan: %w", err)
		}
		summary.Count++
		if isViewer {
			summary.HasVoted = true
		}
		if !seen[name] {
			seen[name] = true
			summary.Voters = append(summary.Voters, name)
		}
	}
	if err := rows.Err(); err != nil {
		return domain.VoteSummary{}, fmt.Errorf("repo.VoteRepo.Summary: rows: %w", err)
	}
	return summary, nil
}
