package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tripcrew/tripcrew/internal/domain"
)

// MemberRepo answers the membership and ownership queries that authorize
// every trip-scoped operation, and records joins.
type MemberRepo interface {
	// IsMember reports whether an active membership row exists for the pair.
	IsMember(ctx context.Context, tripID, userID uuid.UUID) (bool, error)

	// IsOwner reports whether an active OWNER membership row exists for the pair.
	IsOwner(ctx context.Context, tripID, userID uuid.UUID) (bool, error)

	// Join inserts a MEMBER row or reactivates an existing one. The role of
	// an existing row is preserved, so an owner re-joining their own trip
	// stays an owner.
	Join(ctx context.Context, tripID, userID uuid.UUID) error
}

// pgMemberRepo is the Postgres implementation of MemberRepo.
type pgMemberRepo struct {
	db db
}

// NewMemberRepo constructs a MemberRepo backed by the provided db connection.
func NewMemberRepo(db db) MemberRepo {
	return &pgMemberRepo{db: db}
}

func (r *pgMemberRepo) IsMember(ctx context.Context, tripID, userID uuid.UUID) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM trip_members
			WHERE trip_id = @trip_id AND user_id = @user_id AND active
		)`

	var ok bool
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"trip_id": tripID, "user_id": userID}).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("repo.MemberRepo.IsMember: %w", err)
	}
	return ok, nil
}

func (r *pgMemberRepo) IsOwner(ctx context.Context, tripID, userID uuid.UUID) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM trip_members
			WHERE trip_id = @trip_id AND user_id = @user_id AND active AND role = @role
		)`

	var ok bool
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"trip_id": tripID, "user_id": userID, "role": domain.RoleOwner}).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("repo.MemberRepo.IsOwner: %w", err)
	}
	return ok, nil
}

func (r *pgMemberRepo) Join(ctx context.Context, tripID, userID uuid.UUID) error {
	const q = `
		INSERT INTO trip_members (trip_id, user_id, role)
		VALUES (@trip_id, @user_id, @role)
		ON CONFLICT (trip_id, user_id) DO UPDATE
		SET active = true`

	if _, err := r.db.Exec(ctx, q, pgx.NamedArgs{"trip_id": tripID, "user_id": userID, "role": domain.RoleMember}); err != nil {
		return fmt.Errorf("repo.MemberRepo.Join: %w", err)
	}
	return nil
}
