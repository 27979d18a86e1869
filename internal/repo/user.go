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

// UserRepo defines the persistence operations for Users.
type UserRepo interface {
	// Upsert inserts the user or, if a row with the same id already exists,
	// refreshes its name, email, and last-seen time. Returns the stored record.
	Upsert(ctx context.Context, user domain.User) (domain.User, error)

	// GetByID retrieves a user by primary key.
	// Returns domain.ErrNotFound if no user with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)

	// GetByEmail retrieves a user by their unique email.
	// Returns domain.ErrNotFound if no user has that email.
	GetByEmail(ctx context.Context, email string) (domain.User, error)
}

// pgUserRepo is the Postgres implementation of UserRepo.
type pgUserRepo struct {
	db db
}

// NewUserRepo constructs a UserRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewUserRepo(db db) UserRepo {
	return &pgUserRepo{db: db}
}

func (r *pgUserRepo) Upsert(ctx context.Context, user domain.User) (domain.User, error) {
	const q = `
		INSERT INTO users (id, name, email)
		VALUES (@id, @name, @email)
		ON CONFLICT (id) DO UPDATE
		SET name         = excluded.name,
		    email        = COALESCE(excluded.email, users.email),
		    last_seen_at = now()
		RETURNING id, name, email, created_at, last_seen_at`

	args := pgx.NamedArgs{
		"id":    user.ID,
		"name":  user.Name,
		"email": nullIfEmpty(user.Email),
	}

	result, err := scanUser(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.Upsert: %w", err)
	}
	return result, nil
}

func (r *pgUserRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	const q = `
		SELECT id, name, email, created_at, last_seen_at
		FROM users
		WHERE id = @id`

	result, err := scanUser(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const q = `
		SELECT id, name, email, created_at, last_seen_at
		FROM users
		WHERE email = @email`

	result, err := scanUser(r.db.QueryRow(ctx, q, pgx.NamedArgs{"email": email}))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.GetByEmail: %w", err)
	}
	return result, nil
}

// scanUser maps a single database row into a domain.User.
func scanUser(s scanner) (domain.User, error) {
	var (
		u     domain.User
		id    pgtype.UUID
		email pgtype.Text
	)

	err := s.Scan(&id, &u.Name, &email, &u.CreatedAt, &u.LastSeenAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, err
	}

	u.ID = uuid.UUID(id.Bytes)
	if email.Valid {
		u.Email = email.String
	}
	return u, nil
}

// nullIfEmpty converts "" to a SQL NULL so empty strings never collide on
// the users.email unique index.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
