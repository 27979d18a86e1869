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

// TripRepo defines the persistence operations for Trips and their day rows.
type TripRepo interface {
	// CreateWithSetup inserts the trip, its OWNER membership, and one day row
	// per day number in a single transaction. A caller never observes a trip
	// without its days or its owner membership.
	// Returns domain.ErrCodeTaken if trip.Code collides with an existing code;
	// the transaction is fully rolled back in that case.
	CreateWithSetup(ctx context.Context, trip domain.Trip, days []domain.TripDay) (domain.Trip, error)

	// GetByID retrieves a trip by primary key, archived or not.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// GetByCode retrieves a non-archived trip by its join code.
	// Returns domain.ErrNotFound if no live trip has that code.
	GetByCode(ctx context.Context, code string) (domain.Trip, error)

	// ListByUser returns the non-archived trips the user is an active member
	// of, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Trip, error)

	// Archive soft-deletes the trip and deactivates all its memberships in
	// one transaction. Returns domain.ErrNotFound if the trip does not exist
	// or is already archived.
	Archive(ctx context.Context, id uuid.UUID) error

	// ListDays returns the trip's day rows ordered by day number.
	ListDays(ctx context.Context, tripID uuid.UUID) ([]domain.TripDay, error)
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db txStarter
}

// NewTripRepo constructs a TripRepo backed by the provided connection.
// Trip creation and archival open transactions, so the connection must be
// able to begin one (*pgxpool.Pool or pgx.Conn; a pgx.Tx also works via
// nested savepoints, which is what the integration tests rely on).
func NewTripRepo(db txStarter) TripRepo {
	return &pgTripRepo{db: db}
}

func (r *pgTripRepo) CreateWithSetup(ctx context.Context, trip domain.Trip, days []domain.TripDay) (domain.Trip, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.CreateWithSetup: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	const insertTrip = `
		INSERT INTO trips (code, name, destination, start_date, day_count, owner_id)
		VALUES (@code, @name, @destination, @start_date, @day_count, @owner_id)
		RETURNING id, code, name, destination, start_date, day_count, owner_id, archived, created_at, updated_at`

	row := tx.QueryRow(ctx, insertTrip, pgx.NamedArgs{
		"code":        trip.Code,
		"name":        trip.Name,
		"destination": trip.Destination,
		"start_date":  trip.StartDate,
		"day_count":   trip.DayCount,
		"owner_id":    trip.OwnerID,
	})
	created, err := scanTrip(row)
	if err != nil {
		if isUniqueViolation(err, "trips_code_key") {
			return domain.Trip{}, domain.ErrCodeTaken
		}
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.CreateWithSetup: insert trip: %w", err)
	}

	const insertOwner = `
		INSERT INTO trip_members (trip_id, user_id, role)
		VALUES (@trip_id, @user_id, 'OWNER')`
	if _, err := tx.Exec(ctx, insertOwner, pgx.NamedArgs{"trip_id": created.ID, "user_id": trip.OwnerID}); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.CreateWithSetup: insert owner: %w", err)
	}

	const insertDay = `
		INSERT INTO trip_days (trip_id, day_number, date, label)
		VALUES (@trip_id, @day_number, @date, @label)`
	for _, d := range days {
		args := pgx.NamedArgs{
			"trip_id":    created.ID,
			"day_number": d.DayNumber,
			"date":       d.Date,
			"label":      d.Label,
		}
		if _, err := tx.Exec(ctx, insertDay, args); err != nil {
			return domain.Trip{}, fmt.Errorf("repo.TripRepo.CreateWithSetup: insert day %d: %w", d.DayNumber, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.CreateWithSetup: commit: %w", err)
	}
	return created, nil
}

func (r *pgTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	const q = `
		SELECT id, code, name, destination, start_date, day_count, owner_id, archived, created_at, updated_at
		FROM trips
		WHERE id = @id`

	result, err := scanTrip(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgTripRepo) GetByCode(ctx context.Context, code string) (domain.Trip, error) {
	const q = `
		SELECT id, code, name, destination, start_date, day_count, owner_id, archived, created_at, updated_at
		FROM trips
		WHERE code = @code AND NOT archived`

	result, err := scanTrip(r.db.QueryRow(ctx, q, pgx.NamedArgs{"code": code}))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByCode: %w", err)
	}
	return result, nil
}

func (r *pgTripRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Trip, error) {
	const q = `
		SELECT t.id, t.code, t.name, t.destination, t.start_date, t.day_count, t.owner_id, t.archived, t.created_at, t.updated_at
		FROM trips t
		JOIN trip_members m ON m.trip_id = t.id
		WHERE m.user_id = @user_id AND m.active AND NOT t.archived
		ORDER BY t.created_at DESC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.ListByUser: %w", err)
	}
	defer rows.Close()

	var trips []domain.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.TripRepo.ListByUser: scan: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.TripRepo.ListByUser: rows: %w", err)
	}
	return trips, nil
}

func (r *pgTripRepo) Archive(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repo.TripRepo.Archive: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const archive = `
		UPDATE trips
		SET archived = true, updated_at = now()
		WHERE id = @id AND NOT archived`
	tag, err := tx.Exec(ctx, archive, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.TripRepo.Archive: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripRepo.Archive: %w", domain.ErrNotFound)
	}

	const deactivate = `
		UPDATE trip_members
		SET active = false
		WHERE trip_id = @id`
	if _, err := tx.Exec(ctx, deactivate, pgx.NamedArgs{"id": id}); err != nil {
		return fmt.Errorf("repo.TripRepo.Archive: deactivate members: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repo.TripRepo.Archive: commit: %w", err)
	}
	return nil
}

func (r *pgTripRepo) ListDays(ctx context.Context, tripID uuid.UUID) ([]domain.TripDay, error) {
	const q = `
		SELECT trip_id, day_number, date, label
		FROM trip_days
		WHERE trip_id = @trip_id
		ORDER BY day_number`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.ListDays: %w", err)
	}
	defer rows.Close()

	var days []domain.TripDay
	for rows.Next() {
		var (
			d    domain.TripDay
			tid  pgtype.UUID
			date pgtype.Date
		)
		if err := rows.Scan(&tid, &d.DayNumber, &date, &d.Label); err != nil {
			return nil, fmt.Errorf("repo.TripRepo.ListDays: scan: %w", err)
		}
		d.TripID = uuid.UUID(tid.Bytes)
		if date.Valid {
			dt := date.Time
			d.Date = &dt
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.TripRepo.ListDays: rows: %w", err)
	}
	return days, nil
}

// scanTrip maps a single database row into a domain.Trip.
// It handles the UUID and nullable start_date conversions.
func scanTrip(s scanner) (domain.Trip, error) {
	var (
		t         domain.Trip
		id        pgtype.UUID
		ownerID   pgtype.UUID
		startDate pgtype.Date
	)

	err := s.Scan(&id, &t.Code, &t.Name, &t.Destination, &startDate, &t.DayCount,
		&ownerID, &t.Archived, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		return domain.Trip{}, err
	}

	t.ID = uuid.UUID(id.Bytes)
	t.OwnerID = uuid.UUID(ownerID.Bytes)
	if startDate.Valid {
		sd := startDate.Time
		t.StartDate = &sd
	}
	return t, nil
}
