package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/tripcrew/tripcrew/internal/domain"
	"github.com/tripcrew/tripcrew/internal/repo"
)

// codeAttempts bounds the join-code collision retry loop. A collision after
// this many independent draws from a 32^8 space indicates a systemic
// problem rather than bad luck, so the attempt budget is deliberately small.
const codeAttempts = 10

// ErrCodeExhausted is returned when every code attempt collided. Handlers
// map it to a 500; by the time ten fresh draws have collided something is
// wrong with the trips table or the generator, not the request.
var ErrCodeExhausted = errors.New("unable to generate a unique join code")

// CreateTripInput is the validated-on-entry shape for trip creation.
type CreateTripInput struct {
	Name        string
	Destination string
	StartDate   *time.Time
	DayCount    int
}

// TripService implements trip lifecycle operations: creation with join-code
// issuance, joining by code, listing, and archival.
type TripService struct {
	trips   repo.TripRepo
	members repo.MemberRepo

	// newCode generates candidate join codes. Injectable so tests can force
	// collisions and verify the attempt budget without a database.
	newCode func() string
}

// NewTripService constructs a TripService backed by the provided repos.
func NewTripService(trips repo.TripRepo, members repo.MemberRepo) *TripService {
	return &TripService{trips: trips, members: members, newCode: domain.NewJoinCode}
}

// WithCodeGenerator overrides the join-code generator. Test hook.
func (s *TripService) WithCodeGenerator(gen func() string) *TripService {
	s.newCode = gen
	return s
}

// Create validates the input and persists the trip, its OWNER membership,
// and its day rows atomically, retrying code collisions up to the attempt
// budget. Returns ErrCodeExhausted after the final collision.
func (s *TripService) Create(ctx context.Context, ownerID uuid.UUID, in CreateTripInput) (domain.Trip, error) {
	in.Name = clip(in.Name, maxNameLen)
	in.Destination = clip(in.Destination, maxNameLen)

	if in.Name == "" {
		return domain.Trip{}, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if in.DayCount < domain.MinDayCount || in.DayCount > domain.MaxDayCount {
		return domain.Trip{}, fmt.Errorf("%w: dayCount must be between %d and %d",
			domain.ErrValidation, domain.MinDayCount, domain.MaxDayCount)
	}

	trip := domain.Trip{
		Name:        in.Name,
		Destination: in.Destination,
		StartDate:   in.StartDate,
		DayCount:    in.DayCount,
		OwnerID:     ownerID,
	}
	days := buildDays(in.DayCount, in.StartDate)

	var created domain.Trip
	backoff := retry.WithMaxRetries(codeAttempts-1, retry.NewConstant(time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		trip.Code = s.newCode()
		var err error
		created, err = s.trips.CreateWithSetup(ctx, trip, days)
		if errors.Is(err, domain.ErrCodeTaken) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrCodeTaken) {
			return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", ErrCodeExhausted)
		}
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	return created, nil
}

// Join adds the user to the trip identified by code as a MEMBER, or
// reactivates their previous membership. Malformed codes are rejected
// before any lookup; unknown or archived codes return domain.ErrNotFound.
func (s *TripService) Join(ctx context.Context, userID uuid.UUID, code string) (domain.Trip, error) {
	code = domain.NormalizeJoinCode(code)
	if !domain.ValidJoinCode(code) {
		return domain.Trip{}, fmt.Errorf("%w: join code must be %d characters", domain.ErrValidation, domain.CodeLength)
	}

	trip, err := s.trips.GetByCode(ctx, code)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Join: %w", err)
	}
	if err := s.members.Join(ctx, trip.ID, userID); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Join: %w", err)
	}
	return trip, nil
}

// List returns the non-archived trips the user actively belongs to,
// newest first. Always returns a non-nil slice.
func (s *TripService) List(ctx context.Context, userID uuid.UUID) ([]domain.Trip, error) {
	trips, err := s.trips.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.List: %w", err)
	}
	if trips == nil {
		return []domain.Trip{}, nil
	}
	return trips, nil
}

// Archive soft-deletes a trip and deactivates its memberships. Owner only;
// a second archive of the same trip returns domain.ErrNotFound.
func (s *TripService) Archive(ctx context.Context, userID, tripID uuid.UUID) error {
	owner, err := s.members.IsOwner(ctx, tripID, userID)
	if err != nil {
		return fmt.Errorf("service.TripService.Archive: %w", err)
	}
	if !owner {
		return fmt.Errorf("service.TripService.Archive: %w", domain.ErrForbidden)
	}
	if err := s.trips.Archive(ctx, tripID); err != nil {
		return fmt.Errorf("service.TripService.Archive: %w", err)
	}
	return nil
}

// buildDays generates the day rows 1..dayCount. Each day's date is the
// start date plus (dayNumber-1) days when a start date was given, else nil.
func buildDays(dayCount int, startDate *time.Time) []domain.TripDay {
	days := make([]domain.TripDay, dayCount)
	for i := range days {
		n := i + 1
		days[i] = domain.TripDay{DayNumber: n, Label: fmt.Sprintf("Day %d", n)}
		if startDate != nil {
			d := startDate.AddDate(0, 0, i)
			days[i].Date = &d
		}
	}
	return days
}
