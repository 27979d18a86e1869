// Package service contains the business logic for the trip planner API.
// Services validate inputs, enforce membership rules, and orchestrate repo
// calls. No SQL lives here; services depend on repo interfaces, not
// implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tripcrew/tripcrew/internal/domain"
	"github.com/tripcrew/tripcrew/internal/repo"
)

// userNamespace is the fixed UUIDv5 namespace user IDs are derived in.
// Changing it would re-key every user, so it never changes.
var userNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8") // RFC 4122 DNS namespace

// FallbackName is used when neither the caller, the stored record, nor the
// token claims yield a usable display name.
const FallbackName = "Traveler"

// ResolveInput carries the external identity material for one authenticated
// contact: the provider subject plus optional claims and a caller-supplied
// display name.
type ResolveInput struct {
	Subject     string
	Email       string
	NameClaim   string
	DisplayName string
}

// IdentityService maps external authentication subjects to stable internal
// user records, creating or refreshing them as needed.
type IdentityService struct {
	users repo.UserRepo
}

// NewIdentityService constructs an IdentityService backed by the provided UserRepo.
func NewIdentityService(users repo.UserRepo) *IdentityService {
	return &IdentityService{users: users}
}

// UserID derives the deterministic internal ID for a subject. The same
// subject always yields the same ID.
func UserID(subject string) uuid.UUID {
	return uuid.NewSHA1(userNamespace, []byte(subject))
}

// Resolve ensures a user row exists for the given identity and returns it.
// It is idempotent: calling twice with the same inputs produces the same
// user ID and converges the stored name.
//
// Lookup prefers a row matching the claimed email over the subject-derived
// ID, so an identity survives a provider migration that changes the subject
// but keeps the email.
func (s *IdentityService) Resolve(ctx context.Context, in ResolveInput) (domain.User, error) {
	subject := strings.TrimSpace(in.Subject)
	if subject == "" {
		return domain.User{}, fmt.Errorf("%w: subject is required", domain.ErrValidation)
	}

	id := UserID(subject)
	email := strings.TrimSpace(in.Email)

	existing, found, err := s.lookup(ctx, id, email)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.IdentityService.Resolve: %w", err)
	}
	if found {
		id = existing.ID
	}

	name := resolveName(in.DisplayName, existing.Name, in.NameClaim)
	if email == "" {
		email = existing.Email
	}

	user, err := s.users.Upsert(ctx, domain.User{ID: id, Name: name, Email: email})
	if err != nil {
		return domain.User{}, fmt.Errorf("service.IdentityService.Resolve: %w", err)
	}
	return user, nil
}

// lookup finds any existing row for this identity: email match first, then
// the subject-derived ID.
func (s *IdentityService) lookup(ctx context.Context, id uuid.UUID, email string) (domain.User, bool, error) {
	if email != "" {
		u, err := s.users.GetByEmail(ctx, email)
		if err == nil {
			return u, true, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, false, err
		}
	}

	u, err := s.users.GetByID(ctx, id)
	if err == nil {
		return u, true, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, false, err
	}
	return domain.User{}, false, nil
}

// resolveName picks the effective display name by priority:
// caller-supplied > stored > token claim > fallback. Email-shaped values
// are skipped; identity providers commonly stuff the email into the name
// claim, and showing an address as a display name is never wanted.
func resolveName(supplied, stored, claim string) string {
	for _, candidate := range []string{supplied, stored, claim} {
		c := strings.TrimSpace(candidate)
		if c != "" && !looksLikeEmail(c) {
			return c
		}
	}
	return FallbackName
}

// looksLikeEmail reports whether s is shaped like an email address:
// a non-empty local part, an @, and a domain containing a dot.
func looksLikeEmail(s string) bool {
	at := strings.Index(s, "@")
	if at <= 0 || at == len(s)-1 {
		return false
	}
	return strings.Contains(s[at+1:], ".") && !strings.ContainsAny(s, " \t")
}
