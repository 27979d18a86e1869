package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the authenticated caller's token material, placed in the
// request context by NewAuthHandler. Subject is always non-empty; email
// and name are whatever claims the identity provider included.
type Identity struct {
	Subject string
	Email   string
	Name    string
}

// identityClaims is the JWT claim set we read. Extra claims are ignored.
type identityClaims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type contextKey struct{}

// identityKey keys the Identity value in the request context.
var identityKey = contextKey{}

// IdentityFrom extracts the authenticated identity from a request context.
// The second return is false for unauthenticated requests, which can only
// happen on routes not behind NewAuthHandler.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// WithIdentity returns a context carrying the given identity, as if the
// request had passed through NewAuthHandler. Intended for handler tests.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// NewAuthHandler returns a middleware that requires a valid HMAC-signed
// bearer token on every request except CORS preflights. The verified
// subject, email, and name claims are placed in the request context for
// handlers to read via IdentityFrom.
//
// Missing, malformed, expired, or wrongly-signed tokens are rejected with
// 401 and a JSON error body; no downstream handler runs.
func NewAuthHandler(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			raw, ok := bearerToken(r)
			if !ok {
				unauthorized(w, "missing bearer token")
				return
			}

			claims := &identityClaims{}
			_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return secret, nil
			})
			if err != nil {
				unauthorized(w, "invalid or expired token")
				return
			}
			if claims.Subject == "" {
				unauthorized(w, "token has no subject")
				return
			}

			identity := Identity{
				Subject: claims.Subject,
				Email:   claims.Email,
				Name:    claims.Name,
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, identity)))
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}

// unauthorized writes the 401 error envelope directly; this middleware
// runs before any handler, so it cannot reuse the handler package's
// response helpers without an import cycle.
func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": "unauthenticated", "message": message},
	})
}
