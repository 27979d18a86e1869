package handler

import (
	"encoding/json"
	"net/http"

	"github.com/tripcrew/tripcrew/internal/middleware"
	"github.com/tripcrew/tripcrew/internal/service"
)

// sessionRequest is the optional body of POST /auth/session. A display name
// supplied here takes priority over the token's name claim.
type sessionRequest struct {
	DisplayName string `json:"displayName"`
}

// CreateSession resolves the bearer identity to a user record, creating or
// refreshing it. Clients call it once after sign-in to learn their internal
// user ID and effective display name.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, errorBody{errorDetail{Code: "unauthenticated", Message: "authentication required"}})
		return
	}

	// Body is optional; ignore anything unparseable rather than failing the
	// sign-in flow over a malformed display name.
	var req sessionRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	user, err := s.identity.Resolve(r.Context(), service.ResolveInput{
		Subject:     identity.Subject,
		Email:       identity.Email,
		NameClaim:   identity.Name,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		respondErr(w, r, err)
		return
	}

	respond(w, http.StatusOK, map[string]any{"user": user})
}
