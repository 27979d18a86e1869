package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tripcrew/tripcrew/internal/domain"
	"github.com/tripcrew/tripcrew/internal/middleware"
	"github.com/tripcrew/tripcrew/internal/service"
)

// errorBody is the JSON error envelope every failure response uses.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respond writes v as JSON with the given status.
func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// respondErr maps a service error to its HTTP status and error envelope.
// Unexpected errors are logged server-side and reported with a generic
// message so internal detail never reaches the client.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		respond(w, http.StatusBadRequest, errorBody{errorDetail{Code: "validation_error", Message: unwrapMessage(err)}})
	case errors.Is(err, domain.ErrForbidden):
		respond(w, http.StatusForbidden, errorBody{errorDetail{Code: "forbidden", Message: "you are not a member of this trip"}})
	case errors.Is(err, domain.ErrNotFound):
		respond(w, http.StatusNotFound, errorBody{errorDetail{Code: "not_found", Message: "not found"}})
	default:
		slog.ErrorContext(r.Context(), "request failed", "error", err, "path", r.URL.Path)
		respond(w, http.StatusInternalServerError, errorBody{errorDetail{Code: "internal", Message: "something went wrong"}})
	}
}

// badRequest writes a 400 for requests rejected before reaching the
// service layer (missing or malformed body, bad path parameter).
func badRequest(w http.ResponseWriter, message string) {
	respond(w, http.StatusBadRequest, errorBody{errorDetail{Code: "validation_error", Message: message}})
}

// unwrapMessage extracts the human-readable part from a wrapped sentinel
// error, e.g. "service.PostService.Create: validation error: a crawl needs
// a title" becomes "a crawl needs a title".
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	const marker = domainValidationPrefix
	if i := strings.LastIndex(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return msg
}

// domainValidationPrefix is how wrapped domain.ErrValidation messages read.
const domainValidationPrefix = "validation error: "

// currentUser resolves the authenticated caller to a user record,
// upserting it so every authenticated contact refreshes the row. Writes
// the failure response itself; callers bail out when ok is false.
func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) (domain.User, bool) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, errorBody{errorDetail{Code: "unauthenticated", Message: "authentication required"}})
		return domain.User{}, false
	}

	user, err := s.identity.Resolve(r.Context(), service.ResolveInput{
		Subject:   identity.Subject,
		Email:     identity.Email,
		NameClaim: identity.Name,
	})
	if err != nil {
		respondErr(w, r, err)
		return domain.User{}, false
	}
	return user, true
}

// pathID parses the named chi URL parameter as a UUID. A malformed ID can
// never match a row, so it gets the same 404 an unknown ID would.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		respond(w, http.StatusNotFound, errorBody{errorDetail{Code: "not_found", Message: "not found"}})
		return uuid.Nil, false
	}
	return id, true
}

// decode parses the JSON request body into v. Writes a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil {
		badRequest(w, "request body is required")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		badRequest(w, "invalid request body")
		return false
	}
	return true
}
