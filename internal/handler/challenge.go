package handler

import (
	"net/http"

	"github.com/google/uuid"
)

type challengeRequest struct {
	Text         string `json:"text"`
	TaggedUserID string `json:"taggedUserId"`
}

// taggedID parses the optional tagged-user field. Reports false after
// writing a 400 when the value is present but not a UUID.
func (req challengeRequest) taggedID(w http.ResponseWriter) (*uuid.UUID, bool) {
	if req.TaggedUserID == "" {
		return nil, true
	}
	id, err := uuid.Parse(req.TaggedUserID)
	if err != nil {
		badRequest(w, "taggedUserId must be a UUID")
		return nil, false
	}
	return &id, true
}

// CreateChallenge adds a challenge to a post. Members only.
func (s *Server) CreateChallenge(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "postID")
	if !ok {
		return
	}

	var req challengeRequest
	if !decode(w, r, &req) {
		return
	}
	tagged, ok := req.taggedID(w)
	if !ok {
		return
	}

	challenge, err := s.posts.AddChallenge(r.Context(), user.ID, postID, req.Text, tagged)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{"challenge": challenge})
}

// CreateLocationChallenge adds a challenge to a crawl stop. Members only.
func (s *Server) CreateLocationChallenge(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	locationID, ok := pathID(w, r, "locationID")
	if !ok {
		return
	}

	var req challengeRequest
	if !decode(w, r, &req) {
		return
	}
	tagged, ok := req.taggedID(w)
	if !ok {
		return
	}

	challenge, err := s.posts.AddLocationChallenge(r.Context(), user.ID, locationID, req.Text, tagged)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{"challenge": challenge})
}

// ToggleChallenge flips a challenge's completion state. Any member may
// toggle; completing records the caller, un-completing clears it.
func (s *Server) ToggleChallenge(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	challengeID, ok := pathID(w, r, "challengeID")
	if !ok {
		return
	}

	if err := s.posts.ToggleChallenge(r.Context(), user.ID, challengeID); err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteChallenge removes a challenge. Author only.
func (s *Server) DeleteChallenge(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	challengeID, ok := pathID(w, r, "challengeID")
	if !ok {
		return
	}

	if err := s.posts.DeleteChallenge(r.Context(), user.ID, challengeID); err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
