package handler

import "net/http"

// CreateVote records the caller's vote on a post. Idempotent: voting twice
// leaves a single vote and both calls return the current summary.
func (s *Server) CreateVote(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "postID")
	if !ok {
		return
	}

	summary, err := s.posts.Vote(r.Context(), user.ID, postID)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"votes": summary})
}

// DeleteVote removes the caller's vote. Idempotent: removing an absent vote
// succeeds and returns the current summary.
func (s *Server) DeleteVote(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "postID")
	if !ok {
		return
	}

	summary, err := s.posts.Unvote(r.Context(), user.ID, postID)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"votes": summary})
}
