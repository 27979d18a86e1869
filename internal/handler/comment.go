package handler

import "net/http"

type commentRequest struct {
	Body string `json:"body"`
}

// CreateComment adds a comment to a post. Members only.
func (s *Server) CreateComment(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "postID")
	if !ok {
		return
	}

	var req commentRequest
	if !decode(w, r, &req) {
		return
	}

	comment, err := s.posts.AddComment(r.Context(), user.ID, postID, req.Body)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{"comment": comment})
}

// DeleteComment soft-deletes a comment. Comment author or trip owner.
func (s *Server) DeleteComment(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	commentID, ok := pathID(w, r, "commentID")
	if !ok {
		return
	}

	if err := s.posts.DeleteComment(r.Context(), user.ID, commentID); err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
