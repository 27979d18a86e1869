package handler

import (
	"net/http"

	"github.com/google/uuid"
)

// reorderRequest is the body of PUT /posts/{postID}/crawl-locations/order:
// the complete list of stop IDs in their new order.
type reorderRequest struct {
	Order []string `json:"order"`
}

// ReorderCrawl rewrites the stop order of a crawl post. The submitted list
// must be a permutation of the post's current stops.
func (s *Server) ReorderCrawl(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "postID")
	if !ok {
		return
	}

	var req reorderRequest
	if !decode(w, r, &req) {
		return
	}

	order := make([]uuid.UUID, 0, len(req.Order))
	for _, raw := range req.Order {
		id, err := uuid.Parse(raw)
		if err != nil {
			badRequest(w, "order must contain crawl location UUIDs")
			return
		}
		order = append(order, id)
	}

	stops, err := s.posts.ReorderCrawl(r.Context(), user.ID, postID, order)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"crawlLocations": stops})
}

// ToggleLocation flips a crawl stop's completed flag. Members only.
func (s *Server) ToggleLocation(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	locationID, ok := pathID(w, r, "locationID")
	if !ok {
		return
	}

	location, err := s.posts.ToggleLocation(r.Context(), user.ID, locationID)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"crawlLocation": location})
}
