package handler

import (
	"net/http"
	"time"

	"github.com/tripcrew/tripcrew/internal/domain"
	"github.com/tripcrew/tripcrew/internal/service"
)

// postRequest is the body of POST /trips/{tripID}/posts and
// PATCH /posts/{postID}. Which fields matter depends on type; the service
// validator enforces the per-type rules. Times are RFC 3339.
type postRequest struct {
	Type         string           `json:"type"`
	DayNumber    *int             `json:"dayNumber"`
	Title        string           `json:"title"`
	Body         string           `json:"body"`
	EventName    string           `json:"eventName"`
	FromTime     *time.Time       `json:"fromTime"`
	ToTime       *time.Time       `json:"toTime"`
	LocationName string           `json:"locationName"`
	Coords       *domain.GeoPoint `json:"coords"`
	Stops        []stopRequest    `json:"stops"`
}

type stopRequest struct {
	Name   string           `json:"name"`
	Coords *domain.GeoPoint `json:"coords"`
}

// input maps the wire shape onto the service input.
func (req postRequest) input() service.PostInput {
	in := service.PostInput{
		Type:         domain.PostType(req.Type),
		DayNumber:    req.DayNumber,
		Title:        req.Title,
		Body:         req.Body,
		EventName:    req.EventName,
		From:         req.FromTime,
		To:           req.ToTime,
		LocationName: req.LocationName,
		Coords:       req.Coords,
	}
	for _, s := range req.Stops {
		in.Stops = append(in.Stops, service.StopInput{Name: s.Name, Coords: s.Coords})
	}
	return in
}

// CreatePost adds a post to a trip's feed. Members only.
func (s *Server) CreatePost(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	tripID, ok := pathID(w, r, "tripID")
	if !ok {
		return
	}

	var req postRequest
	if !decode(w, r, &req) {
		return
	}

	post, err := s.posts.Create(r.Context(), user.ID, tripID, req.input())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{"post": post})
}

// UpdatePost edits a post's content. Author only; the post type is immutable.
func (s *Server) UpdatePost(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "postID")
	if !ok {
		return
	}

	var req postRequest
	if !decode(w, r, &req) {
		return
	}

	post, err := s.posts.Update(r.Context(), user.ID, postID, req.input())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"post": post})
}

// DeletePost soft-deletes a post. Author or trip owner.
func (s *Server) DeletePost(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "postID")
	if !ok {
		return
	}

	if err := s.posts.Delete(r.Context(), user.ID, postID); err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
