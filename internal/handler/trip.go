package handler

import (
	"net/http"
	"time"

	"github.com/tripcrew/tripcrew/internal/service"
)

// createTripRequest is the body of POST /trips. StartDate is a date-only
// string ("2006-01-02") and may be omitted for undated trips.
type createTripRequest struct {
	Name        string `json:"name"`
	Destination string `json:"destination"`
	StartDate   string `json:"startDate"`
	DayCount    int    `json:"dayCount"`
}

// joinTripRequest is the body of POST /trips/join.
type joinTripRequest struct {
	Code string `json:"code"`
}

// ListTrips returns the caller's active trips, newest first.
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	trips, err := s.trips.List(r.Context(), user.ID)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"trips": trips})
}

// CreateTrip creates a trip with the caller as owner, issuing a join code
// and seeding the day rows.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	var req createTripRequest
	if !decode(w, r, &req) {
		return
	}

	in := service.CreateTripInput{
		Name:        req.Name,
		Destination: req.Destination,
		DayCount:    req.DayCount,
	}
	if req.StartDate != "" {
		d, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			badRequest(w, "startDate must be a date in YYYY-MM-DD format")
			return
		}
		in.StartDate = &d
	}

	trip, err := s.trips.Create(r.Context(), user.ID, in)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{"trip": trip})
}

// JoinTrip adds the caller to the trip behind the submitted join code.
func (s *Server) JoinTrip(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	var req joinTripRequest
	if !decode(w, r, &req) {
		return
	}

	trip, err := s.trips.Join(r.Context(), user.ID, req.Code)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"trip": trip})
}

// GetTrip returns the full aggregated trip view for a member.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	tripID, ok := pathID(w, r, "tripID")
	if !ok {
		return
	}

	view, err := s.feed.TripView(r.Context(), user.ID, tripID)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, view)
}

// DeleteTrip archives a trip. Owner only.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	tripID, ok := pathID(w, r, "tripID")
	if !ok {
		return
	}

	if err := s.trips.Archive(r.Context(), user.ID, tripID); err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
