package service

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tripcrew/tripcrew/internal/domain"
)

// Length caps for free-text fields. Caps trim length only (over-long text
// is cut, never rejected) while every structural rule fails closed.
const (
	maxNameLen      = 200
	maxTitleLen     = 200
	maxBodyLen      = 5000
	maxCommentLen   = 2000
	maxChallengeLen = 500
)

// StopInput is one proposed crawl stop.
type StopInput struct {
	Name   string
	Coords *domain.GeoPoint
}

// PostInput is a proposed feed post of any type. Which fields are required
// depends on Type; validatePost enforces the per-type rules.
type PostInput struct {
	Type         domain.PostType
	DayNumber    *int
	Title        string
	Body         string
	EventName    string
	From         *time.Time
	To           *time.Time
	LocationName string
	Coords       *domain.GeoPoint
	Stops        []StopInput
}

// validatePost checks in against the per-type rules and returns the post
// ready for persistence. trip supplies the day range the post may
// reference; stops carries a crawl's already-validated stop list, used for
// the location back-fill. Fails closed: any violated rule rejects the input.
func validatePost(trip domain.Trip, in PostInput, stops []domain.CrawlLocation) (domain.Post, error) {
	if !in.Type.Valid() {
		return domain.Post{}, fmt.Errorf("%w: unknown post type %q", domain.ErrValidation, in.Type)
	}

	post := domain.Post{
		TripID:       trip.ID,
		Type:         in.Type,
		Title:        clip(in.Title, maxTitleLen),
		Body:         clip(in.Body, maxBodyLen),
		EventName:    clip(in.EventName, maxNameLen),
		LocationName: clip(in.LocationName, maxNameLen),
	}

	window, err := validateWindow(in.From, in.To)
	if err != nil {
		return domain.Post{}, err
	}
	post.Window = window

	if in.DayNumber != nil {
		if *in.DayNumber < 1 || *in.DayNumber > trip.DayCount {
			return domain.Post{}, fmt.Errorf("%w: day %d is not a day of this trip", domain.ErrValidation, *in.DayNumber)
		}
		post.DayNumber = in.DayNumber
	}

	if in.Coords != nil {
		if !in.Coords.InRange() {
			return domain.Post{}, fmt.Errorf("%w: coordinates out of range", domain.ErrValidation)
		}
		post.Coords = in.Coords
	}

	switch in.Type {
	case domain.PostSuggestion:
		if post.Title == "" && post.Body == "" {
			return domain.Post{}, fmt.Errorf("%w: a suggestion needs a title or a body", domain.ErrValidation)
		}

	case domain.PostEvent:
		if post.EventName == "" {
			return domain.Post{}, fmt.Errorf("%w: event name is required", domain.ErrValidation)
		}
		if post.Window == nil {
			return domain.Post{}, fmt.Errorf("%w: an event needs both fromTime and toTime", domain.ErrValidation)
		}
		if post.DayNumber == nil {
			return domain.Post{}, fmt.Errorf("%w: an event needs a day", domain.ErrValidation)
		}

	case domain.PostCrawl:
		if post.Title == "" {
			return domain.Post{}, fmt.Errorf("%w: a crawl needs a title", domain.ErrValidation)
		}
		if post.Window == nil {
			return domain.Post{}, fmt.Errorf("%w: a crawl needs both fromTime and toTime", domain.ErrValidation)
		}
		// Back-fill the top-level location from the first stop so map views
		// can place the crawl without loading its stops.
		if post.LocationName == "" {
			post.LocationName = stops[0].Name
		}
		if post.Coords == nil {
			post.Coords = stops[0].Coords
		}
	}

	return post, nil
}

// validateWindow checks a from/to pair: both bounds or neither, and the end
// strictly after the start.
func validateWindow(from, to *time.Time) (*domain.TimeWindow, error) {
	if from == nil && to == nil {
		return nil, nil
	}
	if from == nil || to == nil {
		return nil, fmt.Errorf("%w: fromTime and toTime must both be set", domain.ErrValidation)
	}
	if !to.After(*from) {
		return nil, fmt.Errorf("%w: toTime must be after fromTime", domain.ErrValidation)
	}
	return &domain.TimeWindow{From: *from, To: *to}, nil
}

// validateStops checks a crawl's stop list: one to twelve stops, each with
// a non-empty name and optional in-range coordinates.
func validateStops(in []StopInput) ([]domain.CrawlLocation, error) {
	if len(in) < domain.MinCrawlStops || len(in) > domain.MaxCrawlStops {
		return nil, fmt.Errorf("%w: a crawl needs between %d and %d stops",
			domain.ErrValidation, domain.MinCrawlStops, domain.MaxCrawlStops)
	}

	stops := make([]domain.CrawlLocation, len(in))
	for i, s := range in {
		name := clip(s.Name, maxNameLen)
		if name == "" {
			return nil, fmt.Errorf("%w: stop %d needs a name", domain.ErrValidation, i+1)
		}
		if s.Coords != nil && !s.Coords.InRange() {
			return nil, fmt.Errorf("%w: stop %d coordinates out of range", domain.ErrValidation, i+1)
		}
		stops[i] = domain.CrawlLocation{SortOrder: i, Name: name, Coords: s.Coords}
	}
	return stops, nil
}

// clip trims surrounding whitespace and cuts the result to at most max
// bytes, backing up to a rune boundary so the cut never produces invalid
// UTF-8.
func clip(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.TrimSpace(s[:cut])
}
