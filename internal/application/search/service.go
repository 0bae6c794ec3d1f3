package search

import (
	"context"
	"errors"
	"strings"

	"petadopt-backend/internal/application/listings"
	"petadopt-backend/internal/domain"

	"github.com/rs/zerolog/log"
)

var ErrEmptyQuery = errors.New("Search query is empty")

// Request is one search submission; Species and Breed are the active filter chips.
type Request struct {
	Query   string `json:"query"`
	Species string `json:"species"`
	Breed   string `json:"breed"`
}

// Result carries the matches and the updated history.
type Result struct {
	Results []domain.Listing `json:"results"`
	Recent  []string         `json:"recent"`
}

type Service struct {
	Listings *listings.Service
	Tracker  Tracker
}

// Submit searches names for the trimmed query and records it. A blank query does nothing.
// A failed backend query still records the search and yields no results.
func (s *Service) Submit(ctx context.Context, userID string, req Request) (*Result, error) {
	q := strings.TrimSpace(req.Query)
	if q == "" {
		return nil, ErrEmptyQuery
	}

	results, err := s.Listings.Browse(ctx, listings.Query{
		Name:    q,
		Species: req.Species,
		Breed:   req.Breed,
		Sort:    listings.SortNewest,
		Limit:   listings.SearchLimit,
	})
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("query", q).Msg("search: query failed")
		results = []domain.Listing{}
	}

	recent, err := s.Tracker.Record(ctx, userID, q)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("search: could not record recent search")
		recent = []string{}
	}
	return &Result{Results: results, Recent: recent}, nil
}

// Recent returns the user's history; a store error degrades to an empty list.
func (s *Service) Recent(ctx context.Context, userID string) []string {
	recent, err := s.Tracker.Recent(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("search: could not read recent searches")
		return []string{}
	}
	return recent
}
