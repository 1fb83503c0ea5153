package models

import (
	"errors"
	"fmt"
	"strings"
)

// RankingMode selects how search results are ordered
type RankingMode string

const (
	RankRelevance RankingMode = "relevance"
	RankAwards    RankingMode = "awards"
)

// DefaultLimit is the page size used when a request does not carry one
const DefaultLimit = 50

// Validation errors
var (
	ErrNegativeLimit  = errors.New("limit must not be negative")
	ErrNegativeOffset = errors.New("offset must not be negative")
	ErrUnknownRanking = errors.New("unknown ranking mode")
)

// ParseRankingMode maps the wire value of orderBy to a RankingMode.
// An empty value and "default" both select relevance ranking.
func ParseRankingMode(s string) (RankingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default", string(RankRelevance):
		return RankRelevance, nil
	case string(RankAwards):
		return RankAwards, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRanking, s)
}

// FilterRequest describes one search over the catalog
type FilterRequest struct {
	Query      string      `json:"query"`
	Challenges []string    `json:"challenges"`
	Locations  []string    `json:"locations"`
	Projects   []string    `json:"projects"`
	HasAward   bool        `json:"hasAward"`
	OrderBy    RankingMode `json:"orderBy"`
	Limit      int         `json:"limit"`
	Offset     int         `json:"offset"`
}

// Normalized returns a copy with the query trimmed and the ranking mode
// defaulted. Filter slices are copied so the result can be retained.
func (r FilterRequest) Normalized() FilterRequest {
	out := r
	out.Query = strings.TrimSpace(r.Query)
	if mode, err := ParseRankingMode(string(r.OrderBy)); err == nil {
		out.OrderBy = mode
	}
	out.Challenges = cloneStrings(r.Challenges)
	out.Locations = cloneStrings(r.Locations)
	out.Projects = cloneStrings(r.Projects)
	return out
}

// Validate checks the pagination window and ranking mode
func (r FilterRequest) Validate() error {
	if r.Limit < 0 {
		return ErrNegativeLimit
	}
	if r.Offset < 0 {
		return ErrNegativeOffset
	}
	_, err := ParseRankingMode(string(r.OrderBy))
	return err
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
