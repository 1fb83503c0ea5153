// Package facets lists the values a client can pick for each filter.
package facets

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/terra-clan/project-explorer/internal/query"
	"github.com/terra-clan/project-explorer/internal/storage"
)

// ErrUnknownFacet is returned for a facet or table name outside the catalog
var ErrUnknownFacet = errors.New("unknown facet")

// Facet names accepted by Values
const (
	Challenges = "challenges"
	Locations  = "locations"
	Themes     = "projects"
)

// Source is the part of storage.Repository facets read from
type Source interface {
	Challenges(ctx context.Context) ([]string, error)
	Locations(ctx context.Context) ([]string, error)
	ChallengeDescriptions(ctx context.Context) ([]string, error)
	Columns(ctx context.Context, table storage.Table) ([]string, error)
}

// Service resolves facet listings
type Service struct {
	source Source
}

// NewService creates a facet service over source
func NewService(source Source) *Service {
	return &Service{source: source}
}

// Values returns the selectable values of the named facet.
// "projects" lists the themes extracted from challenge descriptions.
func (s *Service) Values(ctx context.Context, name string) ([]string, error) {
	var (
		values []string
		err    error
	)
	switch name {
	case Challenges:
		values, err = s.source.Challenges(ctx)
	case Locations:
		values, err = s.source.Locations(ctx)
	case Themes:
		values, err = s.themes(ctx)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFacet, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", name, err)
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}

// Columns lists the columns of a catalog table. The name is resolved through
// storage.LookupTable and never reaches the store as text.
func (s *Service) Columns(ctx context.Context, table string) ([]string, error) {
	t, ok := storage.LookupTable(table)
	if !ok {
		return nil, fmt.Errorf("%w: table %q", ErrUnknownFacet, table)
	}
	cols, err := s.source.Columns(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns of %s: %w", t, err)
	}
	return cols, nil
}

func (s *Service) themes(ctx context.Context) ([]string, error) {
	descriptions, err := s.source.ChallengeDescriptions(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(descriptions))
	themes := make([]string, 0, len(descriptions))
	for _, d := range descriptions {
		theme, ok := query.Theme(d)
		if !ok || seen[theme] {
			continue
		}
		seen[theme] = true
		themes = append(themes, theme)
	}
	sort.Strings(themes)
	return themes, nil
}
