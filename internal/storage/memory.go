package storage

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/terra-clan/project-explorer/internal/models"
	"github.com/terra-clan/project-explorer/internal/query"
)

// MemoryRepository implements Repository over an immutable in-memory catalog.
// Rows are joined once at construction; every read evaluates the predicate
// tree directly, so it needs no locking.
type MemoryRepository struct {
	rows       []models.ProjectRow
	locations  []models.Location
	challenges []models.Challenge
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository joins projects to their locations and challenges.
// Dangling references behave like a LEFT JOIN miss.
func NewMemoryRepository(locations []models.Location, challenges []models.Challenge, projects []models.Project) *MemoryRepository {
	locByID := make(map[string]models.Location, len(locations))
	for _, l := range locations {
		locByID[l.ID] = l
	}
	chalByID := make(map[string]models.Challenge, len(challenges))
	for _, c := range challenges {
		chalByID[c.ID] = c
	}

	rows := make([]models.ProjectRow, 0, len(projects))
	for _, p := range projects {
		row := models.ProjectRow{
			ID:     p.ID,
			Name:   p.Name,
			Badges: copyString(p.Badges),
			Link:   p.Link,
		}
		if p.LocationID != nil {
			if l, ok := locByID[*p.LocationID]; ok {
				row.Location = &l.DisplayName
			}
		}
		if p.ChallengeID != nil {
			if c, ok := chalByID[*p.ChallengeID]; ok {
				row.Challenge = &c.Title
			}
		}
		rows = append(rows, row)
	}

	return &MemoryRepository{
		rows:       rows,
		locations:  slices.Clone(locations),
		challenges: slices.Clone(challenges),
	}
}

// Ping always succeeds
func (r *MemoryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op
func (r *MemoryRepository) Close() error {
	return nil
}

// Count returns the number of projects matching q.Where
func (r *MemoryRepository) Count(ctx context.Context, q query.Query) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n := 0
	for _, row := range r.rows {
		if query.Match(q.Where, row) {
			n++
		}
	}
	return n, nil
}

// Page returns the window of matching projects in ranking order
func (r *MemoryRepository) Page(ctx context.Context, q query.Query) ([]models.ProjectRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page, _ := query.Apply(q, r.rows)
	return page, nil
}

// Challenges returns the distinct challenge titles. Empty titles are kept,
// as the SQL stores only drop NULL.
func (r *MemoryRepository) Challenges(ctx context.Context) ([]string, error) {
	titles := make([]string, 0, len(r.challenges))
	for _, c := range r.challenges {
		titles = append(titles, c.Title)
	}
	return distinctSorted(titles), nil
}

// Locations returns the distinct location display names
func (r *MemoryRepository) Locations(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(r.locations))
	for _, l := range r.locations {
		names = append(names, l.DisplayName)
	}
	return distinctSorted(names), nil
}

// ChallengeDescriptions returns descriptions that may carry a theme
func (r *MemoryRepository) ChallengeDescriptions(ctx context.Context) ([]string, error) {
	out := make([]string, 0)
	for _, c := range r.challenges {
		if open := strings.Index(c.Description, "("); open >= 0 && strings.Contains(c.Description[open:], ")") {
			out = append(out, c.Description)
		}
	}
	return out, nil
}

// Columns lists the column names of a catalog table
func (r *MemoryRepository) Columns(ctx context.Context, table Table) ([]string, error) {
	switch table {
	case TableProjects:
		return []string{"id", "name", "location", "challenge", "badges", "link"}, nil
	case TableLocations:
		return []string{"id", "display_name", "country"}, nil
	case TableChallenges:
		return []string{"id", "title", "description"}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
}

func distinctSorted(in []string) []string {
	sort.Strings(in)
	return slices.Compact(in)
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
