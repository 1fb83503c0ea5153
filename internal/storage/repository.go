package storage

import (
	"context"
	"errors"

	"github.com/terra-clan/project-explorer/internal/models"
	"github.com/terra-clan/project-explorer/internal/query"
)

// ErrUnknownTable is returned by Columns for a table outside the catalog schema
var ErrUnknownTable = errors.New("unknown table")

// Table is one of the catalog's fixed tables
type Table string

const (
	TableProjects   Table = "projects"
	TableLocations  Table = "locations"
	TableChallenges Table = "challenges"
)

// LookupTable resolves a caller-supplied name against the catalog tables.
// Only the returned constant is ever used to build a statement.
func LookupTable(name string) (Table, bool) {
	switch Table(name) {
	case TableProjects:
		return TableProjects, true
	case TableLocations:
		return TableLocations, true
	case TableChallenges:
		return TableChallenges, true
	}
	return "", false
}

// Repository is the read-only catalog store
type Repository interface {
	// Search
	Count(ctx context.Context, q query.Query) (int, error)
	Page(ctx context.Context, q query.Query) ([]models.ProjectRow, error)

	// Facets
	Challenges(ctx context.Context) ([]string, error)
	Locations(ctx context.Context) ([]string, error)
	ChallengeDescriptions(ctx context.Context) ([]string, error)
	Columns(ctx context.Context, table Table) ([]string, error)

	// Health
	Ping(ctx context.Context) error
	Close() error
}
