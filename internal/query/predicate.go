// Package query turns a catalog search request into a store-independent
// predicate tree and ordering, and renders both into SQL for a dialect.
//
// Composition (Compile, Rank, Build) never touches a store. Rendering (Plan)
// and in-memory evaluation (Match, Compare) are the two consumers of the tree
// and must agree on semantics.
package query

import (
	"strings"

	"github.com/terra-clan/project-explorer/internal/models"
)

// Field is a column of the logical project/location/challenge join
type Field int

const (
	FieldProjectName Field = iota
	FieldChallengeTitle
	FieldLocationName
	FieldBadges
)

func (f Field) String() string {
	switch f {
	case FieldProjectName:
		return "project_name"
	case FieldChallengeTitle:
		return "challenge_title"
	case FieldLocationName:
		return "location_name"
	case FieldBadges:
		return "badges"
	}
	return "unknown"
}

// ClauseKind identifies how a clause constrains its field
type ClauseKind int

const (
	// Equals matches a field equal to Values[0]
	Equals ClauseKind = iota
	// In matches a field equal to any of Values
	In
	// Contains matches a field containing Values[0] as a substring
	Contains
	// NotBlank matches a non-null field that is non-empty after trimming
	NotBlank
)

// Clause is one conjunct of a Predicate
type Clause struct {
	Kind   ClauseKind
	Field  Field
	Values []string
}

// Predicate is the logical AND of its clauses. The zero value matches everything.
type Predicate struct {
	Clauses []Clause
}

// Empty reports whether the predicate places no restriction
func (p Predicate) Empty() bool {
	return len(p.Clauses) == 0
}

// And returns a predicate with c appended
func (p Predicate) And(c Clause) Predicate {
	clauses := make([]Clause, 0, len(p.Clauses)+1)
	clauses = append(clauses, p.Clauses...)
	clauses = append(clauses, c)
	return Predicate{Clauses: clauses}
}

// Compile builds the predicate for a request. Fields left empty add no
// clause, so an empty request matches the whole catalog.
//
// Award-only is compiled as "badges non-blank", the same test the ranking
// policy uses for has-award.
func Compile(req models.FilterRequest) Predicate {
	var p Predicate

	if q := strings.TrimSpace(req.Query); q != "" {
		p.Clauses = append(p.Clauses, Clause{Kind: Contains, Field: FieldProjectName, Values: []string{q}})
	}
	if c, ok := membership(FieldProjectName, req.Projects); ok {
		p.Clauses = append(p.Clauses, c)
	}
	if c, ok := membership(FieldChallengeTitle, req.Challenges); ok {
		p.Clauses = append(p.Clauses, c)
	}
	if c, ok := membership(FieldLocationName, req.Locations); ok {
		p.Clauses = append(p.Clauses, c)
	}
	if req.HasAward {
		p.Clauses = append(p.Clauses, Clause{Kind: NotBlank, Field: FieldBadges})
	}

	return p
}

// membership turns a multi-select into a clause. An empty selection means
// no restriction; a single value degrades to equality.
func membership(field Field, values []string) (Clause, bool) {
	switch len(values) {
	case 0:
		return Clause{}, false
	case 1:
		return Clause{Kind: Equals, Field: field, Values: []string{values[0]}}, true
	}
	vals := make([]string, len(values))
	copy(vals, values)
	return Clause{Kind: In, Field: field, Values: vals}, true
}
