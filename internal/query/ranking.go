package query

import (
	"strings"

	"github.com/terra-clan/project-explorer/internal/models"
)

// KeyKind is a sort key derived from a project row
type KeyKind int

const (
	// KeyAwardAbsent is 0 for rows with an award and 1 otherwise
	KeyAwardAbsent KeyKind = iota
	// KeyPrefixMiss is 0 for rows whose name starts with Arg and 1 otherwise
	KeyPrefixMiss
	// KeyAwardCount is the comma-segment count of the badge field
	KeyAwardCount
	// KeyID is the project id
	KeyID
)

// SortKey is one level of an Ordering
type SortKey struct {
	Kind KeyKind
	Arg  string
	Desc bool
}

// Ordering is a lexicographic list of sort keys. Orderings produced by Rank
// always end with KeyID so no two rows compare equal.
type Ordering []SortKey

// Rank returns the ordering for a ranking mode and the active text query.
func Rank(mode models.RankingMode, query string) Ordering {
	if mode == models.RankAwards {
		return Ordering{
			{Kind: KeyAwardCount, Desc: true},
			{Kind: KeyID},
		}
	}

	order := Ordering{{Kind: KeyAwardAbsent}}
	if q := strings.TrimSpace(query); q != "" {
		order = append(order, SortKey{Kind: KeyPrefixMiss, Arg: q})
	}
	return append(order, SortKey{Kind: KeyID})
}

// Query is a compiled search: which rows, in what order, and which window.
type Query struct {
	Where  Predicate
	Order  Ordering
	Limit  int
	Offset int
}

// Build compiles a request into a Query. The request is expected to be
// validated; negative windows are clamped to zero.
func Build(req models.FilterRequest) Query {
	req = req.Normalized()
	q := Query{
		Where:  Compile(req),
		Order:  Rank(req.OrderBy, req.Query),
		Limit:  req.Limit,
		Offset: req.Offset,
	}
	if q.Limit < 0 {
		q.Limit = 0
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}
