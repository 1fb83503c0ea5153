package query

import (
	"slices"
	"strings"

	"github.com/terra-clan/project-explorer/internal/models"
)

// Match evaluates p against a joined row with the same semantics as the
// SQLite rendering: substring matches fold ASCII case, clauses on an absent
// location or challenge never match.
func Match(p Predicate, row models.ProjectRow) bool {
	for _, c := range p.Clauses {
		if !matchClause(c, row) {
			return false
		}
	}
	return true
}

func matchClause(c Clause, row models.ProjectRow) bool {
	v := fieldValue(c.Field, row)
	switch c.Kind {
	case Equals:
		return v != nil && *v == c.Values[0]
	case In:
		return v != nil && slices.Contains(c.Values, *v)
	case Contains:
		return v != nil && strings.Contains(foldASCII(*v), foldASCII(c.Values[0]))
	case NotBlank:
		return HasAward(v)
	}
	return false
}

func fieldValue(f Field, row models.ProjectRow) *string {
	switch f {
	case FieldProjectName:
		return &row.Name
	case FieldChallengeTitle:
		return row.Challenge
	case FieldLocationName:
		return row.Location
	case FieldBadges:
		return row.Badges
	}
	return nil
}

// Compare orders two rows under o, returning -1, 0 or +1
func Compare(o Ordering, a, b models.ProjectRow) int {
	for _, k := range o {
		ka, kb := keyValue(k, a), keyValue(k, b)
		if ka == kb {
			continue
		}
		c := -1
		if ka > kb {
			c = 1
		}
		if k.Desc {
			c = -c
		}
		return c
	}
	return 0
}

func keyValue(k SortKey, row models.ProjectRow) int64 {
	switch k.Kind {
	case KeyAwardAbsent:
		if HasAward(row.Badges) {
			return 0
		}
		return 1
	case KeyPrefixMiss:
		if strings.HasPrefix(row.Name, k.Arg) {
			return 0
		}
		return 1
	case KeyAwardCount:
		return int64(AwardCount(row.Badges))
	default:
		return row.ID
	}
}

// Apply filters, orders and windows rows in memory. The input is not modified.
func Apply(q Query, rows []models.ProjectRow) (page []models.ProjectRow, total int) {
	matched := make([]models.ProjectRow, 0, len(rows))
	for _, r := range rows {
		if Match(q.Where, r) {
			matched = append(matched, r)
		}
	}
	slices.SortFunc(matched, func(a, b models.ProjectRow) int {
		return Compare(q.Order, a, b)
	})

	total = len(matched)
	if q.Offset >= total {
		return []models.ProjectRow{}, total
	}
	end := total
	if q.Limit < end-q.Offset {
		end = q.Offset + q.Limit
	}
	return matched[q.Offset:end], total
}

func foldASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
