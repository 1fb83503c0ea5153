package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect holds the store-specific pieces of SQL rendering
type Dialect struct {
	Name string
	// Placeholder returns the bind marker for the n-th argument (1-based)
	Placeholder func(n int) string
	// Like is the substring match operator
	Like string
	// Position names the function returning the 1-based index of a substring
	Position string
}

// SQLite renders ? markers and case-insensitive (ASCII) LIKE.
var SQLite = Dialect{
	Name:        "sqlite",
	Placeholder: func(int) string { return "?" },
	Like:        "LIKE",
	Position:    "instr",
}

// Postgres renders $n markers and ILIKE so substring matches fold case as
// they do on SQLite.
var Postgres = Dialect{
	Name:        "postgres",
	Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	Like:        "ILIKE",
	Position:    "strpos",
}

// Column expressions of the logical join. Values never come from input.
var columns = map[Field]string{
	FieldProjectName:    "p.name",
	FieldChallengeTitle: "c.title",
	FieldLocationName:   "l.display_name",
	FieldBadges:         "p.badges",
}

const (
	selectColumns = `p.id, p.name, l.display_name, c.title, p.badges, p.link`
	fromJoin      = `FROM projects p
	LEFT JOIN locations l ON p.location = l.id
	LEFT JOIN challenges c ON p.challenge = c.id`

	blankBadges = `(p.badges IS NULL OR TRIM(p.badges) = '')`
)

// Statement is rendered SQL with its arguments in placeholder order
type Statement struct {
	SQL  string
	Args []any
}

// Plan holds the two statements of a search. Both render the same Where
// predicate so the count always describes the page's candidate set.
type Plan struct {
	Count Statement
	Page  Statement
}

// Plan renders q for dialect d
func (d Dialect) Plan(q Query) Plan {
	count := newBuilder(d)
	count.sql.WriteString("SELECT COUNT(*) ")
	count.sql.WriteString(fromJoin)
	count.where(q.Where)

	page := newBuilder(d)
	page.sql.WriteString("SELECT ")
	page.sql.WriteString(selectColumns)
	page.sql.WriteString(" ")
	page.sql.WriteString(fromJoin)
	page.where(q.Where)
	page.orderBy(q.Order)
	fmt.Fprintf(&page.sql, " LIMIT %s OFFSET %s", page.bind(q.Limit), page.bind(q.Offset))

	return Plan{Count: count.statement(), Page: page.statement()}
}

type builder struct {
	d    Dialect
	sql  strings.Builder
	args []any
}

func newBuilder(d Dialect) *builder {
	return &builder{d: d}
}

func (b *builder) bind(v any) string {
	b.args = append(b.args, v)
	return b.d.Placeholder(len(b.args))
}

func (b *builder) statement() Statement {
	return Statement{SQL: b.sql.String(), Args: b.args}
}

func (b *builder) where(p Predicate) {
	if p.Empty() {
		return
	}
	b.sql.WriteString(" WHERE ")
	for i, c := range p.Clauses {
		if i > 0 {
			b.sql.WriteString(" AND ")
		}
		b.clause(c)
	}
}

func (b *builder) clause(c Clause) {
	col := columns[c.Field]
	switch c.Kind {
	case Equals:
		fmt.Fprintf(&b.sql, "%s = %s", col, b.bind(c.Values[0]))
	case In:
		marks := make([]string, len(c.Values))
		for i, v := range c.Values {
			marks[i] = b.bind(v)
		}
		fmt.Fprintf(&b.sql, "%s IN (%s)", col, strings.Join(marks, ", "))
	case Contains:
		fmt.Fprintf(&b.sql, `%s %s %s ESCAPE '\'`, col, b.d.Like, b.bind("%"+escapeLike(c.Values[0])+"%"))
	case NotBlank:
		fmt.Fprintf(&b.sql, "(%s IS NOT NULL AND TRIM(%s) <> '')", col, col)
	}
}

func (b *builder) orderBy(o Ordering) {
	if len(o) == 0 {
		return
	}
	b.sql.WriteString(" ORDER BY ")
	for i, k := range o {
		if i > 0 {
			b.sql.WriteString(", ")
		}
		b.sql.WriteString(b.key(k))
		if k.Desc {
			b.sql.WriteString(" DESC")
		} else {
			b.sql.WriteString(" ASC")
		}
	}
}

func (b *builder) key(k SortKey) string {
	switch k.Kind {
	case KeyAwardAbsent:
		return "(CASE WHEN " + blankBadges + " THEN 1 ELSE 0 END)"
	case KeyPrefixMiss:
		return fmt.Sprintf("(CASE WHEN %s(p.name, %s) = 1 THEN 0 ELSE 1 END)", b.d.Position, b.bind(k.Arg))
	case KeyAwardCount:
		return "(CASE WHEN " + blankBadges + " THEN 0 ELSE LENGTH(p.badges) - LENGTH(REPLACE(p.badges, ',', '')) + 1 END)"
	default:
		return "p.id"
	}
}

// escapeLike escapes LIKE wildcards so the query text matches literally
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
