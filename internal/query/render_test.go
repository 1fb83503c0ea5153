package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/terra-clan/project-explorer/internal/models"
)

func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func TestPlan_EmptyRequest(t *testing.T) {
	plan := SQLite.Plan(Build(models.FilterRequest{Limit: 50}))

	assert.Equal(t,
		"SELECT COUNT(*) FROM projects p LEFT JOIN locations l ON p.location = l.id LEFT JOIN challenges c ON p.challenge = c.id",
		squash(plan.Count.SQL))
	assert.Empty(t, plan.Count.Args)

	assert.Contains(t, plan.Page.SQL, "ORDER BY (CASE WHEN (p.badges IS NULL OR TRIM(p.badges) = '') THEN 1 ELSE 0 END) ASC, p.id ASC")
	assert.True(t, strings.HasSuffix(plan.Page.SQL, "LIMIT ? OFFSET ?"))
	assert.Equal(t, []any{50, 0}, plan.Page.Args)
}

func TestPlan_SQLiteArgumentOrder(t *testing.T) {
	plan := SQLite.Plan(Build(models.FilterRequest{
		Query:      "50%_off",
		Challenges: []string{"A", "B"},
		Locations:  []string{"L"},
		HasAward:   true,
		Limit:      10,
		Offset:     20,
	}))

	where := `WHERE p.name LIKE ? ESCAPE '\' AND c.title IN (?, ?) AND l.display_name = ? AND (p.badges IS NOT NULL AND TRIM(p.badges) <> '')`
	assert.Contains(t, squash(plan.Count.SQL), where)
	assert.Contains(t, squash(plan.Page.SQL), where)

	wantWhere := []any{`%50\%\_off%`, "A", "B", "L"}
	assert.Equal(t, wantWhere, plan.Count.Args)
	assert.Equal(t, append(append([]any{}, wantWhere...), "50%_off", 10, 20), plan.Page.Args)
	assert.Contains(t, plan.Page.SQL, "(CASE WHEN instr(p.name, ?) = 1 THEN 0 ELSE 1 END) ASC")
}

func TestPlan_PostgresNumbering(t *testing.T) {
	plan := Postgres.Plan(Build(models.FilterRequest{
		Query:    "Mars",
		Projects: []string{"x", "y"},
		Limit:    5,
	}))

	assert.Contains(t, plan.Count.SQL, `p.name ILIKE $1 ESCAPE '\' AND p.name IN ($2, $3)`)
	assert.Contains(t, plan.Page.SQL, `p.name ILIKE $1 ESCAPE '\' AND p.name IN ($2, $3)`)
	assert.Contains(t, plan.Page.SQL, "strpos(p.name, $4) = 1")
	assert.True(t, strings.HasSuffix(plan.Page.SQL, "LIMIT $5 OFFSET $6"))
	assert.Equal(t, []any{"%Mars%", "x", "y", "Mars", 5, 0}, plan.Page.Args)
}

func TestPlan_AwardsMode(t *testing.T) {
	plan := SQLite.Plan(Build(models.FilterRequest{Query: "Mars", OrderBy: models.RankAwards, Limit: 5}))

	assert.Contains(t, plan.Page.SQL,
		"ORDER BY (CASE WHEN (p.badges IS NULL OR TRIM(p.badges) = '') THEN 0 ELSE LENGTH(p.badges) - LENGTH(REPLACE(p.badges, ',', '')) + 1 END) DESC, p.id ASC")
	assert.NotContains(t, plan.Page.SQL, "instr", "awards mode ignores the prefix key")
	assert.Equal(t, []any{"%Mars%", 5, 0}, plan.Page.Args)
}

func TestRank(t *testing.T) {
	assert.Equal(t, Ordering{{Kind: KeyAwardAbsent}, {Kind: KeyID}}, Rank(models.RankRelevance, ""))
	assert.Equal(t, Ordering{{Kind: KeyAwardAbsent}, {Kind: KeyPrefixMiss, Arg: "Mars"}, {Kind: KeyID}}, Rank(models.RankRelevance, " Mars "))
	assert.Equal(t, Ordering{{Kind: KeyAwardCount, Desc: true}, {Kind: KeyID}}, Rank(models.RankAwards, "Mars"))

	for _, mode := range []models.RankingMode{models.RankRelevance, models.RankAwards} {
		o := Rank(mode, "q")
		assert.Equal(t, KeyID, o[len(o)-1].Kind, "id is always the last key")
	}
}
