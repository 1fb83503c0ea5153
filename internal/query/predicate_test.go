package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/project-explorer/internal/models"
)

func TestCompile_EmptyRequestMatchesEverything(t *testing.T) {
	p := Compile(models.FilterRequest{})
	assert.True(t, p.Empty())

	p = Compile(models.FilterRequest{
		Query:      "   ",
		Challenges: []string{},
		Locations:  nil,
		Projects:   []string{},
	})
	assert.True(t, p.Empty(), "blank query and empty selections add no clause")
}

func TestCompile_Clauses(t *testing.T) {
	p := Compile(models.FilterRequest{
		Query:      "  Mars ",
		Projects:   []string{"Rover"},
		Challenges: []string{"Sky", "Sea"},
		Locations:  []string{"Lima, Peru"},
		HasAward:   true,
	})

	require.Len(t, p.Clauses, 5)
	assert.Equal(t, Clause{Kind: Contains, Field: FieldProjectName, Values: []string{"Mars"}}, p.Clauses[0])
	assert.Equal(t, Clause{Kind: Equals, Field: FieldProjectName, Values: []string{"Rover"}}, p.Clauses[1])
	assert.Equal(t, Clause{Kind: In, Field: FieldChallengeTitle, Values: []string{"Sky", "Sea"}}, p.Clauses[2])
	assert.Equal(t, Clause{Kind: Equals, Field: FieldLocationName, Values: []string{"Lima, Peru"}}, p.Clauses[3])
	assert.Equal(t, Clause{Kind: NotBlank, Field: FieldBadges}, p.Clauses[4])
}

func TestCompile_DoesNotAliasInput(t *testing.T) {
	sel := []string{"A", "B"}
	p := Compile(models.FilterRequest{Challenges: sel})
	sel[0] = "Z"
	assert.Equal(t, []string{"A", "B"}, p.Clauses[0].Values)
}

func TestPredicate_And(t *testing.T) {
	base := Compile(models.FilterRequest{Query: "x"})
	more := base.And(Clause{Kind: NotBlank, Field: FieldBadges})
	assert.Len(t, base.Clauses, 1)
	assert.Len(t, more.Clauses, 2)
}

func TestBadges(t *testing.T) {
	str := func(s string) *string { return &s }

	cases := []struct {
		badges *string
		award  bool
		count  int
	}{
		{nil, false, 0},
		{str(""), false, 0},
		{str("   "), false, 0},
		{str("X"), true, 1},
		{str("Winner,Finalist"), true, 2},
		{str("Global Nominee, Winner"), true, 2},
		{str("a,,b"), true, 3},
		{str("Winner, Winner"), true, 2},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.award, HasAward(tc.badges))
		assert.Equal(t, tc.count, AwardCount(tc.badges))
	}
}

func TestTheme(t *testing.T) {
	theme, ok := Theme("Design a habitat for the red planet (Mars Exploration)")
	require.True(t, ok)
	assert.Equal(t, "Mars Exploration", theme)

	theme, ok = Theme("Use (NASA) data to map floods (Earth Science)  ")
	require.True(t, ok)
	assert.Equal(t, "Earth Science", theme)

	_, ok = Theme("No theme here")
	assert.False(t, ok)

	_, ok = Theme("Parenthesis (in the middle) of text")
	assert.False(t, ok)
}
