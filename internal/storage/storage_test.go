package storage

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/project-explorer/internal/models"
	"github.com/terra-clan/project-explorer/internal/query"
)

func ptr(s string) *string { return &s }

type dataset struct {
	locations  []models.Location
	challenges []models.Challenge
	projects   []models.Project
}

// newSQLite writes ds to a fresh database file and reopens it read-only
func newSQLite(t *testing.T, ds dataset) *SQLiteRepository {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.db")

	db, err := OpenSQLite(SQLiteConfig{Path: path})
	require.NoError(t, err)
	require.NoError(t, EnsureSQLiteSchema(ctx, db))

	for _, l := range ds.locations {
		_, err := db.ExecContext(ctx, `INSERT INTO locations (id, display_name, country) VALUES (?, ?, ?)`, l.ID, l.DisplayName, l.Country)
		require.NoError(t, err)
	}
	for _, c := range ds.challenges {
		_, err := db.ExecContext(ctx, `INSERT INTO challenges (id, title, description) VALUES (?, ?, ?)`, c.ID, c.Title, c.Description)
		require.NoError(t, err)
	}
	for _, p := range ds.projects {
		_, err := db.ExecContext(ctx, `INSERT INTO projects (id, name, location, challenge, badges, link) VALUES (?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.LocationID, p.ChallengeID, p.Badges, p.Link)
		require.NoError(t, err)
	}
	require.NoError(t, db.Close())

	repo, err := NewSQLiteRepository(ctx, SQLiteConfig{Path: path, ReadOnly: true})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newMemory(ds dataset) *MemoryRepository {
	return NewMemoryRepository(ds.locations, ds.challenges, ds.projects)
}

func repos(t *testing.T, ds dataset) map[string]Repository {
	return map[string]Repository{
		"sqlite": newSQLite(t, ds),
		"memory": newMemory(ds),
	}
}

func rowNames(rows []models.ProjectRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}
	return out
}

func TestRepository_TextQueryScenario(t *testing.T) {
	ds := dataset{projects: []models.Project{
		{ID: 1, Name: "Marshy Wetlands", Link: "/a"},
		{ID: 2, Name: "Mars Rover Navigator", Badges: ptr("Winner"), Link: "/b"},
		{ID: 3, Name: "Venus Probe", Link: "/c"},
	}}

	for name, repo := range repos(t, ds) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			q := query.Build(models.FilterRequest{Query: "Mars", Limit: 10})

			total, err := repo.Count(ctx, q)
			require.NoError(t, err)
			assert.Equal(t, 2, total)

			page, err := repo.Page(ctx, q)
			require.NoError(t, err)
			assert.Equal(t, []string{"Mars Rover Navigator", "Marshy Wetlands"}, rowNames(page))
		})
	}
}

func TestRepository_AwardOnlyByCount(t *testing.T) {
	ds := dataset{projects: []models.Project{
		{ID: 1, Name: "zero", Link: "/0"},
		{ID: 2, Name: "one", Badges: ptr("Global Nominee"), Link: "/1"},
		{ID: 3, Name: "two", Badges: ptr("Global Nominee, Winner"), Link: "/2"},
	}}

	for name, repo := range repos(t, ds) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			q := query.Build(models.FilterRequest{HasAward: true, OrderBy: models.RankAwards, Limit: 5})

			total, err := repo.Count(ctx, q)
			require.NoError(t, err)
			assert.Equal(t, 2, total)

			page, err := repo.Page(ctx, q)
			require.NoError(t, err)
			assert.Equal(t, []string{"two", "one"}, rowNames(page))
		})
	}
}

func TestRepository_JoinedFields(t *testing.T) {
	ds := dataset{
		locations:  []models.Location{{ID: "loc-1", DisplayName: "Lima, Peru", Country: "Peru"}},
		challenges: []models.Challenge{{ID: "ch-1", Title: "Sky Watch", Description: "Track storms (Earth Science)"}},
		projects: []models.Project{
			{ID: 1, Name: "placed", LocationID: ptr("loc-1"), ChallengeID: ptr("ch-1"), Badges: ptr("Winner"), Link: "/p"},
			{ID: 2, Name: "orphan", Link: "/o"},
		},
	}

	for name, repo := range repos(t, ds) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			page, err := repo.Page(ctx, query.Build(models.FilterRequest{Limit: 10}))
			require.NoError(t, err)
			require.Len(t, page, 2)

			assert.Equal(t, models.ProjectRow{
				ID: 1, Name: "placed", Location: ptr("Lima, Peru"), Challenge: ptr("Sky Watch"), Badges: ptr("Winner"), Link: "/p",
			}, page[0])
			assert.Equal(t, models.ProjectRow{ID: 2, Name: "orphan", Link: "/o"}, page[1])

			page, err = repo.Page(ctx, query.Build(models.FilterRequest{Challenges: []string{"Sky Watch", "Other"}, Limit: 10}))
			require.NoError(t, err)
			assert.Equal(t, []string{"placed"}, rowNames(page))
		})
	}
}

func TestRepository_Facets(t *testing.T) {
	ds := dataset{
		locations: []models.Location{
			{ID: "2", DisplayName: "Lima, Peru"},
			{ID: "1", DisplayName: "Accra, Ghana"},
			{ID: "3", DisplayName: "Accra, Ghana"},
		},
		challenges: []models.Challenge{
			{ID: "a", Title: "Sky", Description: "Watch the sky (Astronomy)"},
			{ID: "b", Title: "Sea", Description: "No theme"},
		},
	}

	for name, repo := range repos(t, ds) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			locs, err := repo.Locations(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"Accra, Ghana", "Lima, Peru"}, locs)

			titles, err := repo.Challenges(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"Sea", "Sky"}, titles)

			descs, err := repo.ChallengeDescriptions(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"Watch the sky (Astronomy)"}, descs)

			cols, err := repo.Columns(ctx, TableLocations)
			require.NoError(t, err)
			assert.Equal(t, []string{"id", "display_name", "country"}, cols)

			_, err = repo.Columns(ctx, Table("sqlite_master"))
			assert.ErrorIs(t, err, ErrUnknownTable)
		})
	}
}

func TestRepository_AwardTrimsSpacesOnly(t *testing.T) {
	ds := dataset{projects: []models.Project{
		{ID: 1, Name: "spaces", Badges: ptr("   "), Link: "/1"},
		{ID: 2, Name: "tab", Badges: ptr("\t"), Link: "/2"},
		{ID: 3, Name: "empty", Badges: ptr(""), Link: "/3"},
	}}

	for name, repo := range repos(t, ds) {
		t.Run(name, func(t *testing.T) {
			page, err := repo.Page(context.Background(), query.Build(models.FilterRequest{HasAward: true, Limit: 5}))
			require.NoError(t, err)
			assert.Equal(t, []string{"tab"}, rowNames(page))
		})
	}
}

func TestRepository_FacetsKeepEmptyNames(t *testing.T) {
	ds := dataset{
		locations:  []models.Location{{ID: "1", DisplayName: ""}, {ID: "2", DisplayName: "Oslo"}},
		challenges: []models.Challenge{{ID: "a", Title: ""}, {ID: "b", Title: "Sky"}},
	}

	for name, repo := range repos(t, ds) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			locs, err := repo.Locations(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"", "Oslo"}, locs)

			titles, err := repo.Challenges(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"", "Sky"}, titles)
		})
	}
}

func TestLookupTable(t *testing.T) {
	tbl, ok := LookupTable("projects")
	assert.True(t, ok)
	assert.Equal(t, TableProjects, tbl)

	_, ok = LookupTable("projects); DROP TABLE projects; --")
	assert.False(t, ok)
}

// randomDataset builds a catalog with overlapping names, shared badge
// counts and missing joins so every ranking key sees ties.
func randomDataset(rng *rand.Rand, n int) dataset {
	ds := dataset{
		locations: []models.Location{
			{ID: "l1", DisplayName: "Lima"}, {ID: "l2", DisplayName: "Accra"}, {ID: "l3", DisplayName: "Oslo"},
		},
		challenges: []models.Challenge{
			{ID: "c1", Title: "Sky"}, {ID: "c2", Title: "Sea"}, {ID: "c3", Title: "Soil"},
		},
	}
	words := []string{"Mars", "mars", "Moon", "Rover", "Sat", "Orbit"}
	badges := []*string{nil, ptr(""), ptr(" "), ptr("Winner"), ptr("Winner,Finalist"), ptr("Global Nominee, Winner"), ptr("a,,b")}

	for i := 1; i <= n; i++ {
		p := models.Project{
			ID:     int64(i),
			Name:   words[rng.Intn(len(words))] + " " + words[rng.Intn(len(words))],
			Badges: badges[rng.Intn(len(badges))],
			Link:   fmt.Sprintf("/p/%d", i),
		}
		if rng.Intn(4) > 0 {
			p.LocationID = &ds.locations[rng.Intn(len(ds.locations))].ID
		}
		if rng.Intn(4) > 0 {
			p.ChallengeID = &ds.challenges[rng.Intn(len(ds.challenges))].ID
		}
		ds.projects = append(ds.projects, p)
	}
	return ds
}

func randomRequest(rng *rand.Rand) models.FilterRequest {
	pick := func(opts []string) []string {
		var out []string
		for _, o := range opts {
			if rng.Intn(3) == 0 {
				out = append(out, o)
			}
		}
		return out
	}
	queries := []string{"", "", "Mars", "mars", "Ro", "o", " Moon "}
	modes := []models.RankingMode{models.RankRelevance, models.RankAwards}

	return models.FilterRequest{
		Query:      queries[rng.Intn(len(queries))],
		Challenges: pick([]string{"Sky", "Sea", "Soil", "Nope"}),
		Locations:  pick([]string{"Lima", "Accra", "Oslo"}),
		HasAward:   rng.Intn(3) == 0,
		OrderBy:    modes[rng.Intn(len(modes))],
	}
}

func TestRepository_SQLiteAgreesWithMemory(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ds := randomDataset(rng, 120)
	lite, mem := newSQLite(t, ds), newMemory(ds)
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		req := randomRequest(rng)
		req.Limit = 1000
		q := query.Build(req)

		liteTotal, err := lite.Count(ctx, q)
		require.NoError(t, err)
		memTotal, err := mem.Count(ctx, q)
		require.NoError(t, err)
		require.Equal(t, memTotal, liteTotal, "request %+v", req)

		litePage, err := lite.Page(ctx, q)
		require.NoError(t, err)
		memPage, err := mem.Page(ctx, q)
		require.NoError(t, err)
		require.Equal(t, memPage, litePage, "request %+v", req)
	}
}

func TestRepository_PaginationProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	ds := randomDataset(rng, 130)
	ctx := context.Background()

	for name, repo := range repos(t, ds) {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 25; i++ {
				req := randomRequest(rng)

				req.Limit, req.Offset = 0, 0
				total, err := repo.Count(ctx, query.Build(req))
				require.NoError(t, err)

				// count/page consistency
				for _, w := range []struct{ limit, offset int }{{10, 0}, {10, total - 3}, {7, total}, {5, total + 10}, {0, 0}} {
					if w.offset < 0 {
						continue
					}
					req.Limit, req.Offset = w.limit, w.offset
					page, err := repo.Page(ctx, query.Build(req))
					require.NoError(t, err)
					assert.Len(t, page, min(w.limit, max(0, total-w.offset)))
				}

				// 50+50 equals 100 and the traversal is strictly ordered
				req.Limit, req.Offset = 50, 0
				first, err := repo.Page(ctx, query.Build(req))
				require.NoError(t, err)
				req.Offset = 50
				second, err := repo.Page(ctx, query.Build(req))
				require.NoError(t, err)
				req.Limit, req.Offset = 100, 0
				whole, err := repo.Page(ctx, query.Build(req))
				require.NoError(t, err)
				assert.Equal(t, whole, append(first, second...))

				order := query.Rank(req.Normalized().OrderBy, req.Query)
				seen := make(map[int64]bool)
				for j, row := range whole {
					assert.False(t, seen[row.ID], "duplicate id %d", row.ID)
					seen[row.ID] = true
					if j > 0 {
						assert.Equal(t, -1, query.Compare(order, whole[j-1], row))
					}
				}
			}
		})
	}
}

func TestRepository_FilterMonotonicity(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	ds := randomDataset(rng, 100)
	repo := newSQLite(t, ds)
	ctx := context.Background()

	extra := []query.Clause{
		{Kind: query.Equals, Field: query.FieldChallengeTitle, Values: []string{"Sky"}},
		{Kind: query.In, Field: query.FieldLocationName, Values: []string{"Lima", "Oslo"}},
		{Kind: query.Contains, Field: query.FieldProjectName, Values: []string{"o"}},
		{Kind: query.NotBlank, Field: query.FieldBadges},
	}

	for i := 0; i < 30; i++ {
		q := query.Build(randomRequest(rng))
		before, err := repo.Count(ctx, q)
		require.NoError(t, err)

		for _, c := range extra {
			narrowed := q
			narrowed.Where = q.Where.And(c)
			after, err := repo.Count(ctx, narrowed)
			require.NoError(t, err)
			assert.LessOrEqual(t, after, before)
		}
	}
}
