package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/project-explorer/internal/query"
	"github.com/terra-clan/project-explorer/internal/storage"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSeed_SQLite(t *testing.T) {
	dir := t.TempDir()
	fixture := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(fixture, []byte(`
challenges:
  - {id: c1, title: Sky Watch, description: "Track storms (Earth Science)"}
projects:
  - {id: 1, name: Storm Chasers, challenge: c1, badges: Winner, link: /1}
  - {id: 2, name: Drifters, link: /2}
`), 0o644))
	db := filepath.Join(dir, "projects.db")

	out, err := run(t, "seed", "--driver", "sqlite", "--dsn", db, "--file", fixture)
	require.NoError(t, err)
	assert.Contains(t, out, "saved 2 project(s), skipped 0")

	out, err = run(t, "seed", "--driver", "sqlite", "--dsn", db, "--file", fixture)
	require.NoError(t, err)
	assert.Contains(t, out, "saved 0 project(s), skipped 2")

	repo, err := storage.NewSQLiteRepository(context.Background(), storage.SQLiteConfig{Path: db, ReadOnly: true})
	require.NoError(t, err)
	defer repo.Close()
	n, err := repo.Count(context.Background(), query.Query{})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestInvalidDriver(t *testing.T) {
	_, err := run(t, "seed", "--driver", "mysql", "--dsn", "x", "--file", "y")
	assert.ErrorContains(t, err, "invalid driver")
}

func TestMigrateRequiresPostgres(t *testing.T) {
	_, err := run(t, "migrate", "--driver", "sqlite", "--dsn", filepath.Join(t.TempDir(), "x.db"))
	assert.ErrorContains(t, err, "requires --driver postgres")
}
