package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	// Register sqlite driver
	_ "modernc.org/sqlite"

	"github.com/terra-clan/project-explorer/internal/models"
	"github.com/terra-clan/project-explorer/internal/query"
)

// SQLiteRepository implements Repository over a catalog database file
type SQLiteRepository struct {
	db *sql.DB
}

var _ Repository = (*SQLiteRepository)(nil)

// SQLiteConfig holds SQLite connection configuration
type SQLiteConfig struct {
	Path         string
	ReadOnly     bool
	MaxOpenConns int
}

// sqliteSchema mirrors migrations/001_catalog.sql
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS locations (
	id TEXT PRIMARY KEY,
	display_name TEXT,
	country TEXT
);
CREATE TABLE IF NOT EXISTS challenges (
	id TEXT PRIMARY KEY,
	title TEXT,
	description TEXT
);
CREATE TABLE IF NOT EXISTS projects (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	location TEXT REFERENCES locations(id),
	challenge TEXT REFERENCES challenges(id),
	badges TEXT,
	link TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_projects_link ON projects(link);
`

// OpenSQLite opens a catalog database file. Read-only handles are used by
// the server; the importer opens the file writable. The default rollback
// journal is kept so read-only handles never need to create -shm files.
func OpenSQLite(cfg SQLiteConfig) (*sql.DB, error) {
	params := url.Values{}
	params.Add("_pragma", "busy_timeout(5000)")
	if cfg.ReadOnly {
		params.Set("mode", "ro")
	} else {
		params.Add("_pragma", "foreign_keys(1)")
	}
	dsn := "file:" + cfg.Path + "?" + params.Encode()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Path, err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	return db, nil
}

// EnsureSQLiteSchema creates the catalog tables if they do not exist
func EnsureSQLiteSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// NewSQLiteRepository opens the catalog file and verifies it is reachable
func NewSQLiteRepository(ctx context.Context, cfg SQLiteConfig) (*SQLiteRepository, error) {
	db, err := OpenSQLite(cfg)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Ping checks database connectivity
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database handle
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Count returns the number of projects matching q.Where
func (r *SQLiteRepository) Count(ctx context.Context, q query.Query) (int, error) {
	stmt := query.SQLite.Plan(q).Count

	var total int
	if err := r.db.QueryRowContext(ctx, stmt.SQL, stmt.Args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return total, nil
}

// Page returns the window of matching projects in ranking order
func (r *SQLiteRepository) Page(ctx context.Context, q query.Query) ([]models.ProjectRow, error) {
	stmt := query.SQLite.Plan(q).Page

	rows, err := r.db.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	result := make([]models.ProjectRow, 0, min(q.Limit, 256))
	for rows.Next() {
		row, err := scanProjectRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}

	return result, nil
}

// Challenges returns the distinct challenge titles
func (r *SQLiteRepository) Challenges(ctx context.Context) ([]string, error) {
	return r.strings(ctx, `SELECT DISTINCT title FROM challenges WHERE title IS NOT NULL ORDER BY title`)
}

// Locations returns the distinct location display names
func (r *SQLiteRepository) Locations(ctx context.Context) ([]string, error) {
	return r.strings(ctx, `SELECT DISTINCT display_name FROM locations WHERE display_name IS NOT NULL ORDER BY display_name`)
}

// ChallengeDescriptions returns descriptions that may carry a theme
func (r *SQLiteRepository) ChallengeDescriptions(ctx context.Context) ([]string, error) {
	return r.strings(ctx, `SELECT description FROM challenges WHERE description LIKE '%(%)%'`)
}

// Columns lists the column names of a catalog table
func (r *SQLiteRepository) Columns(ctx context.Context, table Table) ([]string, error) {
	if _, ok := LookupTable(string(table)); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	return r.strings(ctx, `SELECT name FROM pragma_table_info(?) ORDER BY cid`, string(table))
}

func (r *SQLiteRepository) strings(ctx context.Context, q string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan value: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// scanner abstracts sql.Rows and pgx.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanProjectRow(sc scanner) (models.ProjectRow, error) {
	var row models.ProjectRow
	var location, challenge, badges sql.NullString

	if err := sc.Scan(&row.ID, &row.Name, &location, &challenge, &badges, &row.Link); err != nil {
		return row, err
	}

	row.Location = fromNullString(location)
	row.Challenge = fromNullString(challenge)
	row.Badges = fromNullString(badges)
	return row, nil
}

func fromNullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
