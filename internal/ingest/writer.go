package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	_ "github.com/lib/pq"

	"github.com/terra-clan/project-explorer/internal/catalog"
	"github.com/terra-clan/project-explorer/internal/storage"
)

// Sink drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrUnknownDriver is returned by OpenWriter for an unsupported driver
var ErrUnknownDriver = errors.New("unknown sink driver")

// statements holds the insert statements of one SQL dialect. Locations and
// challenges are insert-or-ignore by id; projects are skipped when their
// link is already present.
type statements struct {
	location      string
	challenge     string
	project       string
	projectWithID string
	resetSequence string
}

var sqliteStatements = statements{
	location:  `INSERT OR IGNORE INTO locations (id, display_name, country) VALUES (?, ?, ?)`,
	challenge: `INSERT OR IGNORE INTO challenges (id, title, description) VALUES (?, ?, ?)`,
	project: `INSERT INTO projects (name, location, challenge, badges, link)
		SELECT ?, ?, ?, ?, ? WHERE NOT EXISTS (SELECT 1 FROM projects WHERE link = ?)`,
	projectWithID: `INSERT OR IGNORE INTO projects (id, name, location, challenge, badges, link)
		SELECT ?, ?, ?, ?, ?, ? WHERE NOT EXISTS (SELECT 1 FROM projects WHERE link = ?)`,
}

var postgresStatements = statements{
	location:  `INSERT INTO locations (id, display_name, country) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`,
	challenge: `INSERT INTO challenges (id, title, description) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`,
	project: `INSERT INTO projects (name, location, challenge, badges, link)
		SELECT $1::text, $2::text, $3::text, $4::text, $5::text
		WHERE NOT EXISTS (SELECT 1 FROM projects WHERE link = $6::text)`,
	projectWithID: `INSERT INTO projects (id, name, location, challenge, badges, link)
		SELECT $1::bigint, $2::text, $3::text, $4::text, $5::text, $6::text
		WHERE NOT EXISTS (SELECT 1 FROM projects WHERE link = $7::text)
		ON CONFLICT (id) DO NOTHING`,
	resetSequence: `SELECT setval(pg_get_serial_sequence('projects', 'id'), COALESCE(MAX(id), 1)) FROM projects`,
}

// WriteResult counts the projects of one batch
type WriteResult struct {
	Saved   int
	Skipped int
}

// Writer appends catalog batches to a SQL database. Writes are serialized
// and each batch commits in one transaction.
type Writer struct {
	mu     sync.Mutex
	db     *sql.DB
	driver string
	stmts  statements
}

// OpenWriter opens a writable sink. The sqlite schema is created on open;
// postgres databases must be migrated first.
func OpenWriter(ctx context.Context, driver, dsn string) (*Writer, error) {
	switch driver {
	case DriverSQLite:
		db, err := storage.OpenSQLite(storage.SQLiteConfig{Path: dsn, MaxOpenConns: 1})
		if err != nil {
			return nil, err
		}
		if err := storage.EnsureSQLiteSchema(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		return &Writer{db: db, driver: driver, stmts: sqliteStatements}, nil

	case DriverPostgres:
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		return &Writer{db: db, driver: driver, stmts: postgresStatements}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
}

// Write inserts one batch
func (w *Writer) Write(ctx context.Context, batch *catalog.Fixture) (WriteResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var res WriteResult

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, l := range batch.Locations {
		if _, err := tx.ExecContext(ctx, w.stmts.location, l.ID, l.DisplayName, nullable(l.Country)); err != nil {
			return res, fmt.Errorf("failed to insert location %s: %w", l.ID, err)
		}
	}
	for _, c := range batch.Challenges {
		if _, err := tx.ExecContext(ctx, w.stmts.challenge, c.ID, c.Title, nullable(c.Description)); err != nil {
			return res, fmt.Errorf("failed to insert challenge %s: %w", c.ID, err)
		}
	}

	explicitIDs := false
	for _, p := range batch.Projects {
		var (
			result sql.Result
			err    error
		)
		if p.ID > 0 {
			explicitIDs = true
			result, err = tx.ExecContext(ctx, w.stmts.projectWithID,
				p.ID, p.Name, p.LocationID, p.ChallengeID, p.Badges, p.Link, p.Link)
		} else {
			result, err = tx.ExecContext(ctx, w.stmts.project,
				p.Name, p.LocationID, p.ChallengeID, p.Badges, p.Link, p.Link)
		}
		if err != nil {
			return res, fmt.Errorf("failed to insert project %q: %w", p.Name, err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return res, fmt.Errorf("failed to read affected rows: %w", err)
		}
		if n > 0 {
			res.Saved++
		} else {
			res.Skipped++
		}
	}

	if explicitIDs && w.stmts.resetSequence != "" {
		if _, err := tx.ExecContext(ctx, w.stmts.resetSequence); err != nil {
			return res, fmt.Errorf("failed to reset project id sequence: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return WriteResult{}, fmt.Errorf("failed to commit batch: %w", err)
	}

	slog.Debug("batch written", "driver", w.driver, "saved", res.Saved, "skipped", res.Skipped)
	return res, nil
}

// Close closes the database
func (w *Writer) Close() error {
	return w.db.Close()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
