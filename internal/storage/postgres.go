package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terra-clan/project-explorer/internal/models"
	"github.com/terra-clan/project-explorer/internal/query"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

var _ Repository = (*PostgresRepository)(nil)

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	// Set pool configuration
	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 25 // default
	}

	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	} else {
		poolConfig.MinConns = 2
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	// The catalog is never written by the server
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, "SET SESSION CHARACTERISTICS AS TRANSACTION READ ONLY")
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// Count returns the number of projects matching q.Where
func (r *PostgresRepository) Count(ctx context.Context, q query.Query) (int, error) {
	stmt := query.Postgres.Plan(q).Count

	var total int64
	if err := r.pool.QueryRow(ctx, stmt.SQL, stmt.Args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return int(total), nil
}

// Page returns the window of matching projects in ranking order
func (r *PostgresRepository) Page(ctx context.Context, q query.Query) ([]models.ProjectRow, error) {
	stmt := query.Postgres.Plan(q).Page

	rows, err := r.pool.Query(ctx, stmt.SQL, stmt.Args...)
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
func (r *PostgresRepository) Challenges(ctx context.Context) ([]string, error) {
	return r.strings(ctx, `SELECT DISTINCT title FROM challenges WHERE title IS NOT NULL ORDER BY title`)
}

// Locations returns the distinct location display names
func (r *PostgresRepository) Locations(ctx context.Context) ([]string, error) {
	return r.strings(ctx, `SELECT DISTINCT display_name FROM locations WHERE display_name IS NOT NULL ORDER BY display_name`)
}

// ChallengeDescriptions returns descriptions that may carry a theme
func (r *PostgresRepository) ChallengeDescriptions(ctx context.Context) ([]string, error) {
	return r.strings(ctx, `SELECT description FROM challenges WHERE description LIKE '%(%)%'`)
}

// Columns lists the column names of a catalog table
func (r *PostgresRepository) Columns(ctx context.Context, table Table) ([]string, error) {
	if _, ok := LookupTable(string(table)); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	return r.strings(ctx, `
		SELECT column_name FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
		ORDER BY ordinal_position
	`, string(table))
}

func (r *PostgresRepository) strings(ctx context.Context, q string, args ...any) ([]string, error) {
	rows, err := r.pool.Query(ctx, q, args...)
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
