// Package search answers catalog searches: it validates a request, builds the
// ranked query and runs the count and page reads against a store.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/terra-clan/project-explorer/internal/metrics"
	"github.com/terra-clan/project-explorer/internal/models"
	"github.com/terra-clan/project-explorer/internal/query"
	"github.com/terra-clan/project-explorer/internal/storage"
)

// Errors returned by Search
var (
	ErrInvalidRequest = errors.New("invalid search request")
	ErrStoreFailure   = errors.New("catalog store failure")
)

// Store is the part of storage.Repository a search needs
type Store interface {
	Count(ctx context.Context, q query.Query) (int, error)
	Page(ctx context.Context, q query.Query) ([]models.ProjectRow, error)
}

var _ Store = (storage.Repository)(nil)

// Cache stores finished result pages keyed by normalized request
type Cache interface {
	Get(ctx context.Context, req models.FilterRequest) (models.ResultPage, bool, error)
	Set(ctx context.Context, req models.FilterRequest, page models.ResultPage) error
}

// Engine runs searches. It is safe for concurrent use.
type Engine struct {
	store    Store
	cache    Cache
	metrics  *metrics.Metrics
	maxLimit int
}

// Option configures an Engine
type Option func(*Engine)

// WithCache enables result caching
func WithCache(c Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithMetrics records search metrics into m
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithMaxLimit caps the page size of every request. Zero disables the cap.
func WithMaxLimit(n int) Option {
	return func(e *Engine) { e.maxLimit = n }
}

// NewEngine creates a search engine over store
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{store: store}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search returns one page of matching projects and the total match count.
// Both reads use the same filter, so Total counts exactly the rows paging
// would eventually return.
func (e *Engine) Search(ctx context.Context, req models.FilterRequest) (models.ResultPage, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		e.metrics.ObserveSearch("none", metrics.OutcomeInvalid, time.Since(start).Seconds())
		return models.ResultPage{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	req = req.Normalized()
	if e.maxLimit > 0 && req.Limit > e.maxLimit {
		req.Limit = e.maxLimit
	}
	mode := string(req.OrderBy)

	if page, ok := e.cached(ctx, req); ok {
		e.metrics.ObserveSearch(mode, metrics.OutcomeSuccess, time.Since(start).Seconds())
		return page, nil
	}

	page, err := e.run(ctx, query.Build(req))
	if err != nil {
		e.metrics.ObserveSearch(mode, metrics.OutcomeFailure, time.Since(start).Seconds())
		return models.ResultPage{}, err
	}

	if e.cache != nil {
		if err := e.cache.Set(ctx, req, page); err != nil {
			slog.Warn("failed to cache search result", "error", err)
		}
	}

	e.metrics.ObserveSearch(mode, metrics.OutcomeSuccess, time.Since(start).Seconds())
	slog.Debug("search completed",
		"query", req.Query,
		"mode", mode,
		"total", page.Total,
		"rows", len(page.Rows),
		"duration", time.Since(start),
	)
	return page, nil
}

func (e *Engine) cached(ctx context.Context, req models.FilterRequest) (models.ResultPage, bool) {
	if e.cache == nil {
		return models.ResultPage{}, false
	}
	page, ok, err := e.cache.Get(ctx, req)
	if err != nil {
		slog.Warn("search cache unavailable", "error", err)
		return models.ResultPage{}, false
	}
	if !ok {
		e.metrics.CacheMiss()
		return models.ResultPage{}, false
	}
	e.metrics.CacheHit()
	return page, true
}

func (e *Engine) run(ctx context.Context, q query.Query) (models.ResultPage, error) {
	var (
		total int
		rows  []models.ProjectRow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := e.store.Count(gctx, q)
		if err != nil {
			return fmt.Errorf("failed to count projects: %w", err)
		}
		total = n
		return nil
	})
	g.Go(func() error {
		r, err := e.store.Page(gctx, q)
		if err != nil {
			return fmt.Errorf("failed to fetch projects: %w", err)
		}
		rows = r
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.ResultPage{}, fmt.Errorf("%w: %w", ErrStoreFailure, err)
	}

	if rows == nil {
		rows = []models.ProjectRow{}
	}
	return models.ResultPage{Rows: rows, Total: total}, nil
}
