// Package cleanup drops cached search pages once the catalog they were
// computed from has changed.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/terra-clan/project-explorer/internal/query"
)

// Counter counts catalog rows matching a query
type Counter interface {
	Count(ctx context.Context, q query.Query) (int, error)
}

// Flusher empties the search cache
type Flusher interface {
	Flush(ctx context.Context) (int, error)
}

// Cleaner periodically compares the catalog size with the last seen one and
// flushes the cache when it moved. The importer only ever adds projects, so
// the unfiltered count identifies a catalog revision.
type Cleaner struct {
	store    Counter
	cache    Flusher
	interval time.Duration

	seen  int
	known bool
}

// NewCleaner creates a new cleanup worker
func NewCleaner(store Counter, cache Flusher, interval time.Duration) *Cleaner {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &Cleaner{
		store:    store,
		cache:    cache,
		interval: interval,
	}
}

// Start begins the cleanup worker in a goroutine
func (c *Cleaner) Start(ctx context.Context) {
	go c.run(ctx)
}

// run is the main loop for the cleanup worker
func (c *Cleaner) run(ctx context.Context) {
	slog.Info("cleanup worker started", "interval", c.interval)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Run immediately on start
	c.Check(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("cleanup worker stopped")
			return
		case <-ticker.C:
			c.Check(ctx)
		}
	}
}

// Check runs one cycle and reports whether the cache was flushed. The first
// cycle only records the current size. It is not safe to call concurrently
// with a running worker.
func (c *Cleaner) Check(ctx context.Context) bool {
	slog.Debug("running cleanup cycle")

	n, err := c.store.Count(ctx, query.Query{})
	if err != nil {
		slog.Error("failed to count catalog projects", "error", err)
		return false
	}

	if !c.known {
		c.seen, c.known = n, true
		return false
	}
	if n == c.seen {
		slog.Debug("catalog unchanged", "projects", n)
		return false
	}

	slog.Info("catalog changed, flushing search cache", "before", c.seen, "after", n)
	if _, err := c.cache.Flush(ctx); err != nil {
		slog.Error("failed to flush search cache", "error", err)
		return false
	}
	c.seen = n
	return true
}
