package ingest

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/terra-clan/project-explorer/internal/catalog"
	"github.com/terra-clan/project-explorer/internal/metrics"
)

// Scraper defaults
const (
	DefaultBatchSize = 50
	DefaultWorkers   = 5
	// FallbackTotal is used when the total count query fails
	FallbackTotal = 20000
)

// Fetcher reads team pages from the source API
type Fetcher interface {
	TotalCount(ctx context.Context) (int, error)
	FetchPage(ctx context.Context, offset, first int) ([]Team, error)
}

// Sink stores converted batches
type Sink interface {
	Write(ctx context.Context, batch *catalog.Fixture) (WriteResult, error)
}

// Summary reports one import run
type Summary struct {
	RunID         string
	Batches       int
	FailedBatches int
	Fetched       int
	Saved         int
	Skipped       int
	Duration      time.Duration
}

// Scraper fetches every page of teams with a bounded worker pool and writes
// them to a sink. A failed batch is logged and counted; it never stops the run.
type Scraper struct {
	source    Fetcher
	sink      Sink
	workers   int
	batchSize int
	jitter    func() time.Duration
	metrics   *metrics.Metrics
}

// ScraperOption configures a Scraper
type ScraperOption func(*Scraper)

// WithWorkers sets the number of concurrent batch workers
func WithWorkers(n int) ScraperOption {
	return func(s *Scraper) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithBatchSize sets the page size requested from the API
func WithBatchSize(n int) ScraperOption {
	return func(s *Scraper) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithJitter replaces the random delay taken before each request
func WithJitter(f func() time.Duration) ScraperOption {
	return func(s *Scraper) { s.jitter = f }
}

// WithScraperMetrics records import progress into m
func WithScraperMetrics(m *metrics.Metrics) ScraperOption {
	return func(s *Scraper) { s.metrics = m }
}

// NewScraper creates a scraper
func NewScraper(source Fetcher, sink Sink, opts ...ScraperOption) *Scraper {
	s := &Scraper{
		source:    source,
		sink:      sink,
		workers:   DefaultWorkers,
		batchSize: DefaultBatchSize,
		jitter:    randomJitter,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// randomJitter waits between 0.5 and 2 seconds
func randomJitter() time.Duration {
	return 500*time.Millisecond + rand.N(1500*time.Millisecond)
}

// Offsets returns the page start offsets covering total teams plus one
// extra page, in case the total grew during the run
func Offsets(total, batchSize int) []int {
	var out []int
	for off := 0; off < total+batchSize; off += batchSize {
		out = append(out, off)
	}
	return out
}

// Run imports every page. It returns early only when ctx is cancelled.
func (s *Scraper) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	sum := Summary{RunID: uuid.NewString()}
	log := slog.With("run_id", sum.RunID)

	total, err := s.source.TotalCount(ctx)
	if err != nil {
		log.Warn("failed to get total count, using fallback", "error", err, "fallback", FallbackTotal)
		total = FallbackTotal
	}

	offsets := Offsets(total, s.batchSize)
	sum.Batches = len(offsets)
	log.Info("import started", "total", total, "batches", len(offsets), "workers", s.workers)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, offset := range offsets {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			fetched, res, err := s.batch(gctx, offset)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				sum.FailedBatches++
				s.metrics.AddIngested("failed_batch", 1)
				log.Error("failed to import batch", "offset", offset, "error", err)
				return nil
			}
			sum.Fetched += fetched
			sum.Saved += res.Saved
			sum.Skipped += res.Skipped
			s.metrics.AddIngested("saved", res.Saved)
			s.metrics.AddIngested("skipped", res.Skipped)
			if fetched > 0 {
				log.Info("batch saved", "offset", offset, "items", fetched, "saved", res.Saved)
			}
			return nil
		})
	}

	err = g.Wait()
	sum.Duration = time.Since(start)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		log.Warn("import interrupted", "error", err, "saved", sum.Saved)
		return sum, err
	}

	log.Info("import finished",
		"fetched", sum.Fetched,
		"saved", sum.Saved,
		"skipped", sum.Skipped,
		"failed_batches", sum.FailedBatches,
		"duration", sum.Duration,
	)
	return sum, nil
}

func (s *Scraper) batch(ctx context.Context, offset int) (int, WriteResult, error) {
	if d := s.jitter(); d > 0 {
		t := time.NewTimer(d)
		select {
		case <-ctx.Done():
			t.Stop()
			return 0, WriteResult{}, ctx.Err()
		case <-t.C:
		}
	}

	teams, err := s.source.FetchPage(ctx, offset, s.batchSize)
	if err != nil {
		return 0, WriteResult{}, err
	}
	if len(teams) == 0 {
		return 0, WriteResult{}, nil
	}

	res, err := s.sink.Write(ctx, ToBatch(teams))
	if err != nil {
		return len(teams), WriteResult{}, err
	}
	return len(teams), res, nil
}
