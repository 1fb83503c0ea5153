package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/terra-clan/project-explorer/internal/api"
	"github.com/terra-clan/project-explorer/internal/cache"
	"github.com/terra-clan/project-explorer/internal/catalog"
	"github.com/terra-clan/project-explorer/internal/cleanup"
	"github.com/terra-clan/project-explorer/internal/config"
	"github.com/terra-clan/project-explorer/internal/facets"
	"github.com/terra-clan/project-explorer/internal/health"
	"github.com/terra-clan/project-explorer/internal/metrics"
	"github.com/terra-clan/project-explorer/internal/search"
	"github.com/terra-clan/project-explorer/internal/storage"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "optional YAML config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	level, _ := config.ParseLevel(cfg.Log.Level)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	slog.Info("starting project-explorer",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"store", cfg.Store.Driver,
		"cache", cfg.Redis.Enabled,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	repo, err := openStore(initCtx, cfg.Store)
	if err != nil {
		slog.Error("failed to open catalog store", "error", err)
		os.Exit(1)
	}
	slog.Info("catalog store ready", "driver", cfg.Store.Driver)

	// Metrics
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics()
	if err := m.Register(promRegistry); err != nil {
		slog.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}

	// Health registry
	registry := health.NewRegistry()
	registry.Register("store", health.CheckerFunc(repo.Ping))

	engineOpts := []search.Option{
		search.WithMetrics(m),
		search.WithMaxLimit(cfg.Server.MaxPageSize),
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		redisCache, err = cache.NewRedisCache(initCtx, cache.Config{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		})
		if err != nil {
			slog.Error("failed to connect search cache", "error", err)
			os.Exit(1)
		}
		registry.Register("cache", redisCache)
		engineOpts = append(engineOpts, search.WithCache(redisCache))

		// Start cleanup worker
		cleanup.NewCleaner(repo, redisCache, cfg.Redis.TTL).Start(ctx)
	}

	// Setup HTTP server
	server := api.NewServer(cfg.Server, api.Dependencies{
		Search:         search.NewEngine(repo, engineOpts...),
		Facets:         facets.NewService(repo),
		Health:         registry,
		Metrics:        m,
		MetricsHandler: metrics.Handler(promRegistry),
	})
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Server.RequestLimit + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Cancel context to stop background workers
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	if redisCache != nil {
		if err := redisCache.Close(); err != nil {
			slog.Error("cache close error", "error", err)
		}
	}
	if err := repo.Close(); err != nil {
		slog.Error("store close error", "error", err)
	}

	slog.Info("project-explorer stopped")
}

// openStore opens the catalog store selected by cfg.Driver
func openStore(ctx context.Context, cfg config.StoreConfig) (storage.Repository, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		repo, err := storage.NewSQLiteRepository(ctx, storage.SQLiteConfig{
			Path:         cfg.Path,
			ReadOnly:     true,
			MaxOpenConns: cfg.MaxOpenConns,
		})
		if err != nil {
			return nil, err
		}
		return repo, nil
	case config.DriverPostgres:
		repo, err := storage.NewPostgresRepository(ctx, storage.PostgresConfig{
			DSN:          cfg.DSN,
			MaxOpenConns: int32(cfg.MaxOpenConns),
		})
		if err != nil {
			return nil, err
		}
		return repo, nil
	case config.DriverMemory:
		f, err := catalog.LoadFromDir(cfg.FixtureDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load fixtures: %w", err)
		}
		return storage.NewMemoryRepository(f.Locations, f.Challenges, f.Projects), nil
	}
	return nil, fmt.Errorf("unknown store driver: %q", cfg.Driver)
}
