// catalog-import builds the catalog database the explorer serves: it applies
// migrations, seeds fixtures and scrapes the public teams API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/terra-clan/project-explorer/internal/config"
	"github.com/terra-clan/project-explorer/internal/ingest"
	"github.com/terra-clan/project-explorer/internal/storage"
)

var (
	driver   string
	dsn      string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:           "catalog-import",
	Short:         "Build and update the project catalog database",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		level, err := config.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

		if driver != ingest.DriverSQLite && driver != ingest.DriverPostgres {
			return fmt.Errorf("invalid driver: %s (valid: sqlite, postgres)", driver)
		}
		if dsn == "" {
			return fmt.Errorf("--dsn is required")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&driver, "driver", envOr("STORE_DRIVER", ingest.DriverSQLite), "sink driver: sqlite or postgres")
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", envOr("DATABASE_DSN", "./projects.db"), "sqlite file path or postgres DSN")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", envOr("LOG_LEVEL", "info"), "log level")

	rootCmd.AddCommand(migrateCmd(), seedCmd(), scrapeCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("catalog-import failed", "error", err)
		os.Exit(1)
	}
}

// openSink prepares the target database. Postgres targets are migrated
// first so seed and scrape work against an empty database.
func openSink(ctx context.Context) (*ingest.Writer, error) {
	if driver == ingest.DriverPostgres {
		applied, err := storage.MigrateFromDSN(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		if len(applied) > 0 {
			slog.Info("migrations applied", "migrations", applied)
		}
	}
	return ingest.OpenWriter(ctx, driver, dsn)
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
