package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/terra-clan/project-explorer/internal/catalog"
	"github.com/terra-clan/project-explorer/internal/ingest"
	"github.com/terra-clan/project-explorer/internal/storage"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the PostgreSQL catalog migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if driver != ingest.DriverPostgres {
				return fmt.Errorf("migrate requires --driver postgres; sqlite schemas are created on open")
			}
			applied, err := storage.MigrateFromDSN(cmd.Context(), dsn)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", len(applied))
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a YAML fixture file or directory into the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("failed to read fixtures: %w", err)
			}

			var f *catalog.Fixture
			if info.IsDir() {
				f, err = catalog.LoadFromDir(path)
			} else {
				f, err = catalog.LoadFromFile(path)
			}
			if err != nil {
				return err
			}

			w, err := openSink(cmd.Context())
			if err != nil {
				return err
			}
			defer w.Close()

			res, err := w.Write(cmd.Context(), f)
			if err != nil {
				return err
			}
			slog.Info("fixtures seeded", "saved", res.Saved, "skipped", res.Skipped)
			fmt.Fprintf(cmd.OutOrStdout(), "saved %d project(s), skipped %d\n", res.Saved, res.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "file", "", "fixture file or directory")
	cmd.MarkFlagRequired("file")
	return cmd
}

func scrapeCmd() *cobra.Command {
	var (
		endpoint  string
		event     string
		workers   int
		batchSize int
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Import every team of an event from the Space Apps API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, err := openSink(cmd.Context())
			if err != nil {
				return err
			}
			defer w.Close()

			client := ingest.NewClient(ingest.WithEndpoint(endpoint), ingest.WithEvent(event))
			scraper := ingest.NewScraper(client, w,
				ingest.WithWorkers(workers),
				ingest.WithBatchSize(batchSize),
			)

			sum, err := scraper.Run(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "run %s: saved %d project(s), skipped %d, %d of %d batch(es) failed in %s\n",
				sum.RunID, sum.Saved, sum.Skipped, sum.FailedBatches, sum.Batches, sum.Duration.Round(time.Millisecond))
			return err
		},
	}
	cmd.Flags().StringVar(&endpoint, "endpoint", ingest.DefaultEndpoint, "GraphQL endpoint")
	cmd.Flags().StringVar(&event, "event", ingest.DefaultEvent, "event name to import")
	cmd.Flags().IntVar(&workers, "workers", ingest.DefaultWorkers, "concurrent batch workers")
	cmd.Flags().IntVar(&batchSize, "batch-size", ingest.DefaultBatchSize, "teams per request")
	return cmd
}
