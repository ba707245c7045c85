// Command client-import bulk loads clients from gzipped CSV files.
//
// Each file holds "name,phone" rows, optionally preceded by a header. A phone
// that appears more than once across all files is imported once, from its
// first occurrence; later occurrences are reported and skipped.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"

	"github.com/aexfood/orders/internal/storage/postgres"
)

func main() {
	var (
		databaseURL string
		opts        importOptions
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.UintVar(&opts.expected, "expected", 1_000_000, "expected number of rows, sizes the bloom filter")
	flag.Float64Var(&opts.fpr, "fpr", 0.001, "bloom filter false positive rate")
	flag.IntVar(&opts.workers, "workers", 8, "concurrent upserts")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "validate and report without writing")
	flag.Parse()

	opts.files = flag.Args()
	if len(opts.files) == 0 {
		slog.Error("usage: client-import [flags] clients1.csv.gz [clients2.csv.gz ...]")
		os.Exit(2)
	}

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" && !opts.dryRun {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, opts); err != nil {
		slog.Error("client import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("client import completed successfully")
}

func run(ctx context.Context, databaseURL string, opts importOptions) error {
	for _, f := range opts.files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	var sink upserter = discard{}
	if !opts.dryRun {
		slog.Info("connecting to database")

		pool, err := postgres.NewPool(ctx, databaseURL)
		if err != nil {
			return errors.Wrap(err, "connect to database")
		}
		defer pool.Close()

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}
		sink = postgres.NewClientRepository(pool)
	}

	stats, err := importClients(ctx, sink, opts)
	if err != nil {
		return err
	}

	slog.Info("import summary",
		slog.Int64("rows", stats.rows),
		slog.Int64("inserted", stats.inserted),
		slog.Int64("updated", stats.updated),
		slog.Int64("duplicates", stats.duplicates),
		slog.Int64("invalid", stats.invalid),
	)
	return nil
}
