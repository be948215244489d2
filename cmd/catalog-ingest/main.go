package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	"github.com/xenking/fzokart/internal/storage/postgres"
)

func main() {
	var (
		dataDir     string
		pattern     string
		databaseURL string
		capacity    uint
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing gzipped NDJSON catalog files")
	flag.StringVar(&pattern, "pattern", "*.ndjson.gz", "glob selecting catalog files inside data-dir")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.UintVar(&capacity, "bloom-capacity", 10_000_000, "expected number of product ids per file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}

	app.Run(func(ctx context.Context, lg *zap.Logger, _ *app.Telemetry) error {
		if databaseURL == "" {
			return errors.New("database URL is required: set --database-url or DATABASE_URL")
		}

		files, err := filepath.Glob(filepath.Join(dataDir, pattern))
		if err != nil {
			return errors.Wrap(err, "glob catalog files")
		}
		if len(files) == 0 {
			return errors.Errorf("no files match %s in %s", pattern, dataDir)
		}
		// Later files win on duplicate ids, so the order must be stable.
		sort.Strings(files)

		lg.Info("Connecting to database")
		pool, err := postgres.NewPool(ctx, databaseURL)
		if err != nil {
			return errors.Wrap(err, "connect to database")
		}
		defer pool.Close()

		ing := &ingester{
			lg:       lg,
			repo:     postgres.NewProductRepository(pool),
			capacity: capacity,
		}
		stats, err := ing.Run(ctx, files)
		if err != nil {
			return errors.Wrap(err, "catalog ingest")
		}

		lg.Info("Catalog ingest completed",
			zap.Int("files", len(files)),
			zap.Uint64("lines", stats.Lines),
			zap.Uint64("rejected", stats.Rejected),
			zap.Uint64("written", stats.Written),
			zap.Int("duplicate_candidates", stats.Candidates),
		)
		return nil
	})
}
