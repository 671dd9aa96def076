// Command catalog-ingest bulk-loads the product catalog from gzipped CSV
// exports (id,name,price,description,image). Files are parsed concurrently;
// a bloom filter screens cross-file duplicates cheaply before the exact
// check, and the last occurrence of an id wins.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/andiko/storefront/internal/domain/product"
	"github.com/andiko/storefront/internal/storage/postgres"
)

const (
	bloomCapacity = 1_000_000
	bloomFPR      = 0.001
	csvFields     = 5
)

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing catalog*.csv.gz files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL); err != nil {
		slog.Error("catalog ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "catalog*.csv.gz"))
	if err != nil {
		return errors.Wrap(err, "glob catalog files")
	}
	if len(files) == 0 {
		return errors.Errorf("no catalog*.csv.gz files in %s", dataDir)
	}

	slog.Info("parsing catalog files", slog.Int("files", len(files)))

	parsed := make([][]product.Product, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			rows, err := parseFile(gctx, f)
			if err != nil {
				return errors.Wrapf(err, "parse %s", f)
			}
			parsed[i] = rows
			slog.Info("parsed file", slog.String("file", f), slog.Int("rows", len(rows)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Merge in file order. The filter answers "seen before?" without holding
	// every id in a comparison set; a positive is confirmed in the exact map.
	filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
	merged := make([]product.Product, 0)
	index := make(map[string]int)
	var dupes int
	for _, rows := range parsed {
		for _, p := range rows {
			if filter.TestString(p.ID) {
				if at, ok := index[p.ID]; ok {
					merged[at] = p
					dupes++
					continue
				}
			}
			filter.AddString(p.ID)
			index[p.ID] = len(merged)
			merged = append(merged, p)
		}
	}

	slog.Info("merged catalog", slog.Int("products", len(merged)), slog.Int("duplicates", dupes))

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	repo := postgres.NewProductRepository(pool)
	for _, p := range merged {
		if err := repo.Upsert(ctx, p); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}
	}

	return nil
}

// parseFile streams one gzipped CSV file into product rows.
func parseFile(ctx context.Context, path string) ([]product.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}
	defer f.Close()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return nil, errors.Wrap(err, "gzip reader")
	}
	defer gz.Close()

	r := csv.NewReader(gz)
	r.FieldsPerRecord = csvFields

	var products []product.Product
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return products, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "read record")
		}
		if rec[0] == "id" {
			continue // header row
		}

		price, err := decimal.NewFromString(rec[2])
		if err != nil || price.IsNegative() {
			return nil, errors.Errorf("invalid price %q for product %s", rec[2], rec[0])
		}

		products = append(products, product.Product{
			ID:          rec[0],
			Name:        rec[1],
			Price:       price,
			Description: rec[3],
			Image:       rec[4],
		})
	}
}
