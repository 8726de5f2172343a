// Command coupon-ingest bulk-imports coupon definitions from gzipped JSONL
// files. Each line holds one definition:
//
//	{"name": "...", "type": "cart-wise", "details": {...}, "expires_at": "..."}
//
// Files are parsed concurrently; a bloom filter skips names that were already
// imported in this run, so re-running over overlapping exports does not
// duplicate coupons.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/coupon-manager/internal/domain/coupon"
	"github.com/xenking/coupon-manager/internal/repository"
)

const (
	bloomCapacity = 1_000_000
	bloomFPR      = 0.001
	progressEvery = 1000
)

type couponLine struct {
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Details   json.RawMessage `json:"details"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
}

func main() {
	var databaseURL string

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if flag.NArg() == 0 {
		slog.Error("at least one .jsonl.gz file is required")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, flag.Args()); err != nil {
		slog.Error("coupon ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("coupon ingest completed successfully")
}

func run(ctx context.Context, databaseURL string, files []string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	return ingest(ctx, repository.NewCouponRepository(pool), files)
}

// ingest fans parsers out per file and funnels their lines into a single
// writer that owns the bloom filter and the repository, so neither needs
// locking. Writer and parsers share one errgroup: a failure on either side
// cancels the other, so no goroutine is left blocked on the channel.
func ingest(ctx context.Context, repo coupon.Repository, files []string) error {
	g, ctx := errgroup.WithContext(ctx)

	lines := make(chan couponLine, 256)

	parsers, parseCtx := errgroup.WithContext(ctx)
	for _, f := range files {
		parsers.Go(parseFile(parseCtx, f, lines))
	}

	g.Go(func() error {
		defer close(lines)
		return parsers.Wait()
	})
	g.Go(func() error {
		return writeCoupons(ctx, repo, lines)
	})

	return g.Wait()
}

func parseFile(ctx context.Context, path string, out chan<- couponLine) func() error {
	return func() error {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, "open %s", path)
		}
		defer func() { _ = f.Close() }()

		gz, err := pgzip.NewReader(f)
		if err != nil {
			return errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()

		var count uint64
		scanner := bufio.NewScanner(gz)
		for scanner.Scan() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var line couponLine
			if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
				return errors.Wrapf(err, "parse line %d of %s", count+1, path)
			}

			select {
			case out <- line:
			case <-ctx.Done():
				return ctx.Err()
			}

			count++
			if count%progressEvery == 0 {
				slog.Info("parse progress", slog.String("file", path), slog.Uint64("lines", count))
			}
		}
		if err := scanner.Err(); err != nil {
			return errors.Wrapf(err, "scan %s", path)
		}

		slog.Info("parse complete", slog.String("file", path), slog.Uint64("lines", count))
		return nil
	}
}

func writeCoupons(ctx context.Context, repo coupon.Repository, lines <-chan couponLine) error {
	seen := bloom.NewWithEstimates(bloomCapacity, bloomFPR)

	var written, skipped uint64
	for line := range lines {
		if seen.TestString(line.Name) {
			skipped++
			continue
		}

		typ := coupon.Type(line.Type)
		details, err := coupon.DecodeDetails(typ, line.Details)
		if err != nil {
			return errors.Wrapf(err, "invalid details for coupon %q", line.Name)
		}

		def := &coupon.Definition{
			Name:      line.Name,
			Type:      typ,
			Details:   details,
			Active:    true,
			ExpiresAt: line.ExpiresAt,
		}
		if err := repo.Create(ctx, def); err != nil {
			return errors.Wrapf(err, "create coupon %q", line.Name)
		}

		seen.AddString(line.Name)
		written++
		if written%progressEvery == 0 {
			slog.Info("write progress", slog.Uint64("written", written), slog.Uint64("skipped", skipped))
		}
	}

	slog.Info("write complete", slog.Uint64("written", written), slog.Uint64("skipped", skipped))
	return nil
}
