// Command precompute fills the SQLite event cache with new moons and solar
// terms for a range of years.
//
// Usage:
//
//	go run ./cmd/precompute -from 1900 -to 2100 -db data/ephemeris.db
//
// This tool:
// 1. Creates/opens the SQLite database
// 2. Runs migrations to ensure schema is current
// 3. Computes the events of every year not yet cached (or all, with -force)
// 4. Stores each year in its own transaction
//
// Running it twice is cheap: cached years are skipped.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zapponejosh/lunisolar-api/internal/calendar"
	"github.com/zapponejosh/lunisolar-api/internal/database"
	"github.com/zapponejosh/lunisolar-api/internal/ephemeris"
)

// Options controls one precompute run.
type Options struct {
	From, To int
	DBPath   string
	Force    bool
	Workers  int
}

// Stats tracks precompute statistics.
type Stats struct {
	Computed   int
	Skipped    int
	NewMoons   int
	SolarTerms int
}

func main() {
	// Parse command line flags
	now := time.Now().Year()
	opts := Options{}
	flag.IntVar(&opts.From, "from", now-50, "First year to compute")
	flag.IntVar(&opts.To, "to", now+50, "Last year to compute (inclusive)")
	flag.StringVar(&opts.DBPath, "db", "data/ephemeris.db", "Path to SQLite database")
	flag.BoolVar(&opts.Force, "force", false, "Recompute years that are already cached")
	flag.IntVar(&opts.Workers, "workers", 4, "Years computed concurrently")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	// Setup logger
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, ephemeris.NewMemo(ephemeris.NewMeeus()), logger); err != nil {
		logger.Error("precompute failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("precompute complete")
}

func run(ctx context.Context, opts Options, gw ephemeris.Gateway, logger *slog.Logger) error {
	if opts.To < opts.From {
		return fmt.Errorf("-to %d is before -from %d", opts.To, opts.From)
	}
	if opts.Workers < 1 {
		return errors.New("-workers must be at least 1")
	}
	startTime := time.Now()

	// =========================================================================
	// Step 1: Open database and run migrations
	// =========================================================================
	logger.Info("opening database", slog.String("path", opts.DBPath))

	db, err := database.Open(database.DefaultConfig(opts.DBPath), logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	migrated, err := db.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("migrations complete", slog.Int("applied", migrated))

	// =========================================================================
	// Step 2: Compute and store events
	// =========================================================================
	store := database.NewEventStore(db, ephemeris.MeeusProvider)
	stats, err := precompute(ctx, opts, ephemeris.NewFinder(gw), store, logger)
	if err != nil {
		return err
	}

	// =========================================================================
	// Step 3: Verify cache
	// =========================================================================
	cache, err := db.Stats(ctx)
	if err != nil {
		return fmt.Errorf("cache stats: %w", err)
	}

	elapsed := time.Since(startTime)
	logger.Info("cache verified",
		slog.Int("years", cache.Years),
		slog.Int("new_moons", cache.NewMoons),
		slog.Int("solar_terms", cache.SolarTerms),
		slog.Duration("elapsed", elapsed),
	)

	// Print summary
	fmt.Println()
	fmt.Println("=== Precompute Summary ===")
	fmt.Printf("Years requested:     %d..%d\n", opts.From, opts.To)
	fmt.Printf("Years computed:      %d\n", stats.Computed)
	fmt.Printf("Years skipped:       %d\n", stats.Skipped)
	fmt.Printf("New moons stored:    %d\n", stats.NewMoons)
	fmt.Printf("Solar terms stored:  %d\n", stats.SolarTerms)
	fmt.Printf("Years in cache:      %d\n", cache.Years)
	fmt.Printf("Time elapsed:        %v\n", elapsed.Round(time.Millisecond))

	return nil
}

// precompute computes missing years concurrently and saves them in year
// order, one transaction per year.
func precompute(ctx context.Context, opts Options, src calendar.EventSource, store calendar.EventStore, logger *slog.Logger) (Stats, error) {
	var (
		stats   Stats
		pending []int
	)
	for y := opts.From; y <= opts.To; y++ {
		if !opts.Force {
			_, found, err := store.LoadYear(ctx, y)
			if err != nil {
				return stats, fmt.Errorf("check year %d: %w", y, err)
			}
			if found {
				stats.Skipped++
				continue
			}
		}
		pending = append(pending, y)
	}

	events := make([]calendar.YearEvents, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, y := range pending {
		i, y := i, y
		g.Go(func() error {
			ev, err := calendar.ComputeYear(gctx, src, y)
			if err != nil {
				return fmt.Errorf("compute year %d: %w", y, err)
			}
			events[i] = ev
			logger.Debug("year computed",
				slog.Int("year", y),
				slog.Int("new_moons", len(ev.NewMoons)),
				slog.Int("solar_terms", len(ev.SolarTerms)),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}

	for i, ev := range events {
		if err := store.SaveYear(ctx, ev); err != nil {
			return stats, fmt.Errorf("save year %d: %w", ev.Year, err)
		}
		stats.Computed++
		stats.NewMoons += len(ev.NewMoons)
		stats.SolarTerms += len(ev.SolarTerms)

		// Progress logging every 25 years
		if (i+1)%25 == 0 {
			logger.Info("precompute progress",
				slog.Int("saved", i+1),
				slog.Int("total", len(events)),
			)
		}
	}

	return stats, nil
}
