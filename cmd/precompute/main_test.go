package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/zapponejosh/lunisolar-api/internal/database"
	"github.com/zapponejosh/lunisolar-api/internal/ephemeris"
	"github.com/zapponejosh/lunisolar-api/internal/ephemeris/ephemeristest"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var errNoEvents = errors.New("no events")

// failingSource fails every request, so any year it is asked for shows up
// as an error.
type failingSource struct{}

func (failingSource) NewMoons(context.Context, int) ([]time.Time, error) { return nil, errNoEvents }
func (failingSource) SolarTerms(context.Context, int) ([]ephemeris.SolarTerm, error) {
	return nil, errNoEvents
}

func TestRunSkipsCachedYears(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")
	opts := Options{From: 2001, To: 2003, DBPath: path, Workers: 2}

	if err := run(ctx, opts, ephemeristest.New(), quietLogger()); err != nil {
		t.Fatalf("first run: %v", err)
	}

	db, err := database.Open(database.DefaultConfig(path), quietLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	years, err := db.ListCachedYears(ctx)
	if err != nil {
		t.Fatalf("ListCachedYears: %v", err)
	}
	if len(years) != 3 {
		t.Fatalf("cached %d years, want 3", len(years))
	}
	for _, y := range years {
		if y.NewMoonCount < 12 || y.SolarTermCount != 24 {
			t.Errorf("year %d: %d new moons, %d terms", y.Year, y.NewMoonCount, y.SolarTermCount)
		}
	}

	store := database.NewEventStore(db, "meeus")
	stats, err := precompute(ctx, Options{From: 2002, To: 2004, Workers: 1}, failingSource{}, store, quietLogger())
	if !errors.Is(err, errNoEvents) {
		t.Fatalf("err = %v, want the source failure for 2004", err)
	}
	if stats.Skipped != 2 {
		t.Errorf("skipped %d, want 2", stats.Skipped)
	}
}

func TestRunForceRecomputes(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	for i := 0; i < 2; i++ {
		opts := Options{From: 2005, To: 2006, DBPath: path, Workers: 2, Force: i == 1}
		if err := run(ctx, opts, ephemeristest.New(), quietLogger()); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	db, err := database.Open(database.DefaultConfig(path), quietLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	stats, err := db.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Years != 2 || stats.SolarTerms != 48 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRunRejectsBadRange(t *testing.T) {
	opts := Options{From: 2010, To: 2000, DBPath: filepath.Join(t.TempDir(), "x.db"), Workers: 1}
	if err := run(context.Background(), opts, ephemeristest.New(), quietLogger()); err == nil {
		t.Error("reversed range accepted")
	}
}
