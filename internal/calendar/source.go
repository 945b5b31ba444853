package calendar

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/zapponejosh/lunisolar-api/internal/ephemeris"
)

// YearEvents is everything an EventSource reports for one UTC year.
type YearEvents struct {
	Year       int
	NewMoons   []time.Time
	SolarTerms []ephemeris.SolarTerm
}

// EventStore persists computed years. database.DB implements it.
type EventStore interface {
	// LoadYear returns the stored events of a year; found is false when the
	// year has not been stored.
	LoadYear(ctx context.Context, year int) (ev YearEvents, found bool, err error)
	SaveYear(ctx context.Context, ev YearEvents) error
}

// CachingSource serves years from an EventStore and computes missing ones
// from an underlying EventSource, storing the result. Stored instants are
// exact, so cached and computed years are indistinguishable.
type CachingSource struct {
	next   EventSource
	store  EventStore
	logger *slog.Logger

	// Serialises computation per year so concurrent callers do not scan the
	// same year twice.
	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

// NewCachingSource wraps next with store. A nil logger discards output.
func NewCachingSource(next EventSource, store EventStore, logger *slog.Logger) *CachingSource {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &CachingSource{
		next:   next,
		store:  store,
		logger: logger,
		locks:  make(map[int]*sync.Mutex),
	}
}

// NewMoons returns the new moons of a UTC year, loading the whole year from
// the store or computing and saving it on a miss.
func (s *CachingSource) NewMoons(ctx context.Context, year int) ([]time.Time, error) {
	ev, err := s.Year(ctx, year)
	if err != nil {
		return nil, err
	}
	return ev.NewMoons, nil
}

// SolarTerms returns the solar terms of a UTC year. It shares the year
// entry with NewMoons.
func (s *CachingSource) SolarTerms(ctx context.Context, year int) ([]ephemeris.SolarTerm, error) {
	ev, err := s.Year(ctx, year)
	if err != nil {
		return nil, err
	}
	return ev.SolarTerms, nil
}

// Year returns the events of a year, computing and storing them on a miss.
func (s *CachingSource) Year(ctx context.Context, year int) (YearEvents, error) {
	lock := s.yearLock(year)
	lock.Lock()
	defer lock.Unlock()

	ev, found, err := s.store.LoadYear(ctx, year)
	if err != nil {
		return YearEvents{}, fmt.Errorf("load cached year %d: %w", year, err)
	}
	if found {
		return ev, nil
	}

	ev, err = ComputeYear(ctx, s.next, year)
	if err != nil {
		return YearEvents{}, err
	}
	if err := s.store.SaveYear(ctx, ev); err != nil {
		return YearEvents{}, fmt.Errorf("store year %d: %w", year, err)
	}

	s.logger.Debug("ephemeris year cached",
		"year", year,
		"new_moons", len(ev.NewMoons),
		"solar_terms", len(ev.SolarTerms),
	)
	return ev, nil
}

func (s *CachingSource) yearLock(year int) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[year]
	if !ok {
		l = &sync.Mutex{}
		s.locks[year] = l
	}
	return l
}

// ComputeYear asks src for both kinds of events of a year.
func ComputeYear(ctx context.Context, src EventSource, year int) (YearEvents, error) {
	moons, err := src.NewMoons(ctx, year)
	if err != nil {
		return YearEvents{}, fmt.Errorf("new moons for %d: %w", year, err)
	}
	terms, err := src.SolarTerms(ctx, year)
	if err != nil {
		return YearEvents{}, fmt.Errorf("solar terms for %d: %w", year, err)
	}
	return YearEvents{Year: year, NewMoons: moons, SolarTerms: terms}, nil
}
