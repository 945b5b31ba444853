package calendar

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zapponejosh/lunisolar-api/internal/ephemeris"
)

// DefaultWorkers is the batch pool size used when none is configured.
const DefaultWorkers = 4

// Converter turns instants into lunisolar dates using events from an
// EventSource.
type Converter struct {
	source  EventSource
	logger  *slog.Logger
	workers int
}

// NewConverter creates a converter. A nil logger discards output and
// workers below 1 fall back to DefaultWorkers.
func NewConverter(source EventSource, logger *slog.Logger, workers int) *Converter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Converter{source: source, logger: logger, workers: workers}
}

// Window builds the event window for an inclusive range of UTC years.
func (c *Converter) Window(ctx context.Context, minYear, maxYear int) (*Window, error) {
	start := time.Now()
	w, err := BuildWindow(ctx, c.source, minYear, maxYear)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("window built",
		"min_year", minYear,
		"max_year", maxYear,
		"new_moons", len(w.NewMoons),
		"periods", len(w.Periods),
		"anchors", w.Anchors(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return w, nil
}

// Convert converts a single instant viewed in loc. A nil loc means
// ReferenceZone.
func (c *Converter) Convert(ctx context.Context, t time.Time, loc *time.Location) (LunisolarDate, error) {
	minYear, maxYear := PlanYears([]time.Time{t}, loc)
	w, err := c.Window(ctx, minYear, maxYear)
	if err != nil {
		return LunisolarDate{}, err
	}
	return w.Resolve(t, loc)
}

// ConvertLocal converts a wall-clock date and time in loc.
func (c *Converter) ConvertLocal(ctx context.Context, date CivilDate, hour, minute int, loc *time.Location) (LunisolarDate, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return LunisolarDate{}, fmt.Errorf("invalid time of day %02d:%02d", hour, minute)
	}
	loc = zoneOrDefault(loc)
	t := time.Date(date.Year, time.Month(date.Month), date.Day, hour, minute, 0, 0, loc)
	return c.Convert(ctx, t, loc)
}

// BatchResult is the outcome of one query in a batch.
type BatchResult struct {
	Instant time.Time
	Date    LunisolarDate
	Err     error
}

// ConvertBatch converts every instant against one shared window. Results
// are returned in input order; a failure in one query does not affect the
// others. If the window cannot be built every result carries that error.
func (c *Converter) ConvertBatch(ctx context.Context, instants []time.Time, loc *time.Location) []BatchResult {
	if len(instants) == 0 {
		return nil
	}

	results := make([]BatchResult, len(instants))
	for i, t := range instants {
		results[i].Instant = t
	}

	minYear, maxYear := PlanYears(instants, loc)
	w, err := c.Window(ctx, minYear, maxYear)
	if err != nil {
		for i := range results {
			results[i].Err = err
		}
		return results
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i := range instants {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Date, results[i].Err = w.Resolve(instants[i], loc)
			return nil
		})
	}
	_ = g.Wait()

	c.logger.Debug("batch converted", "queries", len(instants), "workers", c.workers)
	return results
}

// SolarTermInfo is a solar term with its names and reference-zone date.
type SolarTermInfo struct {
	Index          int           `json:"index"`
	Name           SolarTermName `json:"name"`
	Longitude      float64       `json:"longitude"`
	Instant        time.Time     `json:"instant"`
	Date           CivilDate     `json:"date"`
	Principal      bool          `json:"principal"`
	PrincipalIndex *int          `json:"principal_index,omitempty"`
}

// SolarTermsOfYear lists the solar terms falling in a UTC calendar year.
func (c *Converter) SolarTermsOfYear(ctx context.Context, year int) ([]SolarTermInfo, error) {
	terms, err := c.source.SolarTerms(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("solar terms for %d: %w", year, err)
	}
	return describeTerms(terms), nil
}

func describeTerms(terms []ephemeris.SolarTerm) []SolarTermInfo {
	out := make([]SolarTermInfo, 0, len(terms))
	for _, st := range terms {
		info := SolarTermInfo{
			Index:     st.Index,
			Name:      SolarTermNames[st.Index],
			Longitude: st.Longitude(),
			Instant:   st.Instant.UTC(),
			Date:      CivilDateOf(st.Instant, ReferenceZone),
			Principal: st.Principal(),
		}
		if idx, ok := PrincipalIndex(st.Index); ok {
			info.PrincipalIndex = &idx
		}
		out = append(out, info)
	}
	return out
}

// MonthTable lists the months of a lunar year.
func (c *Converter) MonthTable(ctx context.Context, lunarYear int) ([]MonthInfo, error) {
	w, err := c.Window(ctx, lunarYear-1, lunarYear+1)
	if err != nil {
		return nil, err
	}
	return w.MonthTable(lunarYear)
}
