package calendar

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/zapponejosh/lunisolar-api/internal/ephemeris"
)

// EventSource supplies the astronomical events of one UTC calendar year.
// ephemeris.Finder computes them; CachingSource adds persistence.
type EventSource interface {
	NewMoons(ctx context.Context, year int) ([]time.Time, error)
	SolarTerms(ctx context.Context, year int) ([]ephemeris.SolarTerm, error)
}

// PlanYears returns the UTC year range whose events cover every query:
// one year either side of the queries' local civil years.
func PlanYears(instants []time.Time, loc *time.Location) (minYear, maxYear int) {
	if len(instants) == 0 {
		return 0, 0
	}
	loc = zoneOrDefault(loc)

	minYear = instants[0].In(loc).Year()
	maxYear = minYear
	for _, t := range instants[1:] {
		y := t.In(loc).Year()
		if y < minYear {
			minYear = y
		}
		if y > maxYear {
			maxYear = y
		}
	}
	return minYear - 1, maxYear + 1
}

// YearSpan returns how many civil years of loc the instants cover, first
// to last inclusive, or 0 when there are none.
func YearSpan(instants []time.Time, loc *time.Location) int {
	if len(instants) == 0 {
		return 0
	}
	minYear, maxYear := PlanYears(instants, loc)
	return maxYear - minYear - 1
}

// Window holds every event and month period for a range of years. It is
// built once and only read afterwards, so one Window may serve concurrent
// queries.
type Window struct {
	MinYear int
	MaxYear int

	NewMoons   []time.Time
	SolarTerms []ephemeris.SolarTerm
	Terms      []PrincipalTerm
	Periods    []MonthPeriod // tagged and numbered

	anchors     []int // period index of each Winter Solstice month
	anchorYears []int // reference-zone year of each of those solstices
}

// BuildWindow gathers events for [minYear, maxYear] from src and prepares
// the month numbering for every Winter Solstice in range.
func BuildWindow(ctx context.Context, src EventSource, minYear, maxYear int) (*Window, error) {
	const op = "calendar.BuildWindow"

	if minYear > maxYear {
		return nil, fmt.Errorf("invalid year range %d..%d", minYear, maxYear)
	}

	w := &Window{MinYear: minYear, MaxYear: maxYear}
	for year := minYear; year <= maxYear; year++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		moons, err := src.NewMoons(ctx, year)
		if err != nil {
			return nil, fmt.Errorf("new moons for %d: %w", year, err)
		}
		terms, err := src.SolarTerms(ctx, year)
		if err != nil {
			return nil, fmt.Errorf("solar terms for %d: %w", year, err)
		}
		w.NewMoons = append(w.NewMoons, moons...)
		w.SolarTerms = append(w.SolarTerms, terms...)
	}

	w.NewMoons = dedupeInstants(w.NewMoons)
	sort.SliceStable(w.SolarTerms, func(i, j int) bool {
		return w.SolarTerms[i].Instant.Before(w.SolarTerms[j].Instant)
	})

	if len(w.NewMoons) < 2 {
		return nil, newError(KindInsufficientWindow, op, w,
			fmt.Errorf("%d new moons: %w", len(w.NewMoons), ErrInsufficientWindow))
	}

	for _, st := range w.SolarTerms {
		if pt, ok := NewPrincipalTerm(st.Instant, st.Index); ok {
			w.Terms = append(w.Terms, pt)
		}
	}

	w.Periods = BuildMonthPeriods(w.NewMoons)
	if _, err := TagPrincipalTerms(w.Periods, w.Terms); err != nil {
		var ce *ConversionError
		if errors.As(err, &ce) {
			ce.MinYear, ce.MaxYear = minYear, maxYear
		}
		return nil, err
	}

	for _, term := range w.Terms {
		if term.Index != WinterSolsticeTerm {
			continue
		}
		idx, ok := w.monthStarting(term.Date)
		if !ok || (len(w.anchors) > 0 && idx == w.anchors[len(w.anchors)-1]) {
			continue
		}
		w.anchors = append(w.anchors, idx)
		w.anchorYears = append(w.anchorYears, term.Date.Year)
	}
	if len(w.anchors) == 0 {
		return nil, newError(KindInsufficientWindow, op, w,
			fmt.Errorf("no winter solstice inside %s .. %s: %w",
				w.Periods[0].StartDate, w.Periods[len(w.Periods)-1].EndDate, ErrInsufficientWindow))
	}
	if err := AssignMonthNumbers(w.Periods, w.anchors); err != nil {
		return nil, newError(KindAmbiguousTermAssignment, op, w, fmt.Errorf("number months: %w", err))
	}
	return w, nil
}

// Covers reports whether the window's years include [minYear, maxYear].
func (w *Window) Covers(minYear, maxYear int) bool {
	return w.MinYear <= minYear && maxYear <= w.MaxYear
}

// Anchors returns the reference-zone years of the Winter Solstices that
// anchor month numbering, ascending.
func (w *Window) Anchors() []int {
	return append([]int(nil), w.anchorYears...)
}

// monthStarting returns the index of the period that opens with the last new
// moon on or before date, in the reference zone. The index equals
// len(w.Periods) when that new moon is the last one known and date lies
// within a lunation of it.
func (w *Window) monthStarting(date CivilDate) (int, bool) {
	n := sort.Search(len(w.NewMoons), func(i int) bool {
		return CivilDateOf(w.NewMoons[i], ReferenceZone).Compare(date) > 0
	})
	idx := n - 1
	if idx < 0 {
		return 0, false
	}
	if idx == len(w.Periods) {
		opened := CivilDateOf(w.NewMoons[idx], ReferenceZone)
		if date.DayNumber()-opened.DayNumber() >= 30 {
			return 0, false
		}
	}
	return idx, true
}

// dedupeInstants sorts instants and drops any closer than a second to the
// previous one, which is how the same event reported by two adjacent years
// would appear.
func dedupeInstants(in []time.Time) []time.Time {
	out := make([]time.Time, len(in))
	copy(out, in)
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })

	n := 0
	for i, t := range out {
		if i > 0 && t.Sub(out[n-1]) < time.Second {
			continue
		}
		out[n] = t.UTC()
		n++
	}
	return out[:n]
}

func zoneOrDefault(loc *time.Location) *time.Location {
	if loc == nil {
		return ReferenceZone
	}
	return loc
}
