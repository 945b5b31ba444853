package ephemeris

import (
	"context"
	"fmt"
	"math"
	"time"
)

const (
	// ScanStep is the coarse step used to bracket events. The Moon gains
	// about 12 degrees a day on the Sun and the Sun moves about 1 degree a
	// day, so one day never spans two events of the same kind.
	ScanStep = 24 * time.Hour

	// Resolution is the bracket width at which bisection stops.
	Resolution = time.Millisecond

	// AngleTolerance is the residual, in degrees, at which bisection stops.
	AngleTolerance = 1e-7

	maxBisections = 64
)

// Finder locates new moons and solar terms from a Gateway.
type Finder struct {
	gw Gateway
}

// NewFinder returns a Finder over gw.
func NewFinder(gw Gateway) *Finder {
	return &Finder{gw: gw}
}

// Gateway returns the gateway the finder reads.
func (f *Finder) Gateway() Gateway { return f.gw }

// YearBounds returns [Jan 1 00:00 UTC of year, Jan 1 00:00 UTC of year+1).
func YearBounds(year int) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0)
}

// scan walks [start, end) in ScanStep steps from 00:00 UTC of start's day
// and calls visit for every step. visit returns an event time and true
// when it found one in the step.
func scan(ctx context.Context, start, end time.Time, visit func(lo, hi time.Time) (time.Time, bool)) ([]time.Time, error) {
	if !start.Before(end) {
		return nil, fmt.Errorf("empty scan range %s .. %s", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	start, end = start.UTC(), end.UTC()
	lo := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	var found []time.Time
	for lo.Before(end) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hi := lo.Add(ScanStep)
		if t, ok := visit(lo, hi); ok && !t.Before(start) && t.Before(end) {
			if n := len(found); n == 0 || !found[n-1].Equal(t) {
				found = append(found, t)
			}
		}
		lo = hi
	}
	return found, nil
}

// bisect narrows [lo, hi], with f(lo) < 0 <= f(hi), to the zero of f.
func bisect(lo, hi time.Time, f func(time.Time) float64) time.Time {
	for i := 0; i < maxBisections; i++ {
		span := hi.Sub(lo)
		if span < Resolution {
			break
		}
		mid := lo.Add(span / 2)
		v := f(mid)
		if math.Abs(v) < AngleTolerance {
			return mid
		}
		if v < 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo.Add(hi.Sub(lo) / 2)
}
