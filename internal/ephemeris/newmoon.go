package ephemeris

import (
	"context"
	"fmt"
	"time"
)

// Elongation returns Moon - Sun longitude mapped to (-180, 180].
func (f *Finder) Elongation(t time.Time) float64 {
	return norm180(f.gw.Longitude(Moon, t) - f.gw.Longitude(Sun, t))
}

// NewMoonsBetween returns the new moons in [start, end), sorted.
//
// A new moon is where the elongation passes from negative to non-negative;
// the positive-to-negative wrap at full moon is never mistaken for one.
func (f *Finder) NewMoonsBetween(ctx context.Context, start, end time.Time) ([]time.Time, error) {
	moons, err := scan(ctx, start, end, func(lo, hi time.Time) (time.Time, bool) {
		e0, e1 := f.Elongation(lo), f.Elongation(hi)
		if e0 >= 0 || e1 < 0 {
			return time.Time{}, false
		}
		return bisect(lo, hi, f.Elongation), true
	})
	if err != nil {
		return nil, fmt.Errorf("find new moons: %w", err)
	}
	return moons, nil
}

// NewMoons returns the new moons of a UTC calendar year.
func (f *Finder) NewMoons(ctx context.Context, year int) ([]time.Time, error) {
	start, end := YearBounds(year)
	return f.NewMoonsBetween(ctx, start, end)
}
