package ephemeris

import (
	"context"
	"fmt"
	"math"
	"time"
)

// SolarTerm is the instant the Sun's apparent longitude reaches 15*Index
// degrees. Even indices are principal terms.
type SolarTerm struct {
	Instant time.Time `json:"instant"`
	Index   int       `json:"index"`
}

// Principal reports whether the term is one of the twelve principal terms.
func (s SolarTerm) Principal() bool { return s.Index%2 == 0 }

// Longitude returns the term's ecliptic longitude in degrees.
func (s SolarTerm) Longitude() float64 { return float64(s.Index) * 15 }

func (f *Finder) sector(t time.Time) int {
	return int(math.Floor(f.gw.Longitude(Sun, t)/15)) % 24
}

// SolarTermsBetween returns the solar terms in [start, end), sorted.
func (f *Finder) SolarTermsBetween(ctx context.Context, start, end time.Time) ([]SolarTerm, error) {
	indices := make(map[int64]int)
	instants, err := scan(ctx, start, end, func(lo, hi time.Time) (time.Time, bool) {
		s0, s1 := f.sector(lo), f.sector(hi)
		if s0 == s1 {
			return time.Time{}, false
		}
		target := float64(s1) * 15
		t := bisect(lo, hi, func(t time.Time) float64 {
			return norm180(f.gw.Longitude(Sun, t) - target)
		})
		indices[t.UnixNano()] = s1
		return t, true
	})
	if err != nil {
		return nil, fmt.Errorf("find solar terms: %w", err)
	}

	terms := make([]SolarTerm, len(instants))
	for i, t := range instants {
		terms[i] = SolarTerm{Instant: t, Index: indices[t.UnixNano()]}
	}
	return terms, nil
}

// SolarTerms returns the solar terms of a UTC calendar year.
func (f *Finder) SolarTerms(ctx context.Context, year int) ([]SolarTerm, error) {
	start, end := YearBounds(year)
	return f.SolarTermsBetween(ctx, start, end)
}
