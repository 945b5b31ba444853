// Package ephemeristest provides a synthetic gateway with uniform motion,
// so tests can predict event instants exactly.
package ephemeristest

import (
	"math"
	"time"

	"github.com/zapponejosh/lunisolar-api/internal/ephemeris"
)

const (
	// TropicalYear is the Sun's period in days.
	TropicalYear = 365.2422
	// SynodicMonth is the Moon's period relative to the Sun in days.
	SynodicMonth = 29.530589
)

// DefaultEpoch is the 2000 March equinox, used as the instant where both
// bodies sit at longitude 0.
var DefaultEpoch = time.Date(2000, time.March, 20, 7, 35, 0, 0, time.UTC)

// Linear moves the Sun at 360/TropicalYear degrees a day and the Moon at
// 360/SynodicMonth degrees a day ahead of the Sun. Both are at longitude 0
// at Epoch, which is therefore a new moon and a Spring Equinox.
type Linear struct {
	Epoch time.Time
}

// New returns a Linear gateway anchored at DefaultEpoch.
func New() Linear { return Linear{Epoch: DefaultEpoch} }

func (l Linear) days(t time.Time) float64 {
	return float64(t.Sub(l.Epoch)) / float64(24*time.Hour)
}

// Longitude returns the body's longitude in degrees [0, 360) after uniform
// motion since Epoch.
func (l Linear) Longitude(body ephemeris.Body, t time.Time) float64 {
	d := l.days(t)
	sun := 360 / TropicalYear * d
	if body == ephemeris.Moon {
		return wrap(sun + 360/SynodicMonth*d)
	}
	return wrap(sun)
}

// NewMoon returns the k-th new moon after Epoch (negative k for earlier).
func (l Linear) NewMoon(k int) time.Time {
	return l.Epoch.Add(time.Duration(float64(k) * SynodicMonth * float64(24*time.Hour)))
}

// SolarTerm returns the k-th solar-term crossing after Epoch. Its index is
// k modulo 24.
func (l Linear) SolarTerm(k int) time.Time {
	return l.Epoch.Add(time.Duration(float64(k) * TropicalYear / 24 * float64(24*time.Hour)))
}

func wrap(deg float64) float64 {
	r := math.Mod(deg, 360)
	if r < 0 {
		r += 360
	}
	return r
}
