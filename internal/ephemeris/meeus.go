package ephemeris

import (
	"time"

	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/moonposition"
	"github.com/soniakeys/meeus/v3/nutation"
	"github.com/soniakeys/meeus/v3/solar"
	"github.com/soniakeys/unit"
)

// Meeus computes apparent longitudes with the algorithms from Jean Meeus,
// Astronomical Algorithms (2nd ed.). Solar longitude is accurate to about
// 0.01 degree and lunar longitude to about 10 arc seconds, which places new
// moons and solar terms within a couple of minutes.
type Meeus struct{}

// MeeusProvider tags events computed by Meeus in the event cache.
const MeeusProvider = "meeus"

// NewMeeus returns the Meeus gateway.
func NewMeeus() Meeus { return Meeus{} }

// Longitude returns the apparent geocentric ecliptic longitude of body at t
// in degrees [0, 360), referred to the true equinox of date. Unknown bodies
// yield 0.
func (Meeus) Longitude(body Body, t time.Time) float64 {
	jde := JDE(t)
	switch body {
	case Sun:
		return norm360(solar.ApparentLongitude(base.J2000Century(jde)).Deg())
	case Moon:
		lon, _, _ := moonposition.Position(jde)
		dpsi, _ := nutation.Nutation(jde)
		var apparent unit.Angle = lon + dpsi
		return norm360(apparent.Deg())
	}
	return 0
}

// JD returns the Julian day (UT) of an instant.
func JD(t time.Time) float64 {
	return julian.TimeToJD(t)
}

// JDE returns the Julian ephemeris day (TT) of an instant.
func JDE(t time.Time) float64 {
	return JD(t) + DeltaT(t)/86400
}
