package ephemeris

import (
	"time"

	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/deltat"
	"github.com/soniakeys/meeus/v3/julian"
)

// DeltaT returns TT - UT in seconds for an instant.
//
// Most ranges use the deltat package: the polynomials of Meeus chapter 10
// before 1600 and after 2150, and Table 10.A from 1620 to 2010. Two ranges
// are local:
//
//   - 1600..1620 lies between Poly948to1600 and the table, which disagree
//     by about 22 s, so the two ends are joined linearly.
//   - 2010..2150 uses the Espenak and Meeus fit. PolyAfter2000 runs about
//     20 s above observed values in the 2010s and 2020s, enough to move
//     events across midnight.
func DeltaT(t time.Time) float64 {
	u := t.UTC()
	y := float64(u.Year()) + (float64(u.Month())-0.5)/12
	switch {
	case y < 948:
		return deltat.PolyBefore948(y).Sec()
	case y < 1600:
		return deltat.Poly948to1600(y).Sec()
	case u.Year() < 1620:
		return bridge1600to1620(y)
	case u.Year() < 2010:
		return deltat.Interp10A(julian.TimeToJD(u)).Sec()
	case y < 2150:
		return espenakAfter2010(y)
	default:
		return deltat.PolyAfter2000(y).Sec()
	}
}

func bridge1600to1620(y float64) float64 {
	from := deltat.Poly948to1600(1600).Sec()
	to := deltat.Interp10A(julian.CalendarGregorianToJD(1620, 1, 1)).Sec()
	return from + (to-from)*(y-1600)/20
}

func espenakAfter2010(y float64) float64 {
	if y < 2050 {
		return base.Horner(y-2000, 62.92, 0.32217, 0.005589)
	}
	u := (y - 1820) / 100
	return -20 + 32*u*u - 0.5628*(2150-y)
}
