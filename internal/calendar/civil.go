// Package calendar converts instants into East-Asian lunisolar dates.
//
// The package builds lunar months from new-moon instants, tags them with the
// principal solar terms they contain, numbers them outward from the Winter
// Solstice month and derives the four sexagenary pillars. Astronomical
// events come from an EventSource; see the ephemeris package.
package calendar

import (
	"fmt"
	"time"
)

// ReferenceZone is the civil zone used to decide which month a new moon or
// principal term belongs to. It is fixed by the calendar (China Standard
// Time) and independent of the zone a query is made in.
var ReferenceZone = time.FixedZone("CST", 8*60*60)

// CivilDate is a proleptic Gregorian calendar date with no time of day.
type CivilDate struct {
	Year  int
	Month int
	Day   int
}

// DayNumber returns the number of days between 1970-01-01 and y-m-d.
//
// The algorithm works on 400-year eras with the year starting in March, so
// it needs no leap-year branches and is exact for every proleptic date.
func DayNumber(y, m, d int) int64 {
	yy := int64(y)
	if m <= 2 {
		yy--
	}
	era := floorDiv(yy, 400)
	yoe := yy - era*400 // [0, 399]
	mp := int64(m+9) % 12
	doy := (153*mp+2)/5 + int64(d) - 1    // [0, 365]
	doe := yoe*365 + yoe/4 - yoe/100 + doy // [0, 146096]
	return era*146097 + doe - 719468
}

// FromDayNumber is the inverse of DayNumber.
func FromDayNumber(n int64) CivilDate {
	z := n + 719468
	era := floorDiv(z, 146097)
	doe := z - era*146097                                  // [0, 146096]
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365 // [0, 399]
	doy := doe - (365*yoe + yoe/4 - yoe/100)               // [0, 365]
	mp := (5*doy + 2) / 153                                // [0, 11]
	d := doy - (153*mp+2)/5 + 1
	m := mp + 3
	if m > 12 {
		m -= 12
	}
	y := yoe + era*400
	if m <= 2 {
		y++
	}
	return CivilDate{Year: int(y), Month: int(m), Day: int(d)}
}

// CivilDateOf returns the wall-clock date of t in loc.
func CivilDateOf(t time.Time, loc *time.Location) CivilDate {
	y, m, d := t.In(loc).Date()
	return CivilDate{Year: y, Month: int(m), Day: d}
}

// DayNumber returns the day number of the date.
func (c CivilDate) DayNumber() int64 {
	return DayNumber(c.Year, c.Month, c.Day)
}

// AddDays returns the date n days later (or earlier for negative n).
func (c CivilDate) AddDays(n int) CivilDate {
	return FromDayNumber(c.DayNumber() + int64(n))
}

// Compare returns -1, 0 or 1 as c is before, equal to or after o.
func (c CivilDate) Compare(o CivilDate) int {
	return Compare(c, o)
}

// String formats the date as YYYY-MM-DD.
func (c CivilDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", c.Year, c.Month, c.Day)
}

// MarshalText implements encoding.TextMarshaler.
func (c CivilDate) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *CivilDate) UnmarshalText(b []byte) error {
	d, err := ParseCivilDate(string(b))
	if err != nil {
		return err
	}
	*c = d
	return nil
}

// Compare orders two civil dates.
func Compare(a, b CivilDate) int {
	switch {
	case a.Year != b.Year:
		return sign(a.Year - b.Year)
	case a.Month != b.Month:
		return sign(a.Month - b.Month)
	default:
		return sign(a.Day - b.Day)
	}
}

// InRange reports whether start <= target < end.
func InRange(target, start, end CivilDate) bool {
	return Compare(start, target) <= 0 && Compare(target, end) < 0
}

// ParseCivilDate parses a date in YYYY-MM-DD format.
func ParseCivilDate(s string) (CivilDate, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return CivilDate{}, fmt.Errorf("parse civil date %q: %w", s, err)
	}
	return CivilDate{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}, nil
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
