package calendar

import (
	"fmt"
	"time"
)

// PrincipalTerm is an even-indexed solar term, the kind that decides month
// numbering.
type PrincipalTerm struct {
	Instant    time.Time `json:"instant"`
	Date       CivilDate `json:"date"`        // reference-zone civil date
	Index      int       `json:"index"`       // 0..11, Winter Solstice = 11
	SolarIndex int       `json:"solar_index"` // 0..23, longitude 15*SolarIndex
}

// NewPrincipalTerm builds a PrincipalTerm from a solar-term instant and solar
// index. ok is false for minor (odd) terms.
func NewPrincipalTerm(instant time.Time, solarIndex int) (PrincipalTerm, bool) {
	idx, ok := PrincipalIndex(solarIndex)
	if !ok {
		return PrincipalTerm{}, false
	}
	return PrincipalTerm{
		Instant:    instant.UTC(),
		Date:       CivilDateOf(instant, ReferenceZone),
		Index:      idx,
		SolarIndex: solarIndex,
	}, true
}

// MonthPeriod is the span between two consecutive new moons.
type MonthPeriod struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	StartDate CivilDate `json:"start_date"` // reference zone
	EndDate   CivilDate `json:"end_date"`   // reference zone, exclusive

	HasPrincipalTerm bool  `json:"has_principal_term"`
	PrincipalTerms   []int `json:"principal_terms,omitempty"`

	// Set by AssignMonthNumbers. Zero outside the solstice anchors.
	MonthNumber int  `json:"month_number"`
	IsLeap      bool `json:"is_leap"`
}

// Days returns the number of civil days in the period (29 or 30).
func (p MonthPeriod) Days() int {
	return int(p.EndDate.DayNumber() - p.StartDate.DayNumber())
}

// Contains reports whether the civil date falls in the period.
func (p MonthPeriod) Contains(date CivilDate) bool {
	return InRange(date, p.StartDate, p.EndDate)
}

// BuildMonthPeriods turns n sorted new moons into n-1 contiguous periods.
func BuildMonthPeriods(newMoons []time.Time) []MonthPeriod {
	if len(newMoons) < 2 {
		return nil
	}

	periods := make([]MonthPeriod, 0, len(newMoons)-1)
	for i := 0; i+1 < len(newMoons); i++ {
		start, end := newMoons[i].UTC(), newMoons[i+1].UTC()
		periods = append(periods, MonthPeriod{
			Start:     start,
			End:       end,
			StartDate: CivilDateOf(start, ReferenceZone),
			EndDate:   CivilDateOf(end, ReferenceZone),
		})
	}
	return periods
}

// TagPrincipalTerms marks each period with the principal terms whose
// reference-zone civil date falls inside it. Terms outside the instant span
// covered by the periods are ignored. It returns, for each term, the index
// of the period it was tagged into (-1 when ignored).
func TagPrincipalTerms(periods []MonthPeriod, terms []PrincipalTerm) ([]int, error) {
	const op = "calendar.TagPrincipalTerms"

	owners := make([]int, len(terms))
	if len(periods) == 0 {
		for i := range owners {
			owners[i] = -1
		}
		return owners, nil
	}

	first, last := periods[0].Start, periods[len(periods)-1].End
	for i, term := range terms {
		owners[i] = -1
		if term.Instant.Before(first) || !term.Instant.Before(last) {
			continue
		}

		match := -1
		for j := range periods {
			if !periods[j].Contains(term.Date) {
				continue
			}
			if match >= 0 {
				return nil, &ConversionError{
					Kind:    KindAmbiguousTermAssignment,
					Op:      op,
					Instant: term.Instant,
					Err:     fmt.Errorf("term %d on %s matches periods %d and %d: %w", term.SolarIndex, term.Date, match, j, ErrAmbiguousTermAssignment),
				}
			}
			match = j
		}
		if match < 0 {
			return nil, &ConversionError{
				Kind:    KindAmbiguousTermAssignment,
				Op:      op,
				Instant: term.Instant,
				Err:     fmt.Errorf("term %d on %s matches no period: %w", term.SolarIndex, term.Date, ErrAmbiguousTermAssignment),
			}
		}

		owners[i] = match
		periods[match].HasPrincipalTerm = true
		periods[match].PrincipalTerms = append(periods[match].PrincipalTerms, term.Index)
	}
	return owners, nil
}

// AssignMonthNumbers numbers the periods lying between consecutive Winter
// Solstice months. anchors lists, ascending, the index of each period that
// holds a Winter Solstice; the last one may equal len(periods) when only the
// new moon opening that month is known.
//
// Every anchor is month 11. When 13 periods separate an anchor from the
// next, the first of them without a principal term is the leap month and
// repeats the previous number; every other period advances, with or without
// a term. With 12 periods there is no leap month. Periods before the first
// anchor and after the last keep MonthNumber 0.
func AssignMonthNumbers(periods []MonthPeriod, anchors []int) error {
	for i := range periods {
		periods[i].MonthNumber = 0
		periods[i].IsLeap = false
	}

	for i, from := range anchors {
		if from < 0 || from > len(periods) || (i > 0 && from <= anchors[i-1]) {
			return fmt.Errorf("anchor %d out of order or outside %d periods", from, len(periods))
		}
		if from < len(periods) {
			periods[from].MonthNumber = 11
		}
		if i+1 == len(anchors) {
			break
		}

		to := anchors[i+1]
		n := to - from
		if n != 12 && n != 13 {
			return fmt.Errorf("%d months between winter solstices starting %s", n, periods[from].StartDate)
		}

		leapPending := n == 13
		for j := from + 1; j < to; j++ {
			prev := periods[j-1].MonthNumber
			if leapPending && !periods[j].HasPrincipalTerm {
				periods[j].MonthNumber = prev
				periods[j].IsLeap = true
				leapPending = false
				continue
			}
			periods[j].MonthNumber = prev%12 + 1
		}
		if leapPending {
			return fmt.Errorf("13 months from %s but every one holds a principal term", periods[from].StartDate)
		}
	}
	return nil
}

// LunarYearOf returns the lunar year a numbered period belongs to. Months 11
// and 12 that start in January or February still belong to the previous
// lunar year.
func LunarYearOf(p MonthPeriod) int {
	year := p.StartDate.Year
	if p.MonthNumber >= 11 && p.StartDate.Month <= 2 {
		year--
	}
	return year
}
