package calendar

import (
	"context"
	"errors"
	"fmt"
)

// YearReport summarises the month structure of one lunar year.
type YearReport struct {
	LunarYear int      `json:"lunar_year"`
	Cycle     Cycle    `json:"cycle"`
	Months    int      `json:"months"`
	LeapMonth int      `json:"leap_month,omitempty"`
	Days      int      `json:"days"`
	Problems  []string `json:"problems,omitempty"`
}

// OK reports whether the year passed every check.
func (r YearReport) OK() bool { return len(r.Problems) == 0 }

// CheckYear validates a month table: 12 or 13 months, at most one leap
// month, numbers running 1..12 with a leap month repeating its
// predecessor, and every month 29 or 30 days long.
func CheckYear(lunarYear int, table []MonthInfo) YearReport {
	r := YearReport{LunarYear: lunarYear, Cycle: YearCycle(lunarYear), Months: len(table)}

	if n := len(table); n != 12 && n != 13 {
		r.Problems = append(r.Problems, fmt.Sprintf("%d months", n))
	}

	expect := 1
	for i, m := range table {
		r.Days += m.Days
		if m.Days != 29 && m.Days != 30 {
			r.Problems = append(r.Problems, fmt.Sprintf("month %s has %d days", m.Name, m.Days))
		}
		if m.IsLeap {
			if r.LeapMonth != 0 {
				r.Problems = append(r.Problems, fmt.Sprintf("second leap month %d", m.Month))
			}
			r.LeapMonth = m.Month
			if i == 0 || table[i-1].Month != m.Month {
				r.Problems = append(r.Problems, fmt.Sprintf("leap month %d does not follow month %d", m.Month, m.Month))
			}
			continue
		}
		if m.Month != expect {
			r.Problems = append(r.Problems, fmt.Sprintf("month %d found where %d expected", m.Month, expect))
		}
		expect = m.Month + 1
	}
	if (len(table) == 13) != (r.LeapMonth != 0) {
		r.Problems = append(r.Problems, "leap month count does not match year length")
	}
	return r
}

// Sweep checks every lunar year in [fromYear, toYear]. Reports are returned
// even when some years fail; the error is non-nil only for failures to
// build a year's table.
func (c *Converter) Sweep(ctx context.Context, fromYear, toYear int) ([]YearReport, error) {
	if fromYear > toYear {
		return nil, fmt.Errorf("invalid year range %d..%d", fromYear, toYear)
	}

	w, err := c.Window(ctx, fromYear-1, toYear+1)
	if err != nil {
		return nil, err
	}

	var (
		reports []YearReport
		errs    []error
	)
	for y := fromYear; y <= toYear; y++ {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		table, err := w.MonthTable(y)
		if err != nil {
			errs = append(errs, fmt.Errorf("lunar year %d: %w", y, err))
			continue
		}
		reports = append(reports, CheckYear(y, table))
	}
	return reports, errors.Join(errs...)
}
