package calendar

import (
	"fmt"
	"time"
)

// LunisolarDate is the result of a conversion.
type LunisolarDate struct {
	LunarYear   int  `json:"lunar_year"`
	LunarMonth  int  `json:"lunar_month"`
	LunarDay    int  `json:"lunar_day"`
	IsLeapMonth bool `json:"is_leap_month"`

	YearCycle  Cycle `json:"year_cycle"`
	MonthCycle Cycle `json:"month_cycle"`
	DayCycle   Cycle `json:"day_cycle"`
	HourCycle  Cycle `json:"hour_cycle"`

	// Presentation.
	MonthName  string    `json:"month_name"`
	DayName    string    `json:"day_name"`
	Zodiac     string    `json:"zodiac"`
	MonthStart CivilDate `json:"month_start"`
	MonthDays  int       `json:"month_days"`
	LocalDate  CivilDate `json:"local_date"`
	LocalHour  int       `json:"local_hour"`
}

// Pillars returns the four cycles as year, month, day, hour characters.
func (d LunisolarDate) Pillars() [4]string {
	return [4]string{d.YearCycle.String(), d.MonthCycle.String(), d.DayCycle.String(), d.HourCycle.String()}
}

// String renders the date the traditional way, e.g. 甲辰年 正月 初一.
func (d LunisolarDate) String() string {
	return fmt.Sprintf("%s年 %s %s", d.YearCycle, d.MonthName, d.DayName)
}

// Resolve converts an instant viewed in loc. A nil loc means ReferenceZone.
func (w *Window) Resolve(t time.Time, loc *time.Location) (LunisolarDate, error) {
	const op = "calendar.Resolve"
	loc = zoneOrDefault(loc)

	local := t.In(loc)
	date := CivilDateOf(t, loc)

	idx := -1
	for i := range w.Periods {
		if w.Periods[i].Contains(date) {
			idx = i
			break
		}
	}
	if idx < 0 {
		ce := newError(KindUnresolvedMonth, op, w, fmt.Errorf("local date %s: %w", date, ErrUnresolvedMonth))
		ce.Instant = t
		return LunisolarDate{}, ce
	}
	p := w.Periods[idx]
	if p.MonthNumber == 0 {
		ce := newError(KindInsufficientWindow, op, w,
			fmt.Errorf("month starting %s has no winter solstice on both sides: %w", p.StartDate, ErrInsufficientWindow))
		ce.Instant = t
		return LunisolarDate{}, ce
	}

	day := int(date.DayNumber()-p.StartDate.DayNumber()) + 1
	if day < 1 {
		day = 1
	} else if day > 30 {
		day = 30
	}

	lunarYear := LunarYearOf(p)
	yc := YearCycle(lunarYear)
	dc := DayCycle(date)

	return LunisolarDate{
		LunarYear:   lunarYear,
		LunarMonth:  p.MonthNumber,
		LunarDay:    day,
		IsLeapMonth: p.IsLeap,
		YearCycle:   yc,
		MonthCycle:  MonthCycle(yc, p.MonthNumber),
		DayCycle:    dc,
		HourCycle:   HourCycle(dc, local.Hour()),
		MonthName:   MonthName(p.MonthNumber, p.IsLeap),
		DayName:     DayName(day),
		Zodiac:      Branches[yc.Branch()].Animal,
		MonthStart:  p.StartDate,
		MonthDays:   p.Days(),
		LocalDate:   date,
		LocalHour:   local.Hour(),
	}, nil
}

// MonthInfo is one row of a lunar year's month table.
type MonthInfo struct {
	LunarYear  int       `json:"lunar_year"`
	Month      int       `json:"month"`
	IsLeap     bool      `json:"is_leap"`
	Name       string    `json:"name"`
	Cycle      Cycle     `json:"cycle"`
	Start      time.Time `json:"start"`
	StartDate  CivilDate `json:"start_date"`
	EndDate    CivilDate `json:"end_date"`
	Days       int       `json:"days"`
	Principals []int     `json:"principal_terms,omitempty"`
}

// MonthTable lists the months of a lunar year in order. Each period is
// numbered exactly as a conversion on its first day would number it.
func (w *Window) MonthTable(lunarYear int) ([]MonthInfo, error) {
	var table []MonthInfo
	for _, p := range w.Periods {
		noon := time.Date(p.StartDate.Year, time.Month(p.StartDate.Month), p.StartDate.Day, 12, 0, 0, 0, ReferenceZone)
		d, err := w.Resolve(noon, ReferenceZone)
		if err != nil {
			if IsKind(err, KindInsufficientWindow) {
				continue
			}
			return nil, err
		}
		if d.LunarYear != lunarYear {
			continue
		}
		table = append(table, MonthInfo{
			LunarYear:  d.LunarYear,
			Month:      d.LunarMonth,
			IsLeap:     d.IsLeapMonth,
			Name:       d.MonthName,
			Cycle:      d.MonthCycle,
			Start:      p.Start,
			StartDate:  p.StartDate,
			EndDate:    p.EndDate,
			Days:       p.Days(),
			Principals: p.PrincipalTerms,
		})
	}
	if len(table) == 0 {
		return nil, newError(KindInsufficientWindow, "calendar.MonthTable", w,
			fmt.Errorf("lunar year %d not covered: %w", lunarYear, ErrInsufficientWindow))
	}
	return table, nil
}
