package calendar

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Cycle is a position 1..60 in the sexagenary (stem-branch) cycle.
type Cycle int

// dayCycleEpoch is the day number of 0004-01-31, a Jiazi (cycle 1) day.
var dayCycleEpoch = DayNumber(4, 1, 31)

// firstMonthStem gives the stem of lunar month 1 keyed by year stem mod 5.
var firstMonthStem = [5]int{2, 4, 6, 8, 0}

// ziHourStem gives the stem of the Zi hour keyed by day stem mod 5.
var ziHourStem = [5]int{0, 2, 4, 6, 8}

// FromStemBranch returns the cycle whose stem and branch indices are s and
// b. A stem and branch of different parity never meet in the cycle.
func FromStemBranch(s, b int) (Cycle, error) {
	if s < 0 || s > 9 || b < 0 || b > 11 {
		return 0, fmt.Errorf("stem %d / branch %d out of range", s, b)
	}
	if s%2 != b%2 {
		return 0, fmt.Errorf("stem %d and branch %d differ in parity", s, b)
	}
	return Cycle(mod(6*s-5*b, 60) + 1), nil
}

// ParseCycle accepts a cycle number 1..60 or its two-character name.
func ParseCycle(s string) (Cycle, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if c := Cycle(n); c.Valid() {
			return c, nil
		}
		return 0, fmt.Errorf("cycle %d out of range 1..60", n)
	}
	for c := Cycle(1); c <= 60; c++ {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown sexagenary cycle %q", s)
}

// Stem returns the stem index 0..9.
func (c Cycle) Stem() int { return mod(int(c)-1, 10) }

// Branch returns the branch index 0..11.
func (c Cycle) Branch() int { return mod(int(c)-1, 12) }

// Valid reports whether c is within 1..60.
func (c Cycle) Valid() bool { return c >= 1 && c <= 60 }

// String renders the cycle as its two characters, e.g. 甲子.
func (c Cycle) String() string {
	return Stems[c.Stem()].Char + Branches[c.Branch()].Char
}

// MarshalJSON renders the cycle with its stem and branch details.
func (c Cycle) MarshalJSON() ([]byte, error) {
	return json.Marshal(CycleInfo(c))
}

// CycleDetail is the presentation form of a Cycle.
type CycleDetail struct {
	Number      int    `json:"number"`
	Name        string `json:"name"`
	StemIndex   int    `json:"stem_index"`
	BranchIndex int    `json:"branch_index"`
	Stem        Stem   `json:"stem"`
	Branch      Branch `json:"branch"`
}

// CycleInfo expands a cycle into its stem and branch details.
func CycleInfo(c Cycle) CycleDetail {
	return CycleDetail{
		Number:      int(c),
		Name:        c.String(),
		StemIndex:   c.Stem(),
		BranchIndex: c.Branch(),
		Stem:        Stems[c.Stem()],
		Branch:      Branches[c.Branch()],
	}
}

// YearCycle returns the cycle of a lunar year. Year 4 is a Jiazi year.
func YearCycle(lunarYear int) Cycle {
	return Cycle(mod(lunarYear-4, 60) + 1)
}

// MonthBranch returns the branch index of a lunar month; month 1 is always
// Yin (Tiger).
func MonthBranch(month int) int {
	return mod(month+1, 12)
}

// MonthCycle returns the cycle of a lunar month. The stem of month 1 follows
// the year stem; later months advance one stem per month number.
func MonthCycle(year Cycle, month int) Cycle {
	stem := mod(firstMonthStem[year.Stem()%5]+month-1, 10)
	c, _ := FromStemBranch(stem, MonthBranch(month))
	return c
}

// DayCycle returns the cycle of a civil date. The count is continuous with
// no month or year reset, so callers pass the local wall-clock date.
func DayCycle(date CivilDate) Cycle {
	return Cycle(int(mod64(date.DayNumber()-dayCycleEpoch, 60)) + 1)
}

// HourBranch returns the branch of a local hour 0..23. The 23:00-01:00 bin
// is always Zi.
func HourBranch(hour int) int {
	return mod((hour+1)/2, 12)
}

// HourCycle returns the cycle of a local hour on a day whose cycle is day.
// From 23:00 the Zi hour already belongs to the next day, so its stem is
// derived from the next day's stem.
func HourCycle(day Cycle, hour int) Cycle {
	dayStem := day.Stem()
	if hour >= 23 {
		dayStem = mod(dayStem+1, 10)
	}
	branch := HourBranch(hour)
	stem := mod(ziHourStem[dayStem%5]+branch, 10)
	c, _ := FromStemBranch(stem, branch)
	return c
}

func mod(a, n int) int {
	return ((a % n) + n) % n
}

func mod64(a, n int64) int64 {
	return ((a % n) + n) % n
}
