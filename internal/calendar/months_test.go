package calendar

import (
	"errors"
	"testing"
	"time"
)

// periodsWithPrincipals builds contiguous 30-day periods starting at
// 2020-01-01 noon reference time, flagged with the given principal-term
// presence.
func periodsWithPrincipals(flags ...bool) []MonthPeriod {
	start := time.Date(2020, 1, 1, 12, 0, 0, 0, ReferenceZone)
	moons := make([]time.Time, len(flags)+1)
	for i := range moons {
		moons[i] = start.AddDate(0, 0, 30*i)
	}
	periods := BuildMonthPeriods(moons)
	for i, f := range flags {
		periods[i].HasPrincipalTerm = f
	}
	return periods
}

func monthLabels(periods []MonthPeriod) []string {
	out := make([]string, len(periods))
	for i, p := range periods {
		out[i] = MonthName(p.MonthNumber, p.IsLeap)
	}
	return out
}

func TestBuildMonthPeriods(t *testing.T) {
	moons := []time.Time{
		time.Date(2024, 1, 11, 11, 57, 0, 0, time.UTC),
		time.Date(2024, 2, 9, 22, 59, 0, 0, time.UTC),
		time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	periods := BuildMonthPeriods(moons)
	if len(periods) != 2 {
		t.Fatalf("got %d periods, want 2", len(periods))
	}

	// 2024-02-09 22:59 UTC is 2024-02-10 in the reference zone.
	if periods[0].EndDate != (CivilDate{2024, 2, 10}) {
		t.Errorf("EndDate = %s", periods[0].EndDate)
	}
	if periods[0].EndDate != periods[1].StartDate || !periods[0].End.Equal(periods[1].Start) {
		t.Error("periods are not contiguous")
	}
	if got := periods[0].Days(); got != 30 {
		t.Errorf("Days = %d, want 30", got)
	}

	if BuildMonthPeriods(moons[:1]) != nil {
		t.Error("one new moon must give no periods")
	}
}

// flagsExcept returns n principal-term flags, all true except at the given
// indices.
func flagsExcept(n int, missing ...int) []bool {
	flags := make([]bool, n)
	for i := range flags {
		flags[i] = true
	}
	for _, i := range missing {
		flags[i] = false
	}
	return flags
}

func TestAssignMonthNumbers(t *testing.T) {
	tests := []struct {
		name    string
		flags   []bool
		anchors []int
		want    []string
	}{
		{
			name:    "twelve months ignore a missing term",
			flags:   flagsExcept(13, 4),
			anchors: []int{0, 12},
			want:    []string{"冬月", "腊月", "正月", "二月", "三月", "四月", "五月", "六月", "七月", "八月", "九月", "十月", "冬月"},
		},
		{
			name:    "thirteen months take the first missing term as leap",
			flags:   flagsExcept(14, 1, 5),
			anchors: []int{0, 13},
			want:    []string{"冬月", "闰冬月", "腊月", "正月", "二月", "三月", "四月", "五月", "六月", "七月", "八月", "九月", "十月", "冬月"},
		},
		{
			name:    "leap in the spring",
			flags:   flagsExcept(14, 4),
			anchors: []int{0, 13},
			want:    []string{"冬月", "腊月", "正月", "二月", "闰二月", "三月", "四月", "五月", "六月", "七月", "八月", "九月", "十月", "冬月"},
		},
		{
			name:    "closing anchor past the last period",
			flags:   flagsExcept(12),
			anchors: []int{0, 12},
			want:    []string{"冬月", "腊月", "正月", "二月", "三月", "四月", "五月", "六月", "七月", "八月", "九月", "十月"},
		},
		{
			name:    "periods outside the anchors stay unnumbered",
			flags:   flagsExcept(15, 0, 14),
			anchors: []int{1, 13},
			want:    []string{"", "冬月", "腊月", "正月", "二月", "三月", "四月", "五月", "六月", "七月", "八月", "九月", "十月", "冬月", ""},
		},
		{
			name:    "two spans",
			flags:   flagsExcept(26, 8, 20),
			anchors: []int{0, 13, 25},
			want: []string{
				"冬月", "腊月", "正月", "二月", "三月", "四月", "五月", "六月", "闰六月", "七月", "八月", "九月", "十月",
				"冬月", "腊月", "正月", "二月", "三月", "四月", "五月", "六月", "七月", "八月", "九月", "十月",
				"冬月",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			periods := periodsWithPrincipals(tt.flags...)
			if err := AssignMonthNumbers(periods, tt.anchors); err != nil {
				t.Fatalf("AssignMonthNumbers: %v", err)
			}
			got := monthLabels(periods)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d periods, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("period %d = %q, want %q (all: %v)", i, got[i], tt.want[i], got)
				}
			}

			leaps := 0
			for _, p := range periods {
				if p.IsLeap {
					leaps++
				}
			}
			if spans := len(tt.anchors) - 1; leaps > spans {
				t.Errorf("%d leap months across %d spans", leaps, spans)
			}
		})
	}
}

func TestAssignMonthNumbersRejects(t *testing.T) {
	tests := []struct {
		name    string
		flags   []bool
		anchors []int
	}{
		{"span too short", flagsExcept(8), []int{0, 5}},
		{"span too long", flagsExcept(16), []int{0, 14}},
		{"anchor past the end", flagsExcept(2), []int{3}},
		{"negative anchor", flagsExcept(2), []int{-1}},
		{"anchors out of order", flagsExcept(14), []int{13, 0}},
		{"thirteen months all with terms", flagsExcept(14), []int{0, 13}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := AssignMonthNumbers(periodsWithPrincipals(tt.flags...), tt.anchors); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestTagPrincipalTerms(t *testing.T) {
	periods := periodsWithPrincipals(false, false, false)
	// Spans 2020-01-01 .. 2020-03-31 reference time.

	mk := func(y, m, d, solar int) PrincipalTerm {
		pt, ok := NewPrincipalTerm(time.Date(y, time.Month(m), d, 3, 0, 0, 0, ReferenceZone), solar)
		if !ok {
			t.Fatalf("solar index %d is not principal", solar)
		}
		return pt
	}
	terms := []PrincipalTerm{
		mk(2019, 12, 22, 18), // before the span
		mk(2020, 1, 20, 20),
		mk(2020, 2, 19, 22),
		mk(2020, 4, 19, 2), // after the span
	}

	owners, err := TagPrincipalTerms(periods, terms)
	if err != nil {
		t.Fatalf("TagPrincipalTerms: %v", err)
	}

	wantOwners := []int{-1, 0, 1, -1}
	for i, want := range wantOwners {
		if owners[i] != want {
			t.Errorf("term %d owner = %d, want %d", i, owners[i], want)
		}
	}
	if !periods[0].HasPrincipalTerm || !periods[1].HasPrincipalTerm || periods[2].HasPrincipalTerm {
		t.Errorf("flags = %v %v %v", periods[0].HasPrincipalTerm, periods[1].HasPrincipalTerm, periods[2].HasPrincipalTerm)
	}
	if len(periods[0].PrincipalTerms) != 1 || periods[0].PrincipalTerms[0] != 0 {
		t.Errorf("period 0 terms = %v, want [0]", periods[0].PrincipalTerms)
	}
}

func TestTagPrincipalTermsAmbiguous(t *testing.T) {
	periods := periodsWithPrincipals(false, false)
	// Make the second period overlap the first in civil dates.
	periods[1].StartDate = periods[0].StartDate

	pt, _ := NewPrincipalTerm(time.Date(2020, 1, 10, 3, 0, 0, 0, ReferenceZone), 20)
	_, err := TagPrincipalTerms(periods, []PrincipalTerm{pt})
	if !IsKind(err, KindAmbiguousTermAssignment) {
		t.Fatalf("err = %v, want ambiguous_term_assignment", err)
	}
	if !errors.Is(err, ErrAmbiguousTermAssignment) {
		t.Error("errors.Is should match the sentinel")
	}

	var ce *ConversionError
	if !errors.As(err, &ce) || !ce.Instant.Equal(pt.Instant) {
		t.Errorf("error should carry the term instant, got %v", err)
	}
}

func TestTagPrincipalTermsGap(t *testing.T) {
	periods := periodsWithPrincipals(false, false)
	periods[0].EndDate = periods[0].EndDate.AddDays(-5)

	// 2020-01-28 lies between the shortened first period and the second.
	pt, _ := NewPrincipalTerm(time.Date(2020, 1, 28, 3, 0, 0, 0, ReferenceZone), 22)
	_, err := TagPrincipalTerms(periods, []PrincipalTerm{pt})
	if !IsKind(err, KindAmbiguousTermAssignment) {
		t.Fatalf("err = %v, want ambiguous_term_assignment", err)
	}
}

func TestPrincipalIndex(t *testing.T) {
	tests := []struct {
		solar int
		want  int
		ok    bool
	}{
		{18, 11, true}, // Winter Solstice
		{20, 0, true},  // Major Cold
		{22, 1, true},  // Rain Water
		{0, 2, true},   // Spring Equinox
		{16, 10, true}, // Minor Snow
		{21, 0, false},
	}
	for _, tt := range tests {
		got, ok := PrincipalIndex(tt.solar)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("PrincipalIndex(%d) = %d, %v; want %d, %v", tt.solar, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLunarYearOf(t *testing.T) {
	tests := []struct {
		name  string
		start CivilDate
		month int
		want  int
	}{
		{"month 12 in January", CivilDate{2024, 1, 11}, 12, 2023},
		{"month 1", CivilDate{2024, 2, 10}, 1, 2024},
		{"month 11 in December", CivilDate{2024, 12, 1}, 11, 2024},
		{"month 12 in December", CivilDate{2024, 12, 31}, 12, 2024},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LunarYearOf(MonthPeriod{StartDate: tt.start, MonthNumber: tt.month})
			if got != tt.want {
				t.Errorf("LunarYearOf = %d, want %d", got, tt.want)
			}
		})
	}
}
