package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/zapponejosh/lunisolar-api/internal/ephemeris/ephemeristest"
)

func TestConvertBatchMatchesConvert(t *testing.T) {
	defer goleak.VerifyNone(t)

	conv := linearConverter()
	ctx := context.Background()
	loc := time.FixedZone("UTC+9", 9*3600)

	instants := []time.Time{
		time.Date(2003, 1, 1, 0, 0, 0, 0, loc),
		time.Date(2003, 2, 14, 23, 45, 0, 0, loc),
		time.Date(2004, 7, 7, 7, 7, 0, 0, loc),
		time.Date(2005, 12, 31, 23, 59, 0, 0, loc),
		time.Date(2003, 1, 1, 0, 0, 0, 0, loc), // duplicate
	}

	results := conv.ConvertBatch(ctx, instants, loc)
	if len(results) != len(instants) {
		t.Fatalf("got %d results, want %d", len(results), len(instants))
	}

	for i, r := range results {
		if r.Err != nil {
			t.Fatalf("result %d: %v", i, r.Err)
		}
		if !r.Instant.Equal(instants[i]) {
			t.Errorf("result %d is for %s, want %s", i, r.Instant, instants[i])
		}
		single, err := conv.Convert(ctx, instants[i], loc)
		if err != nil {
			t.Fatalf("Convert %d: %v", i, err)
		}
		if diff := cmp.Diff(single, r.Date); diff != "" {
			t.Errorf("result %d differs from single conversion (-single +batch):\n%s", i, diff)
		}
	}

	if diff := cmp.Diff(results[0].Date, results[4].Date); diff != "" {
		t.Errorf("duplicate instants differ:\n%s", diff)
	}
}

func TestConvertBatchFullYear(t *testing.T) {
	defer goleak.VerifyNone(t)

	conv := linearConverter()
	ctx := context.Background()

	start := time.Date(2003, 1, 1, 12, 0, 0, 0, ReferenceZone)
	instants := make([]time.Time, 365)
	for i := range instants {
		instants[i] = start.AddDate(0, 0, i)
	}

	results := conv.ConvertBatch(ctx, instants, ReferenceZone)
	if len(results) != 365 {
		t.Fatalf("got %d results, want 365", len(results))
	}
	for i, r := range results {
		if r.Err != nil {
			t.Fatalf("%s: %v", instants[i].Format("2006-01-02"), r.Err)
		}
		single, err := conv.Convert(ctx, instants[i], ReferenceZone)
		if err != nil {
			t.Fatalf("Convert %s: %v", instants[i].Format("2006-01-02"), err)
		}
		if diff := cmp.Diff(single, r.Date); diff != "" {
			t.Fatalf("%s differs from single conversion (-single +batch):\n%s", instants[i].Format("2006-01-02"), diff)
		}
	}
}

func TestConvertBatchPerQueryErrors(t *testing.T) {
	defer goleak.VerifyNone(t)

	// New moons from November 2000 to December 2001, bracketing the 2000
	// and 2001 winter solstices.
	src := linearEvents(8, 22)

	conv := NewConverter(src, quietLogger(), 2)
	good := ephemeristest.New().NewMoon(10).Add(5 * 24 * time.Hour)
	bad := time.Date(2002, 6, 1, 12, 0, 0, 0, ReferenceZone)

	results := conv.ConvertBatch(context.Background(), []time.Time{good, bad, good}, ReferenceZone)
	if results[0].Err != nil || results[2].Err != nil {
		t.Fatalf("good queries failed: %v / %v", results[0].Err, results[2].Err)
	}
	if !IsKind(results[1].Err, KindUnresolvedMonth) {
		t.Errorf("bad query err = %v, want unresolved_month", results[1].Err)
	}
	if results[0].Date.LunarDay != 6 {
		t.Errorf("good query lunar day = %d, want 6", results[0].Date.LunarDay)
	}
}

func TestConvertBatchWindowFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	conv := NewConverter(staticSource{}, quietLogger(), 2)
	results := conv.ConvertBatch(context.Background(), []time.Time{
		time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC),
	}, time.UTC)

	for i, r := range results {
		if !IsKind(r.Err, KindInsufficientWindow) {
			t.Errorf("result %d err = %v, want insufficient_window", i, r.Err)
		}
	}
}

func TestConvertBatchCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := linearConverter().ConvertBatch(ctx, []time.Time{time.Now(), time.Now()}, nil)
	for i, r := range results {
		if !errors.Is(r.Err, context.Canceled) {
			t.Errorf("result %d err = %v, want context.Canceled", i, r.Err)
		}
	}
}

func TestConvertBatchEmpty(t *testing.T) {
	if got := linearConverter().ConvertBatch(context.Background(), nil, nil); got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

func TestPlanYears(t *testing.T) {
	loc := time.FixedZone("UTC+14", 14*3600)
	instants := []time.Time{
		time.Date(2020, 12, 31, 12, 0, 0, 0, time.UTC), // 2021 in loc
		time.Date(2018, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	lo, hi := PlanYears(instants, loc)
	if lo != 2017 || hi != 2022 {
		t.Errorf("PlanYears = %d..%d, want 2017..2022", lo, hi)
	}
	if got := YearSpan(instants, loc); got != 4 {
		t.Errorf("YearSpan = %d, want 4", got)
	}
	if got := YearSpan(nil, loc); got != 0 {
		t.Errorf("YearSpan(nil) = %d, want 0", got)
	}
}
