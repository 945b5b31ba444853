package ephemeris_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapponejosh/lunisolar-api/internal/ephemeris"
	"github.com/zapponejosh/lunisolar-api/internal/ephemeris/ephemeristest"
)

func TestNewMoonsLinear(t *testing.T) {
	lin := ephemeristest.New()
	f := ephemeris.NewFinder(lin)

	moons, err := f.NewMoons(context.Background(), 2001)
	require.NoError(t, err)
	require.NotEmpty(t, moons)

	// k=10 is the first new moon of 2001 after the epoch.
	for i, got := range moons {
		want := lin.NewMoon(10 + i)
		assert.WithinDuration(t, want, got, 2*time.Millisecond, "new moon %d", i)
	}
	assert.Len(t, moons, 13)
}

func TestNewMoonsConcatenateAcrossYears(t *testing.T) {
	f := ephemeris.NewFinder(ephemeristest.New())
	ctx := context.Background()

	var perYear []time.Time
	for y := 2001; y <= 2003; y++ {
		moons, err := f.NewMoons(ctx, y)
		require.NoError(t, err)
		perYear = append(perYear, moons...)
	}

	start, _ := ephemeris.YearBounds(2001)
	_, end := ephemeris.YearBounds(2003)
	whole, err := f.NewMoonsBetween(ctx, start, end)
	require.NoError(t, err)

	require.Equal(t, len(whole), len(perYear))
	for i := range whole {
		assert.True(t, whole[i].Equal(perYear[i]), "moon %d: %s vs %s", i, whole[i], perYear[i])
	}
	for i := 1; i < len(whole); i++ {
		gap := whole[i].Sub(whole[i-1]).Hours() / 24
		assert.InDelta(t, ephemeristest.SynodicMonth, gap, 1e-6)
	}
}

func TestSolarTermsLinear(t *testing.T) {
	lin := ephemeristest.New()
	f := ephemeris.NewFinder(lin)

	terms, err := f.SolarTerms(context.Background(), 2002)
	require.NoError(t, err)
	require.Len(t, terms, 24)

	// The first crossing of 2002 is the 43rd after the 2000 equinox.
	for i, st := range terms {
		k := 43 + i
		assert.Equal(t, k%24, st.Index)
		assert.WithinDuration(t, lin.SolarTerm(k), st.Instant, 2*time.Millisecond, "term %d", k)
		assert.Equal(t, st.Index%2 == 0, st.Principal())
	}
}

func TestScanRejectsEmptyRange(t *testing.T) {
	f := ephemeris.NewFinder(ephemeristest.New())
	at := time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := f.NewMoonsBetween(context.Background(), at, at)
	assert.Error(t, err)
}

func TestScanHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ephemeris.NewFinder(ephemeristest.New()).SolarTerms(ctx, 2001)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMeeusKnownEvents(t *testing.T) {
	if testing.Short() {
		t.Skip("ephemeris computation in short mode")
	}
	f := ephemeris.NewFinder(ephemeris.NewMemo(ephemeris.NewMeeus()))
	ctx := context.Background()

	moons, err := f.NewMoons(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, moons, 13)

	// 2024-02-09 22:59 UTC and 2024-12-30 22:27 UTC.
	assert.WithinDuration(t, time.Date(2024, 2, 9, 22, 59, 0, 0, time.UTC), moons[1], 5*time.Minute)
	assert.WithinDuration(t, time.Date(2024, 12, 30, 22, 27, 0, 0, time.UTC), moons[12], 5*time.Minute)

	terms, err := f.SolarTerms(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, terms, 24)

	// First term of the year is Minor Cold; Spring Equinox 2024-03-20 03:06 UTC;
	// Winter Solstice 2024-12-21 09:21 UTC.
	assert.Equal(t, 19, terms[0].Index)
	for _, st := range terms {
		switch st.Index {
		case 0:
			assert.WithinDuration(t, time.Date(2024, 3, 20, 3, 6, 0, 0, time.UTC), st.Instant, 5*time.Minute)
		case 18:
			assert.WithinDuration(t, time.Date(2024, 12, 21, 9, 21, 0, 0, time.UTC), st.Instant, 5*time.Minute)
		}
	}
}
