// Package ephemeris finds new moons and solar terms from apparent ecliptic
// longitudes of the Sun and Moon.
//
// A Gateway supplies longitudes; Meeus is the bundled implementation and
// Memo adds a concurrency-safe cache in front of any gateway. Finder scans
// a gateway for the instants the calendar needs.
package ephemeris

import (
	"math"
	"sync"
	"time"
)

// Body selects the object whose longitude is requested.
type Body int

const (
	Sun Body = iota
	Moon
)

func (b Body) String() string {
	switch b {
	case Sun:
		return "sun"
	case Moon:
		return "moon"
	}
	return "unknown"
}

// Gateway returns the apparent geocentric ecliptic longitude of a body at
// an instant, in degrees within [0, 360).
type Gateway interface {
	Longitude(body Body, t time.Time) float64
}

// GatewayFunc adapts a plain function to the Gateway interface.
type GatewayFunc func(body Body, t time.Time) float64

// Longitude calls f.
func (f GatewayFunc) Longitude(body Body, t time.Time) float64 { return f(body, t) }

// DefaultMemoSize bounds the number of cached longitudes before the memo is
// reset.
const DefaultMemoSize = 1 << 16

// memoKey holds seconds and nanoseconds separately; UnixNano overflows
// outside 1678..2262.
type memoKey struct {
	body  Body
	sec   int64
	nanos int
}

// Memo caches longitudes by (body, instant). It returns exactly what the
// wrapped gateway returns and is safe for concurrent use.
type Memo struct {
	gw    Gateway
	limit int

	mu     sync.RWMutex
	values map[memoKey]float64
	hits   uint64
	misses uint64
}

// NewMemo wraps gw with a cache of DefaultMemoSize entries.
func NewMemo(gw Gateway) *Memo {
	return &Memo{
		gw:     gw,
		limit:  DefaultMemoSize,
		values: make(map[memoKey]float64),
	}
}

// Longitude returns the wrapped gateway's longitude, computing it at most
// once per body and instant while the entry stays cached. Safe for
// concurrent use.
func (m *Memo) Longitude(body Body, t time.Time) float64 {
	key := memoKey{body: body, sec: t.Unix(), nanos: t.Nanosecond()}

	m.mu.RLock()
	v, ok := m.values[key]
	m.mu.RUnlock()
	if ok {
		m.mu.Lock()
		m.hits++
		m.mu.Unlock()
		return v
	}

	v = m.gw.Longitude(body, t)

	m.mu.Lock()
	m.misses++
	if len(m.values) >= m.limit {
		m.values = make(map[memoKey]float64)
	}
	m.values[key] = v
	m.mu.Unlock()
	return v
}

// MemoStats reports cache effectiveness.
type MemoStats struct {
	Entries int    `json:"entries"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
}

func (m *Memo) Stats() MemoStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return MemoStats{Entries: len(m.values), Hits: m.hits, Misses: m.misses}
}

// norm360 maps an angle in degrees to [0, 360).
func norm360(deg float64) float64 {
	r := math.Mod(deg, 360)
	if r < 0 {
		r += 360
	}
	if r >= 360 {
		r -= 360
	}
	return r
}

// norm180 maps an angle in degrees to (-180, 180].
func norm180(deg float64) float64 {
	r := math.Mod(deg, 360)
	if r <= -180 {
		r += 360
	} else if r > 180 {
		r -= 360
	}
	return r
}
