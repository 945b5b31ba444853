package database

import (
	"time"
)

// CachedYear describes one stored year of events.
type CachedYear struct {
	Year           int       `json:"year"`
	Provider       string    `json:"provider"`
	NewMoonCount   int       `json:"new_moon_count"`
	SolarTermCount int       `json:"solar_term_count"`
	ComputedAt     time.Time `json:"computed_at"`
}

// CacheStats summarises the cache contents.
type CacheStats struct {
	Years      int  `json:"years"`
	MinYear    *int `json:"min_year,omitempty"`
	MaxYear    *int `json:"max_year,omitempty"`
	NewMoons   int  `json:"new_moons"`
	SolarTerms int  `json:"solar_terms"`
}
