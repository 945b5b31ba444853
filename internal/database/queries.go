package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zapponejosh/lunisolar-api/internal/calendar"
	"github.com/zapponejosh/lunisolar-api/internal/ephemeris"
)

// =============================================================================
// Helper Functions
// =============================================================================

// parseTimestamp parses a SQLite TEXT timestamp, returning nil when the
// value is empty or in no known format.
func parseTimestamp(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}

	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, ns.String); err == nil {
			return &t
		}
	}
	return nil
}

// Instants are stored as Unix seconds and nanoseconds, which cover every
// year time.Time can represent. UnixNano would overflow outside 1678..2262.
func splitInstant(t time.Time) (int64, int) {
	return t.Unix(), t.Nanosecond()
}

func joinInstant(sec, nanos int64) time.Time {
	return time.Unix(sec, nanos).UTC()
}

// =============================================================================
// Event Store
// =============================================================================

// EventStore implements calendar.EventStore on top of DB. Years are tagged
// with the provider that computed them so a cache filled by one gateway is
// not served for another.
type EventStore struct {
	db       *DB
	provider string
}

// NewEventStore returns a store for events computed by provider.
func NewEventStore(db *DB, provider string) *EventStore {
	return &EventStore{db: db, provider: provider}
}

// LoadYear returns the stored events of a year.
func (s *EventStore) LoadYear(ctx context.Context, year int) (calendar.YearEvents, bool, error) {
	var provider string
	err := s.db.QueryRowContext(ctx,
		"SELECT provider FROM ephemeris_years WHERE year = ?", year,
	).Scan(&provider)
	if errors.Is(err, sql.ErrNoRows) {
		return calendar.YearEvents{}, false, nil
	}
	if err != nil {
		return calendar.YearEvents{}, false, fmt.Errorf("query year %d: %w", year, err)
	}
	if provider != s.provider {
		return calendar.YearEvents{}, false, nil
	}

	ev := calendar.YearEvents{Year: year}

	ev.NewMoons, err = s.db.newMoons(ctx, year)
	if err != nil {
		return calendar.YearEvents{}, false, err
	}
	ev.SolarTerms, err = s.db.solarTerms(ctx, year)
	if err != nil {
		return calendar.YearEvents{}, false, err
	}
	return ev, true, nil
}

// SaveYear replaces the stored events of a year in one transaction.
func (s *EventStore) SaveYear(ctx context.Context, ev calendar.YearEvents) error {
	return s.db.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM new_moons WHERE year = ?", ev.Year); err != nil {
			return fmt.Errorf("clear new moons: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM solar_terms WHERE year = ?", ev.Year); err != nil {
			return fmt.Errorf("clear solar terms: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM ephemeris_years WHERE year = ?", ev.Year); err != nil {
			return fmt.Errorf("clear year: %w", err)
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO ephemeris_years (year, provider, new_moon_count, solar_term_count)
			VALUES (?, ?, ?, ?)
		`, ev.Year, s.provider, len(ev.NewMoons), len(ev.SolarTerms))
		if err != nil {
			return fmt.Errorf("insert year %d: %w", ev.Year, err)
		}

		for i, t := range ev.NewMoons {
			sec, nanos := splitInstant(t)
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO new_moons (year, seq, unix_sec, nanos) VALUES (?, ?, ?, ?)",
				ev.Year, i, sec, nanos,
			); err != nil {
				return fmt.Errorf("insert new moon %d of %d: %w", i, ev.Year, err)
			}
		}

		for i, st := range ev.SolarTerms {
			sec, nanos := splitInstant(st.Instant)
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO solar_terms (year, seq, unix_sec, nanos, term_index) VALUES (?, ?, ?, ?, ?)",
				ev.Year, i, sec, nanos, st.Index,
			); err != nil {
				return fmt.Errorf("insert solar term %d of %d: %w", i, ev.Year, err)
			}
		}
		return nil
	})
}

func (db *DB) newMoons(ctx context.Context, year int) ([]time.Time, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT unix_sec, nanos FROM new_moons WHERE year = ? ORDER BY seq", year)
	if err != nil {
		return nil, fmt.Errorf("query new moons of %d: %w", year, err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var sec, nanos int64
		if err := rows.Scan(&sec, &nanos); err != nil {
			return nil, fmt.Errorf("scan new moon: %w", err)
		}
		out = append(out, joinInstant(sec, nanos))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate new moons: %w", err)
	}
	return out, nil
}

func (db *DB) solarTerms(ctx context.Context, year int) ([]ephemeris.SolarTerm, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT unix_sec, nanos, term_index FROM solar_terms WHERE year = ? ORDER BY seq", year)
	if err != nil {
		return nil, fmt.Errorf("query solar terms of %d: %w", year, err)
	}
	defer rows.Close()

	var out []ephemeris.SolarTerm
	for rows.Next() {
		var (
			sec, nanos int64
			idx        int
		)
		if err := rows.Scan(&sec, &nanos, &idx); err != nil {
			return nil, fmt.Errorf("scan solar term: %w", err)
		}
		out = append(out, ephemeris.SolarTerm{Instant: joinInstant(sec, nanos), Index: idx})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate solar terms: %w", err)
	}
	return out, nil
}

// =============================================================================
// Cache Administration
// =============================================================================

// ListCachedYears returns the stored years in ascending order.
func (db *DB) ListCachedYears(ctx context.Context) ([]CachedYear, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT year, provider, new_moon_count, solar_term_count, computed_at
		FROM ephemeris_years
		ORDER BY year ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query cached years: %w", err)
	}
	defer rows.Close()

	var years []CachedYear
	for rows.Next() {
		var (
			y          CachedYear
			computedAt sql.NullString
		)
		if err := rows.Scan(&y.Year, &y.Provider, &y.NewMoonCount, &y.SolarTermCount, &computedAt); err != nil {
			return nil, fmt.Errorf("scan cached year: %w", err)
		}
		if t := parseTimestamp(computedAt); t != nil {
			y.ComputedAt = *t
		}
		years = append(years, y)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cached years: %w", err)
	}
	return years, nil
}

// DeleteYear removes a stored year and its events. Returns ErrNotFound if
// the year was not stored.
func (db *DB) DeleteYear(ctx context.Context, year int) error {
	return db.WithTx(ctx, func(tx *Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM ephemeris_years WHERE year = ?", year)
		if err != nil {
			return fmt.Errorf("delete year %d: %w", year, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM new_moons WHERE year = ?", year); err != nil {
			return fmt.Errorf("delete new moons of %d: %w", year, err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM solar_terms WHERE year = ?", year); err != nil {
			return fmt.Errorf("delete solar terms of %d: %w", year, err)
		}
		return nil
	})
}

// Stats summarises the cache.
func (db *DB) Stats(ctx context.Context) (CacheStats, error) {
	var (
		stats            CacheStats
		minYear, maxYear sql.NullInt64
	)
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*), MIN(year), MAX(year),
		       COALESCE(SUM(new_moon_count), 0), COALESCE(SUM(solar_term_count), 0)
		FROM ephemeris_years
	`).Scan(&stats.Years, &minYear, &maxYear, &stats.NewMoons, &stats.SolarTerms)
	if err != nil {
		return CacheStats{}, fmt.Errorf("query cache stats: %w", err)
	}
	if minYear.Valid {
		v := int(minYear.Int64)
		stats.MinYear = &v
	}
	if maxYear.Valid {
		v := int(maxYear.Int64)
		stats.MaxYear = &v
	}
	return stats, nil
}
