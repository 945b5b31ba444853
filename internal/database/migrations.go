package database

// migrationsSQL holds every schema migration keyed by version. Versions are
// applied in order and never edited once released.
var migrationsSQL = map[int]string{
	1: migrationV1EventCache,
	2: migrationV2InstantIndexes,
	3: migrationV3IntegerInstants,
}

// migrationV1EventCache stores the events of whole UTC years.
//
// A year row is written in the same transaction as its events, so its
// presence means the year is complete. Superseded for instants by
// migrationV3IntegerInstants.
const migrationV1EventCache = `
-- ============================================================================
-- Table: ephemeris_years
-- ============================================================================
CREATE TABLE IF NOT EXISTS ephemeris_years (
    year INTEGER PRIMARY KEY,

    -- Gateway that produced the events, e.g. "meeus"
    provider TEXT NOT NULL,

    new_moon_count INTEGER NOT NULL,
    solar_term_count INTEGER NOT NULL,

    computed_at TEXT NOT NULL DEFAULT (datetime('now'))
);

-- ============================================================================
-- Table: new_moons
-- ============================================================================
CREATE TABLE IF NOT EXISTS new_moons (
    year INTEGER NOT NULL,
    seq INTEGER NOT NULL,
    instant TEXT NOT NULL,

    PRIMARY KEY (year, seq),
    FOREIGN KEY (year) REFERENCES ephemeris_years(year) ON DELETE CASCADE
);

-- ============================================================================
-- Table: solar_terms
-- ============================================================================
CREATE TABLE IF NOT EXISTS solar_terms (
    year INTEGER NOT NULL,
    seq INTEGER NOT NULL,
    instant TEXT NOT NULL,

    -- 0..23, longitude 15 * term_index degrees
    term_index INTEGER NOT NULL CHECK (term_index BETWEEN 0 AND 23),

    PRIMARY KEY (year, seq),
    FOREIGN KEY (year) REFERENCES ephemeris_years(year) ON DELETE CASCADE
);
`

// migrationV2InstantIndexes supports range lookups by instant.
const migrationV2InstantIndexes = `
CREATE INDEX IF NOT EXISTS idx_new_moons_instant ON new_moons(instant);
CREATE INDEX IF NOT EXISTS idx_solar_terms_instant ON solar_terms(instant);
`

// migrationV3IntegerInstants stores instants as Unix seconds plus
// nanoseconds. RFC 3339 text cannot hold years before 1 or after 9999.
// Cached events are derived data, so existing rows are dropped and
// recomputed on demand.
const migrationV3IntegerInstants = `
DROP INDEX IF EXISTS idx_new_moons_instant;
DROP INDEX IF EXISTS idx_solar_terms_instant;
DROP TABLE IF EXISTS new_moons;
DROP TABLE IF EXISTS solar_terms;
DELETE FROM ephemeris_years;

CREATE TABLE new_moons (
    year INTEGER NOT NULL,
    seq INTEGER NOT NULL,
    unix_sec INTEGER NOT NULL,
    nanos INTEGER NOT NULL CHECK (nanos BETWEEN 0 AND 999999999),

    PRIMARY KEY (year, seq),
    FOREIGN KEY (year) REFERENCES ephemeris_years(year) ON DELETE CASCADE
);

CREATE TABLE solar_terms (
    year INTEGER NOT NULL,
    seq INTEGER NOT NULL,
    unix_sec INTEGER NOT NULL,
    nanos INTEGER NOT NULL CHECK (nanos BETWEEN 0 AND 999999999),

    -- 0..23, longitude 15 * term_index degrees
    term_index INTEGER NOT NULL CHECK (term_index BETWEEN 0 AND 23),

    PRIMARY KEY (year, seq),
    FOREIGN KEY (year) REFERENCES ephemeris_years(year) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_new_moons_instant ON new_moons(unix_sec, nanos);
CREATE INDEX IF NOT EXISTS idx_solar_terms_instant ON solar_terms(unix_sec, nanos);
`
