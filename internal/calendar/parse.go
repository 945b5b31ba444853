package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // zone names resolve without system tzdata
)

// DefaultClock is the time of day assumed when only a date is given.
const DefaultClock = "12:00"

// ParseZone resolves an IANA zone name ("Asia/Shanghai"), "UTC", or a fixed
// offset such as "+08:00" or "-0530". An empty name yields def.
func ParseZone(name string, def *time.Location) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return zoneOrDefault(def), nil
	}
	if name[0] == '+' || name[0] == '-' {
		return parseOffset(name)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown time zone %q: %w", name, err)
	}
	return loc, nil
}

func parseOffset(s string) (*time.Location, error) {
	sign := 1
	if s[0] == '-' {
		sign = -1
	}
	body := strings.ReplaceAll(s[1:], ":", "")
	if len(body) != 2 && len(body) != 4 {
		return nil, fmt.Errorf("invalid UTC offset %q", s)
	}
	h, err := strconv.Atoi(body[:2])
	if err != nil {
		return nil, fmt.Errorf("invalid UTC offset %q", s)
	}
	m := 0
	if len(body) == 4 {
		if m, err = strconv.Atoi(body[2:]); err != nil {
			return nil, fmt.Errorf("invalid UTC offset %q", s)
		}
	}
	if h > 14 || m > 59 {
		return nil, fmt.Errorf("UTC offset %q out of range", s)
	}
	return time.FixedZone(s, sign*(h*3600+m*60)), nil
}

// ParseClock parses HH:MM. An empty string yields DefaultClock.
func ParseClock(s string) (hour, minute int, err error) {
	if s == "" {
		s = DefaultClock
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

// ParseLocalDateTime combines a YYYY-MM-DD date and an HH:MM clock (default
// 12:00) into an instant in loc.
func ParseLocalDateTime(date, clock string, loc *time.Location) (time.Time, error) {
	d, err := ParseCivilDate(date)
	if err != nil {
		return time.Time{}, err
	}
	h, m, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year, time.Month(d.Month), d.Day, h, m, 0, 0, zoneOrDefault(loc)), nil
}

// ParseInstant accepts RFC 3339 with or without fractional seconds, or a
// bare "2006-01-02 15:04[:05]" interpreted in loc.
func ParseInstant(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02 15:04", "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, s, zoneOrDefault(loc)); err == nil {
			return t, nil
		}
	}
	if t, err := ParseLocalDateTime(s, "", loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("parse instant %q: expected RFC 3339 or YYYY-MM-DD[ HH:MM[:SS]]", s)
}
