package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// offsetPattern matches timezone offset syntax like "GMT+2", "UTC-5",
// "GMT+05:30". Script-facing timezone parameters accept either this syntax
// or an IANA name like "America/New_York".
var offsetPattern = regexp.MustCompile(`^(?:GMT|UTC)([+-])(\d{1,2})(?::(\d{2}))?$`)

// LoadLocation resolves a timezone string. An empty string means UTC.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || name == "GMT" || name == "UTC" {
		return time.UTC, nil
	}

	if m := offsetPattern.FindStringSubmatch(name); m != nil {
		hours, err := strconv.Atoi(m[2])
		if err != nil {
			return nil, err
		}

		var minutes int
		if m[3] != "" {
			minutes, err = strconv.Atoi(m[3])
			if err != nil {
				return nil, err
			}
		}

		offset := hours*3600 + minutes*60
		if m[1] == "-" {
			offset = -offset
		}

		return time.FixedZone(name, offset), nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", name, err)
	}

	return loc, nil
}

func MustLoadLocation(name string) *time.Location {
	loc, err := LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// Timestamp builds a time in the given timezone string.
func Timestamp(timezone string, year int, month time.Month, day, hour, min, sec int) (time.Time, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return time.Time{}, err
	}

	return time.Date(year, month, day, hour, min, sec, 0, loc), nil
}

// ParseDate parses a "2006-01-02" date, optionally with a time part.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006-01-02 15:04", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("can not parse %q as date", s)
}

// DayOfWeek returns the day of week of t in the given location using the
// Sunday=1 .. Saturday=7 convention.
func DayOfWeek(t time.Time, loc *time.Location) int {
	return int(t.In(loc).Weekday()) + 1
}

const (
	Sunday    = 1
	Monday    = 2
	Tuesday   = 3
	Wednesday = 4
	Thursday  = 5
	Friday    = 6
	Saturday  = 7
)

// Year, Month, DayOfMonth, Hour, Minute, Second extract calendar fields of t
// observed in the given location.
func Year(t time.Time, loc *time.Location) int { return t.In(loc).Year() }

func Month(t time.Time, loc *time.Location) int { return int(t.In(loc).Month()) }

func DayOfMonth(t time.Time, loc *time.Location) int { return t.In(loc).Day() }

func Hour(t time.Time, loc *time.Location) int { return t.In(loc).Hour() }

func Minute(t time.Time, loc *time.Location) int { return t.In(loc).Minute() }

func Second(t time.Time, loc *time.Location) int { return t.In(loc).Second() }

// MinutesOfDay returns the wall-clock minutes since local midnight.
func MinutesOfDay(t time.Time, loc *time.Location) int {
	lt := t.In(loc)
	return lt.Hour()*60 + lt.Minute()
}

// FormatOffset renders a fixed offset like "+05:30" for display.
func FormatOffset(seconds int) string {
	sign := "+"
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	return fmt.Sprintf("%s%02d:%02d", sign, seconds/3600, (seconds%3600)/60)
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// NormalizeTimezone maps a few legacy exchange timezone spellings to IANA
// names before resolution.
var legacyNames = map[string]string{
	"EST": "America/New_York",
	"CET": "Europe/Paris",
	"JST": "Asia/Tokyo",
}

func NormalizeTimezone(name string) string {
	trimmed := strings.TrimSpace(name)
	if mapped, ok := legacyNames[trimmed]; ok {
		return mapped
	}
	return trimmed
}
