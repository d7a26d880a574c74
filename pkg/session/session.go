// Package session parses and evaluates exchange trading-session
// specifications like "0930-1600:23456" or "1700-0200".
package session

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/tvlab/tvlab/pkg/timeutil"
)

// allDays is the default day mask: every day of the week, Sunday=1.
const allDays = "1234567"

// Range is one time range of a session in exchange-local wall-clock minutes.
// An overnight range has End < Start and spans midnight; its day mask applies
// to the day the range *ends* on.
type Range struct {
	Start int // minutes since midnight, inclusive
	End   int // minutes since midnight, exclusive
	Days  [8]bool
}

func (r Range) Overnight() bool {
	return r.End < r.Start
}

// Spec is a parsed session specification: one or more ranges, evaluated in
// an exchange timezone.
type Spec struct {
	Ranges   []Range
	Location *time.Location

	raw string
}

// Parse parses a session string in the exchange timezone. Supported forms:
//
//	"24x7"                 the whole week
//	"0930-1600"            one range, every day
//	"0930-1600:23456"      one range with a day mask (1=Sunday .. 7=Saturday)
//	"0900-1200,1300-1700"  multiple ranges
//	"1700-0200:2345"       overnight range, mask applies to the end day
//	"0000-0000"            a full 24-hour day
func Parse(spec string, timezone string) (*Spec, error) {
	loc, err := timeutil.LoadLocation(timezone)
	if err != nil {
		return nil, err
	}

	s := &Spec{Location: loc, raw: spec}

	spec = strings.TrimSpace(spec)
	if spec == "" || spec == "24x7" {
		s.Ranges = []Range{{Start: 0, End: 24 * 60, Days: parseDays(allDays)}}
		return s, nil
	}

	body := spec
	days := allDays
	if idx := strings.IndexByte(spec, ':'); idx >= 0 {
		body = spec[:idx]
		days = spec[idx+1:]
		if days == "" {
			return nil, errors.Errorf("session %q has an empty day mask", spec)
		}
	}

	dayMask := parseDays(days)
	if dayMask == ([8]bool{}) {
		return nil, errors.Errorf("session %q has an invalid day mask %q", spec, days)
	}

	for _, part := range strings.Split(body, ",") {
		r, err := parseRange(part, dayMask)
		if err != nil {
			return nil, errors.Wrapf(err, "session %q", spec)
		}
		s.Ranges = append(s.Ranges, r)
	}

	return s, nil
}

func MustParse(spec string, timezone string) *Spec {
	s, err := Parse(spec, timezone)
	if err != nil {
		panic(err)
	}
	return s
}

func parseRange(part string, days [8]bool) (Range, error) {
	fields := strings.Split(strings.TrimSpace(part), "-")
	if len(fields) != 2 {
		return Range{}, errors.Errorf("range %q must be HHMM-HHMM", part)
	}

	start, err := parseHHMM(fields[0])
	if err != nil {
		return Range{}, err
	}

	end, err := parseHHMM(fields[1])
	if err != nil {
		return Range{}, err
	}

	// "0000-0000" means the full day
	if start == 0 && end == 0 {
		end = 24 * 60
	}

	return Range{Start: start, End: end, Days: days}, nil
}

func parseHHMM(s string) (int, error) {
	if len(s) != 4 {
		return 0, errors.Errorf("time %q must be HHMM", s)
	}

	hh, err := strconv.Atoi(s[:2])
	if err != nil {
		return 0, errors.Errorf("time %q must be HHMM", s)
	}

	mm, err := strconv.Atoi(s[2:])
	if err != nil {
		return 0, errors.Errorf("time %q must be HHMM", s)
	}

	if hh > 24 || mm > 59 {
		return 0, errors.Errorf("time %q is out of range", s)
	}

	return hh*60 + mm, nil
}

func parseDays(days string) (mask [8]bool) {
	for _, c := range days {
		d := int(c - '0')
		if d >= 1 && d <= 7 {
			mask[d] = true
		}
	}
	return mask
}

// Contains reports whether t falls inside the session. The timestamp is
// observed in the exchange timezone. For an overnight range the day mask is
// checked against the day the range ends on.
func (s *Spec) Contains(t time.Time) bool {
	lt := t.In(s.Location)
	minutes := lt.Hour()*60 + lt.Minute()
	day := timeutil.DayOfWeek(lt, s.Location)

	for _, r := range s.Ranges {
		if !r.Overnight() {
			if r.Days[day] && minutes >= r.Start && minutes < r.End {
				return true
			}
			continue
		}

		// evening part: the range ends tomorrow
		if minutes >= r.Start {
			nextDay := day%7 + 1
			if r.Days[nextDay] {
				return true
			}
			continue
		}

		// morning part: the range ends today
		if minutes < r.End && r.Days[day] {
			return true
		}
	}

	return false
}

func (s *Spec) String() string {
	if s.raw == "" {
		return "24x7"
	}
	return s.raw
}

// Tracker detects session boundaries on a stream of bar open times.
type Tracker struct {
	spec *Spec

	hasPrev    bool
	prevInside bool
	prevTime   time.Time
}

func NewTracker(spec *Spec) *Tracker {
	return &Tracker{spec: spec}
}

// Update advances the tracker to the next bar open time and reports whether
// that bar is the first bar of a session and whether the previous bar was the
// last bar of its session.
func (tr *Tracker) Update(t time.Time) (firstBar, prevWasLast bool) {
	inside := tr.spec.Contains(t)

	if inside && (!tr.hasPrev || !tr.prevInside) {
		firstBar = true
	}
	if !inside && tr.hasPrev && tr.prevInside {
		prevWasLast = true
	}

	// a gap of a day or more inside a 24x7 session is also a boundary
	if inside && tr.hasPrev && tr.prevInside && t.Sub(tr.prevTime) >= 24*time.Hour {
		firstBar = true
		prevWasLast = true
	}

	tr.hasPrev = true
	tr.prevInside = inside
	tr.prevTime = t
	return firstBar, prevWasLast
}
