package datareq

import (
	"github.com/tvlab/tvlab/pkg/types"
)

// Lookahead selects which target bar a base bar observes.
type Lookahead bool

const (
	// LookaheadOff observes the last completed target bar. This is the safe
	// mode for backtesting.
	LookaheadOff Lookahead = false

	// LookaheadOn observes the final values of the target bar containing the
	// base bar, which leaks future data inside that bar.
	LookaheadOn Lookahead = true
)

// Gaps controls what a base bar observes when the target series has not
// produced a new value since the previous base bar.
type Gaps bool

const (
	// GapsOff repeats the previous target value on every base bar.
	GapsOff Gaps = false

	// GapsOn reports a value only on the first base bar after the target
	// series updates; other base bars observe nothing.
	GapsOn Gaps = true
)

// Align resamples the base bars to the target interval and returns, for each
// base bar, the target bar it observes under the given lookahead and gap
// modes. ok[i] is false when base bar i observes no value.
func Align(base []types.KLine, target types.Interval, lookahead Lookahead, gaps Gaps) (aligned []types.KLine, ok []bool, err error) {
	if len(base) == 0 {
		return nil, nil, nil
	}

	r, err := NewResampler(base[0].Symbol, base[0].Interval, target)
	if err != nil {
		return nil, nil, err
	}

	// index the final target bars by slot start for the lookahead-on mode
	finals := make(map[int64]types.KLine)
	if lookahead == LookaheadOn {
		final, err := NewResampler(base[0].Symbol, base[0].Interval, target)
		if err != nil {
			return nil, nil, err
		}
		for _, k := range base {
			final.PushK(k)
		}
		if final.forming != nil {
			final.closeForming()
		}
		for _, k := range final.ClosedSeries() {
			finals[k.StartTime.Unix()] = k
		}
	}

	aligned = make([]types.KLine, len(base))
	ok = make([]bool, len(base))

	var lastSeen types.KLine
	var hasSeen bool
	var fresh bool

	for i, k := range base {
		closedBefore := len(r.ClosedSeries())
		r.PushK(k)

		switch lookahead {
		case LookaheadOn:
			slot := target.Truncate(k.StartTime.Time())
			bar, has := finals[slot.Unix()]
			fresh = !hasSeen || !bar.StartTime.Time().Equal(lastSeen.StartTime.Time())
			lastSeen, hasSeen = bar, has

		default:
			if len(r.ClosedSeries()) > closedBefore {
				lastSeen = *r.ClosedSeries().Last()
				hasSeen = true
				fresh = true
			} else {
				fresh = false
			}
		}

		if !hasSeen {
			continue
		}

		if gaps == GapsOn && !fresh {
			continue
		}

		aligned[i] = lastSeen
		ok[i] = true
	}

	return aligned, ok, nil
}
