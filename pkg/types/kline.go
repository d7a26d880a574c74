package types

import (
	"fmt"
	"time"

	"github.com/tvlab/tvlab/pkg/fixedpoint"
)

type Direction int

const DirectionUp = Direction(1)
const DirectionNone = Direction(0)
const DirectionDown = Direction(-1)

// KLine is a single OHLCV bar.
type KLine struct {
	GID uint64 `json:"gid" db:"gid"`

	Symbol string `json:"symbol" db:"symbol"`

	StartTime Time `json:"startTime" db:"start_time"`
	EndTime   Time `json:"endTime" db:"end_time"`

	Interval Interval `json:"interval" db:"interval"`

	Open   fixedpoint.Value `json:"open" db:"open"`
	High   fixedpoint.Value `json:"high" db:"high"`
	Low    fixedpoint.Value `json:"low" db:"low"`
	Close  fixedpoint.Value `json:"close" db:"close"`
	Volume fixedpoint.Value `json:"volume" db:"volume"`

	Closed bool `json:"closed" db:"closed"`
}

func (k KLine) GetStartTime() Time {
	return k.StartTime
}

func (k KLine) GetEndTime() Time {
	return k.EndTime
}

func (k KLine) GetOpen() fixedpoint.Value {
	return k.Open
}

func (k KLine) GetClose() fixedpoint.Value {
	return k.Close
}

func (k KLine) GetHigh() fixedpoint.Value {
	return k.High
}

func (k KLine) GetLow() fixedpoint.Value {
	return k.Low
}

func (k KLine) Direction() Direction {
	if k.Close.Compare(k.Open) > 0 {
		return DirectionUp
	} else if k.Close.Compare(k.Open) < 0 {
		return DirectionDown
	}
	return DirectionNone
}

func (k KLine) Mid() fixedpoint.Value {
	return k.High.Add(k.Low).DivFloat64(2.0)
}

// GetMaxChange returns the bar range (high - low).
func (k KLine) GetMaxChange() fixedpoint.Value {
	return k.High.Sub(k.Low)
}

// GetChange returns close - open.
func (k KLine) GetChange() fixedpoint.Value {
	return k.Close.Sub(k.Open)
}

// GetBody returns the height of the candle real body.
func (k KLine) GetBody() fixedpoint.Value {
	return k.GetChange().Abs()
}

func (k KLine) GetUpperShadowHeight() fixedpoint.Value {
	if k.Open.Compare(k.Close) > 0 {
		return k.High.Sub(k.Open)
	}
	return k.High.Sub(k.Close)
}

func (k KLine) GetLowerShadowHeight() fixedpoint.Value {
	if k.Open.Compare(k.Close) < 0 {
		return k.Open.Sub(k.Low)
	}
	return k.Close.Sub(k.Low)
}

// Merge merges a finer-grained bar into k, extending the end time and
// accumulating high/low/volume. Used by the multi-timeframe resampler.
func (k *KLine) Merge(o KLine) {
	k.EndTime = o.EndTime
	k.Close = o.Close
	k.High = fixedpoint.Max(k.High, o.High)
	k.Low = fixedpoint.Min(k.Low, o.Low)
	k.Volume = k.Volume.Add(o.Volume)
	k.Closed = o.Closed
}

func (k KLine) String() string {
	return fmt.Sprintf("%s %s %s O: %s H: %s L: %s C: %s V: %s",
		k.Symbol, k.Interval, k.StartTime.Time().Format("2006-01-02 15:04"),
		k.Open.String(), k.High.String(), k.Low.String(), k.Close.String(), k.Volume.String())
}

type KLineSlice []KLine

func (s KLineSlice) Last() *KLine {
	if len(s) == 0 {
		return nil
	}
	k := s[len(s)-1]
	return &k
}

// NewKLine builds a closed bar; the end time is one millisecond before the
// next bar opens, following the convention of most exchange feeds.
func NewKLine(symbol string, interval Interval, startTime time.Time, o, h, l, c, v fixedpoint.Value) KLine {
	return KLine{
		Symbol:    symbol,
		Interval:  interval,
		StartTime: Time(startTime),
		EndTime:   Time(startTime.Add(interval.Duration() - time.Millisecond)),
		Open:      o,
		High:      h,
		Low:       l,
		Close:     c,
		Volume:    v,
		Closed:    true,
	}
}

type KLineQueryOptions struct {
	Limit     int
	StartTime *time.Time
	EndTime   *time.Time
}
