// Package datareq provides multi-timeframe data access: a base-interval kline
// stream is resampled into a higher timeframe, and the higher-timeframe series
// can be read back aligned to the base bars.
package datareq

import (
	"github.com/pkg/errors"

	"github.com/tvlab/tvlab/pkg/types"
)

// Resampler aggregates a base-interval kline stream into a target interval.
// Base bars are merged into a forming target bar; the bar closes when the
// next base bar falls into a new target slot.
//
//go:generate callbackgen -type Resampler
type Resampler struct {
	Symbol         string
	SourceInterval types.Interval
	TargetInterval types.Interval

	forming *types.KLine
	closed  types.KLineSlice

	klineClosedCallbacks []func(k types.KLine)
}

func NewResampler(symbol string, source, target types.Interval) (*Resampler, error) {
	if source.Minutes() <= 0 || target.Minutes() <= 0 {
		return nil, errors.Errorf("unsupported interval %s or %s", source, target)
	}

	if target.Minutes() <= source.Minutes() {
		return nil, errors.Errorf("target interval %s must be larger than the source interval %s", target, source)
	}

	if target.Minutes()%source.Minutes() != 0 {
		return nil, errors.Errorf("target interval %s is not a multiple of the source interval %s", target, source)
	}

	return &Resampler{
		Symbol:         symbol,
		SourceInterval: source,
		TargetInterval: target,
	}, nil
}

// PushK merges one closed base bar into the target series.
func (r *Resampler) PushK(k types.KLine) {
	slot := r.TargetInterval.Truncate(k.StartTime.Time())

	if r.forming != nil && !r.forming.StartTime.Time().Equal(slot) {
		r.closeForming()
	}

	if r.forming == nil {
		forming := k
		forming.Interval = r.TargetInterval
		forming.StartTime = types.Time(slot)
		forming.Closed = false
		r.forming = &forming
		return
	}

	r.forming.Merge(k)
	r.forming.Closed = false
}

func (r *Resampler) closeForming() {
	bar := *r.forming
	bar.Closed = true
	r.closed = append(r.closed, bar)
	r.forming = nil
	r.EmitKLineClosed(bar)
}

// Closed returns the last completed target bar. This is the lookahead-off
// view: only data older than the current target slot.
func (r *Resampler) Closed() (types.KLine, bool) {
	last := r.closed.Last()
	if last == nil {
		return types.KLine{}, false
	}
	return *last, true
}

// Forming returns the partially aggregated current target bar, the
// lookahead-on view of the series.
func (r *Resampler) Forming() (types.KLine, bool) {
	if r.forming == nil {
		return types.KLine{}, false
	}
	return *r.forming, true
}

// ClosedSeries returns all completed target bars.
func (r *Resampler) ClosedSeries() types.KLineSlice {
	return r.closed
}
