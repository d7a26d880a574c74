// Package indicator provides streaming technical indicators. Each indicator
// consumes values (or klines via PushK) one at a time and exposes its series
// through Last/Index/Length.
package indicator

import (
	"time"

	"github.com/tvlab/tvlab/pkg/types"
)

var zeroTime time.Time

//go:generate callbackgen -type SMA
type SMA struct {
	types.IntervalWindow
	Values types.Float64Slice

	raw     types.Float64Slice
	EndTime time.Time

	updateCallbacks []func(value float64)
}

func (inc *SMA) Update(value float64) {
	inc.raw.Push(value)
	if inc.raw.Length() < inc.Window {
		return
	}

	inc.Values.Push(inc.raw.Tail(inc.Window).Mean())
}

func (inc *SMA) Last() float64 {
	return inc.Values.Last()
}

func (inc *SMA) Index(i int) float64 {
	return inc.Values.Index(i)
}

func (inc *SMA) Length() int {
	return inc.Values.Length()
}

func (inc *SMA) PushK(k types.KLine) {
	if inc.EndTime != zeroTime && !k.EndTime.Time().After(inc.EndTime) {
		return
	}

	inc.Update(k.Close.Float64())
	inc.EndTime = k.EndTime.Time()
	inc.EmitUpdate(inc.Last())
}
