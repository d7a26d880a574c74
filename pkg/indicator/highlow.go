package indicator

import (
	"time"

	"github.com/tvlab/tvlab/pkg/types"
)

// Highest tracks the rolling maximum of the bar highs over the window.
//
//go:generate callbackgen -type Highest
type Highest struct {
	types.IntervalWindow
	Values types.Float64Slice

	raw     types.Float64Slice
	EndTime time.Time

	updateCallbacks []func(value float64)
}

func (inc *Highest) Update(value float64) {
	inc.raw.Push(value)
	if inc.raw.Length() < inc.Window {
		return
	}

	inc.Values.Push(inc.raw.Tail(inc.Window).Max())
}

func (inc *Highest) Last() float64 {
	return inc.Values.Last()
}

func (inc *Highest) Index(i int) float64 {
	return inc.Values.Index(i)
}

func (inc *Highest) Length() int {
	return inc.Values.Length()
}

func (inc *Highest) PushK(k types.KLine) {
	if inc.EndTime != zeroTime && !k.EndTime.Time().After(inc.EndTime) {
		return
	}

	inc.Update(k.High.Float64())
	inc.EndTime = k.EndTime.Time()
	inc.EmitUpdate(inc.Last())
}

// Lowest tracks the rolling minimum of the bar lows over the window.
//
//go:generate callbackgen -type Lowest
type Lowest struct {
	types.IntervalWindow
	Values types.Float64Slice

	raw     types.Float64Slice
	EndTime time.Time

	updateCallbacks []func(value float64)
}

func (inc *Lowest) Update(value float64) {
	inc.raw.Push(value)
	if inc.raw.Length() < inc.Window {
		return
	}

	inc.Values.Push(inc.raw.Tail(inc.Window).Min())
}

func (inc *Lowest) Last() float64 {
	return inc.Values.Last()
}

func (inc *Lowest) Index(i int) float64 {
	return inc.Values.Index(i)
}

func (inc *Lowest) Length() int {
	return inc.Values.Length()
}

func (inc *Lowest) PushK(k types.KLine) {
	if inc.EndTime != zeroTime && !k.EndTime.Time().After(inc.EndTime) {
		return
	}

	inc.Update(k.Low.Float64())
	inc.EndTime = k.EndTime.Time()
	inc.EmitUpdate(inc.Last())
}
