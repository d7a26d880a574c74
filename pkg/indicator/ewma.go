package indicator

import (
	"time"

	"github.com/tvlab/tvlab/pkg/types"
)

// EWMA is the standard exponential moving average with the 2/(n+1) multiplier.
//
//go:generate callbackgen -type EWMA
type EWMA struct {
	types.IntervalWindow
	Values types.Float64Slice

	EndTime time.Time

	updateCallbacks []func(value float64)
}

func (inc *EWMA) Update(value float64) {
	multiplier := 2.0 / float64(1+inc.Window)

	if inc.Values.Length() == 0 {
		inc.Values.Push(value)
		return
	}

	ema := (1-multiplier)*inc.Values.Last() + multiplier*value
	inc.Values.Push(ema)
}

func (inc *EWMA) Last() float64 {
	return inc.Values.Last()
}

func (inc *EWMA) Index(i int) float64 {
	return inc.Values.Index(i)
}

func (inc *EWMA) Length() int {
	return inc.Values.Length()
}

func (inc *EWMA) PushK(k types.KLine) {
	if inc.EndTime != zeroTime && !k.EndTime.Time().After(inc.EndTime) {
		return
	}

	inc.Update(k.Close.Float64())
	inc.EndTime = k.EndTime.Time()
	inc.EmitUpdate(inc.Last())
}
