package indicator

import (
	"time"

	"github.com/tvlab/tvlab/pkg/types"
)

// RMA is the exponential moving average with the Wilder smoothing alpha 1/n,
// used as the smoothing inside ATR and RSI.
//
//go:generate callbackgen -type RMA
type RMA struct {
	types.IntervalWindow
	Values types.Float64Slice

	counter  int
	sum      float64
	previous float64

	EndTime time.Time

	updateCallbacks []func(value float64)
}

func (inc *RMA) Update(value float64) {
	lambda := 1.0 / float64(inc.Window)

	inc.counter++
	if inc.counter < inc.Window {
		// seed with the simple average of the first window
		inc.sum += value
		return
	}

	if inc.counter == inc.Window {
		inc.sum += value
		inc.previous = inc.sum / float64(inc.Window)
	} else {
		inc.previous = (1-lambda)*inc.previous + lambda*value
	}

	inc.Values.Push(inc.previous)
}

func (inc *RMA) Last() float64 {
	return inc.Values.Last()
}

func (inc *RMA) Index(i int) float64 {
	return inc.Values.Index(i)
}

func (inc *RMA) Length() int {
	return inc.Values.Length()
}

func (inc *RMA) PushK(k types.KLine) {
	if inc.EndTime != zeroTime && !k.EndTime.Time().After(inc.EndTime) {
		return
	}

	inc.Update(k.Close.Float64())
	inc.EndTime = k.EndTime.Time()
	inc.EmitUpdate(inc.Last())
}
