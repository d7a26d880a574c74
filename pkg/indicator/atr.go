package indicator

import (
	"math"
	"time"

	"github.com/tvlab/tvlab/pkg/types"
)

//go:generate callbackgen -type ATR
type ATR struct {
	types.IntervalWindow
	Values types.Float64Slice

	previousClose float64
	rma           *RMA

	EndTime time.Time

	updateCallbacks []func(value float64)
}

func (inc *ATR) Update(high, low, close float64) {
	if inc.Window <= 0 {
		panic("atr window must be greater than 0")
	}

	if inc.rma == nil {
		inc.rma = &RMA{IntervalWindow: types.IntervalWindow{Window: inc.Window}}
	}

	// the first bar has no previous close, its true range is the bar range
	trueRange := high - low
	if inc.previousClose != 0 {
		trueRange = math.Max(high-low,
			math.Max(math.Abs(high-inc.previousClose), math.Abs(low-inc.previousClose)))
	}
	inc.previousClose = close

	inc.rma.Update(trueRange)
	if inc.rma.Length() > 0 {
		inc.Values.Push(inc.rma.Last())
	}
}

func (inc *ATR) Last() float64 {
	return inc.Values.Last()
}

func (inc *ATR) Index(i int) float64 {
	return inc.Values.Index(i)
}

func (inc *ATR) Length() int {
	return inc.Values.Length()
}

func (inc *ATR) PushK(k types.KLine) {
	if inc.EndTime != zeroTime && !k.EndTime.Time().After(inc.EndTime) {
		return
	}

	inc.Update(k.High.Float64(), k.Low.Float64(), k.Close.Float64())
	inc.EndTime = k.EndTime.Time()
	inc.EmitUpdate(inc.Last())
}
