package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tvlab/tvlab/pkg/types"
)

func TestSMA(t *testing.T) {
	sma := &SMA{IntervalWindow: types.IntervalWindow{Window: 3}}
	for _, v := range []float64{1, 2, 3, 4, 5} {
		sma.Update(v)
	}

	assert.Equal(t, 3, sma.Length())
	assert.InDelta(t, 4.0, sma.Last(), 1e-9)
	assert.InDelta(t, 3.0, sma.Index(1), 1e-9)
	assert.InDelta(t, 2.0, sma.Index(2), 1e-9)
}

func TestEWMA(t *testing.T) {
	ema := &EWMA{IntervalWindow: types.IntervalWindow{Window: 3}}
	for _, v := range []float64{1, 2, 3, 4, 5} {
		ema.Update(v)
	}

	// multiplier = 0.5
	assert.InDelta(t, 4.0625, ema.Last(), 1e-9)
}

func TestRMA(t *testing.T) {
	rma := &RMA{IntervalWindow: types.IntervalWindow{Window: 3}}
	for _, v := range []float64{1, 2, 3, 4, 5} {
		rma.Update(v)
	}

	assert.Equal(t, 3, rma.Length())
	assert.InDelta(t, 2.0, rma.Index(2), 1e-9)
	assert.InDelta(t, 8.0/3.0, rma.Index(1), 1e-9)
	assert.InDelta(t, (8.0/3.0)*(2.0/3.0)+5.0/3.0, rma.Last(), 1e-9)
}

func TestATR(t *testing.T) {
	atr := &ATR{IntervalWindow: types.IntervalWindow{Window: 2}}

	// the first true range is the bar range
	atr.Update(10, 8, 9)
	assert.Equal(t, 0, atr.Length())

	// gap up, the true range extends back to the previous close:
	// max(12-11, |12-9|, |11-9|) = 3, rma = (2+3)/2
	atr.Update(12, 11, 12)
	assert.Equal(t, 1, atr.Length())
	assert.InDelta(t, 2.5, atr.Last(), 1e-9)

	// tr = max(13-10, |13-12|, |10-12|) = 3, rma = 0.5*2.5 + 0.5*3
	atr.Update(13, 10, 11)
	assert.InDelta(t, 2.75, atr.Last(), 1e-9)
}

func TestHighestLowest(t *testing.T) {
	highest := &Highest{IntervalWindow: types.IntervalWindow{Window: 3}}
	lowest := &Lowest{IntervalWindow: types.IntervalWindow{Window: 3}}

	for _, v := range []float64{5, 3, 8, 2, 9} {
		highest.Update(v)
		lowest.Update(v)
	}

	assert.InDelta(t, 9.0, highest.Last(), 1e-9)
	assert.InDelta(t, 8.0, highest.Index(1), 1e-9)
	assert.InDelta(t, 2.0, lowest.Last(), 1e-9)
	assert.InDelta(t, 3.0, lowest.Index(2), 1e-9)
}
