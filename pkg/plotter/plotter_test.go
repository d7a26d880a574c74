package plotter

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tvlab/tvlab/pkg/fixedpoint"
	"github.com/tvlab/tvlab/pkg/types"
)

func testBars(n int) (klines []types.KLine) {
	t0 := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		p := float64(100 + i)
		klines = append(klines, types.NewKLine("BTCUSDT", types.Interval1h,
			t0.Add(time.Duration(i)*time.Hour),
			fixedpoint.NewFromFloat(p),
			fixedpoint.NewFromFloat(p+2),
			fixedpoint.NewFromFloat(p-2),
			fixedpoint.NewFromFloat(p+1),
			fixedpoint.NewFromFloat(10)))
	}
	return klines
}

func TestPlotter_SeriesAlignment(t *testing.T) {
	p := New("BTCUSDT")

	bars := testBars(4)

	// plot only on bars 1 and 3
	for i, k := range bars {
		p.PushK(k)
		if i%2 == 1 {
			p.Plot("sma", float64(i))
		}
	}

	s := p.lines["sma"]
	require.NotNil(t, s)

	padded := s.padded(p.NumBars())
	require.Len(t, padded, 4)
	assert.True(t, math.IsNaN(padded[0]))
	assert.Equal(t, 1.0, padded[1])
	assert.True(t, math.IsNaN(padded[2]))
	assert.Equal(t, 3.0, padded[3])
}

func TestPlotter_Markers(t *testing.T) {
	p := New("BTCUSDT")
	for _, k := range testBars(3) {
		p.PushK(k)
	}

	p.Mark(BelowBar, "buy", "green")
	markers := p.Markers()
	require.Len(t, markers, 1)
	assert.Equal(t, 2, markers[0].BarIndex)
	// below-bar markers anchor at the bar low
	assert.Equal(t, 100.0, markers[0].Price)
}

func TestPlotter_RenderHTML(t *testing.T) {
	p := New("BTCUSDT")
	for i, k := range testBars(5) {
		p.PushK(k)
		p.Plot("sma", 100+float64(i))
	}
	p.Mark(AboveBar, "sell", "red")
	p.HLine("support", 99, "gray")

	var buf bytes.Buffer
	err := p.RenderHTML(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "BTCUSDT")
}

func TestRenderEquityPNG(t *testing.T) {
	t0 := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	var times []time.Time
	var equity types.Float64Slice
	for i := 0; i < 10; i++ {
		times = append(times, t0.Add(time.Duration(i)*time.Hour))
		equity.Push(1000 + float64(i*10))
	}

	var buf bytes.Buffer
	err := RenderEquityPNG(&buf, times, equity)
	require.NoError(t, err)
	assert.NotZero(t, buf.Len())

	err = RenderEquityPNG(&buf, times[:5], equity)
	assert.Error(t, err)
}

func TestPlotter_FillBetween(t *testing.T) {
	p := New("BTCUSDT")
	for i, k := range testBars(3) {
		p.PushK(k)
		p.Plot("upper", 110+float64(i))
		p.Plot("lower", 90+float64(i))
	}
	p.FillBetween("upper", "lower", "rgba(0,128,255,0.2)")

	var buf bytes.Buffer
	require.NoError(t, p.RenderHTML(&buf))
	assert.Contains(t, buf.String(), "upper/lower")
}
