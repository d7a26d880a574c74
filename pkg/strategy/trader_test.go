package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tvlab/tvlab/pkg/broker"
	"github.com/tvlab/tvlab/pkg/fixedpoint"
	"github.com/tvlab/tvlab/pkg/types"
)

type stepStrategy struct {
	entryBar int
	exitBar  int
}

func (s *stepStrategy) ID() string  { return "step" }
func (s *stepStrategy) Warmup() int { return 0 }

func (s *stepStrategy) OnBar(ctx *Context) {
	switch ctx.BarIndex() {
	case s.entryBar:
		_ = ctx.EntryQuantity("long", types.SideTypeBuy, fixedpoint.One)
	case s.exitBar:
		_ = ctx.CloseAll()
	}
}

func testKLines(n int, start float64) (klines []types.KLine) {
	t0 := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		p := start + float64(i)
		klines = append(klines, types.NewKLine("BTCUSDT", types.Interval1h,
			t0.Add(time.Duration(i)*time.Hour),
			fixedpoint.NewFromFloat(p),
			fixedpoint.NewFromFloat(p+2),
			fixedpoint.NewFromFloat(p-2),
			fixedpoint.NewFromFloat(p+1),
			fixedpoint.NewFromFloat(100)))
	}
	return klines
}

func newTestEngine() *broker.Engine {
	market := types.Market{
		Symbol:          "BTCUSDT",
		BaseCurrency:    "BTC",
		QuoteCurrency:   "USDT",
		VolumePrecision: 4,
	}
	return broker.NewEngine("BTCUSDT", market, &broker.Config{})
}

func TestTrader_Run(t *testing.T) {
	engine := newTestEngine()
	trader := NewTrader(&stepStrategy{entryBar: 1, exitBar: 4}, engine,
		Sizing{Type: SizingTypeFixed, Value: fixedpoint.One}, nil)

	klines := testKLines(8, 100)
	err := trader.Run(context.Background(), klines)
	require.NoError(t, err)

	// entry queued on bar 1 fills at the open of bar 2, exit queued on bar 4
	// fills at the open of bar 5
	trades := engine.Trades()
	require.Len(t, trades, 2)
	assert.Equal(t, "102", trades[0].Price.String())
	assert.Equal(t, "105", trades[1].Price.String())

	closed := engine.ClosedTrades()
	require.Len(t, closed, 1)
	assert.Equal(t, "3", closed[0].NetProfit.String())

	assert.Equal(t, len(klines), trader.EquityCurve.Length())
	assert.True(t, engine.Position.IsFlat())
}

func TestTrader_RunCanceled(t *testing.T) {
	engine := newTestEngine()
	trader := NewTrader(&stepStrategy{entryBar: 1, exitBar: 4}, engine,
		Sizing{Type: SizingTypeFixed, Value: fixedpoint.One}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := trader.Run(ctx, testKLines(8, 100))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, trader.EquityCurve.Length())
}

type trailStrategy struct {
	entered bool
	trailed bool
}

func (s *trailStrategy) ID() string  { return "trail-test" }
func (s *trailStrategy) Warmup() int { return 0 }

func (s *trailStrategy) OnBar(ctx *Context) {
	if !s.entered {
		_ = ctx.EntryQuantity("long", types.SideTypeBuy, fixedpoint.One)
		s.entered = true
		return
	}

	if !s.trailed && ctx.Size().Sign() > 0 {
		_ = ctx.Exit("trail", ExitOptions{TrailOffset: fixedpoint.NewFromInt(5)})
		s.trailed = true
	}
}

func TestTrader_TrailingStop(t *testing.T) {
	bar := func(i int, o, h, l, c float64) types.KLine {
		t0 := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
		return types.NewKLine("BTCUSDT", types.Interval1h,
			t0.Add(time.Duration(i)*time.Hour),
			fixedpoint.NewFromFloat(o),
			fixedpoint.NewFromFloat(h),
			fixedpoint.NewFromFloat(l),
			fixedpoint.NewFromFloat(c),
			fixedpoint.NewFromFloat(100))
	}

	klines := []types.KLine{
		bar(0, 100, 101, 99, 100),  // entry submitted
		bar(1, 100, 106, 99, 105),  // entry fills at 100, trail stop placed at 100
		bar(2, 106, 112, 105, 110), // stop ratchets to 105
		bar(3, 111, 116, 110, 115), // stop ratchets to 110
		bar(4, 114, 114, 104, 106), // falls through 110, stop fills
	}

	engine := newTestEngine()
	trader := NewTrader(&trailStrategy{}, engine,
		Sizing{Type: SizingTypeFixed, Value: fixedpoint.One}, nil)
	require.NoError(t, trader.Run(context.Background(), klines))

	closed := engine.ClosedTrades()
	require.Len(t, closed, 1)
	assert.Equal(t, "100", closed[0].EntryPrice.String())
	assert.Equal(t, "110", closed[0].ExitPrice.String())
	assert.Equal(t, "10", closed[0].NetProfit.String())
	assert.True(t, engine.Position.IsFlat())
	assert.Empty(t, trader.Context.trails)
}
