package broker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tvlab/tvlab/pkg/fixedpoint"
	"github.com/tvlab/tvlab/pkg/types"
)

var testStart = time.Date(2024, time.January, 2, 9, 0, 0, 0, time.UTC)

func newTestMarket() types.Market {
	return types.Market{
		Symbol:          "BTCUSDT",
		BaseCurrency:    "BTC",
		QuoteCurrency:   "USDT",
		PricePrecision:  2,
		VolumePrecision: 4,
		TickSize:        fixedpoint.NewFromFloat(0.01),
	}
}

func newTestEngine(config *Config) *Engine {
	if config == nil {
		config = &Config{}
	}
	return NewEngine("BTCUSDT", newTestMarket(), config)
}

func bar(n int, o, h, l, c float64) types.KLine {
	return types.NewKLine("BTCUSDT", types.Interval1m,
		testStart.Add(time.Duration(n)*time.Minute),
		fixedpoint.NewFromFloat(o),
		fixedpoint.NewFromFloat(h),
		fixedpoint.NewFromFloat(l),
		fixedpoint.NewFromFloat(c),
		fixedpoint.NewFromFloat(100))
}

func marketOrder(side types.SideType, quantity float64) types.SubmitOrder {
	return types.SubmitOrder{
		Symbol:   "BTCUSDT",
		Side:     side,
		Type:     types.OrderTypeMarket,
		Quantity: fixedpoint.NewFromFloat(quantity),
	}
}

func TestEngine_MarketOrderFillsAtNextOpen(t *testing.T) {
	e := newTestEngine(nil)

	o, err := e.PlaceOrder(marketOrder(types.SideTypeBuy, 1))
	assert.NoError(t, err)
	assert.Equal(t, types.OrderStatusNew, o.Status)
	assert.Len(t, e.Trades(), 0)

	e.ProcessKLine(bar(0, 100, 110, 95, 105))

	trades := e.Trades()
	if assert.Len(t, trades, 1) {
		assert.Equal(t, "100", trades[0].Price.String())
		assert.Equal(t, types.SideTypeBuy, trades[0].Side)
	}

	assert.Equal(t, "1", e.Position.Quantity().String())
	assert.Equal(t, "99900", e.Cash().String())
}

func TestEngine_ProcessOrdersOnClose(t *testing.T) {
	e := newTestEngine(&Config{ProcessOrdersOnClose: true})
	e.ProcessKLine(bar(0, 100, 110, 95, 105))

	_, err := e.PlaceOrder(marketOrder(types.SideTypeBuy, 1))
	assert.NoError(t, err)

	trades := e.Trades()
	if assert.Len(t, trades, 1) {
		assert.Equal(t, "105", trades[0].Price.String())
	}
}

func TestEngine_LimitOrderFillsAtLimit(t *testing.T) {
	e := newTestEngine(nil)

	_, err := e.PlaceOrder(types.SubmitOrder{
		Symbol:   "BTCUSDT",
		Side:     types.SideTypeBuy,
		Type:     types.OrderTypeLimit,
		Quantity: fixedpoint.One,
		Price:    fixedpoint.NewFromFloat(98),
	})
	assert.NoError(t, err)

	// rising bar: the price dips to the low before the high
	e.ProcessKLine(bar(0, 100, 105, 97, 104))

	trades := e.Trades()
	if assert.Len(t, trades, 1) {
		assert.Equal(t, "98", trades[0].Price.String())
		assert.True(t, trades[0].IsMaker)
	}
	assert.Len(t, e.OpenOrders(), 0)
}

func TestEngine_LimitOrderMarketableAtOpen(t *testing.T) {
	e := newTestEngine(nil)

	_, err := e.PlaceOrder(types.SubmitOrder{
		Symbol:   "BTCUSDT",
		Side:     types.SideTypeBuy,
		Type:     types.OrderTypeLimit,
		Quantity: fixedpoint.One,
		Price:    fixedpoint.NewFromFloat(105),
	})
	assert.NoError(t, err)

	// the bar opens below the limit and never trades lower
	e.ProcessKLine(bar(0, 100, 110, 100, 110))

	trades := e.Trades()
	if assert.Len(t, trades, 1) {
		assert.Equal(t, "100", trades[0].Price.String())
	}
}

func TestEngine_StopMarketTriggers(t *testing.T) {
	e := newTestEngine(nil)

	_, err := e.PlaceOrder(types.SubmitOrder{
		Symbol:    "BTCUSDT",
		Side:      types.SideTypeSell,
		Type:      types.OrderTypeStopMarket,
		Quantity:  fixedpoint.One,
		StopPrice: fixedpoint.NewFromFloat(95),
	})
	assert.NoError(t, err)

	// not reached yet
	e.ProcessKLine(bar(0, 100, 102, 96, 101))
	assert.Len(t, e.Trades(), 0)
	assert.Len(t, e.OpenOrders(), 1)

	// falling bar trades through the stop
	e.ProcessKLine(bar(1, 100, 102, 90, 92))

	trades := e.Trades()
	if assert.Len(t, trades, 1) {
		assert.Equal(t, "95", trades[0].Price.String())
		assert.Equal(t, types.SideTypeSell, trades[0].Side)
	}
}

func TestEngine_StopFillsAtOpenOnGap(t *testing.T) {
	e := newTestEngine(nil)

	_, err := e.PlaceOrder(types.SubmitOrder{
		Symbol:    "BTCUSDT",
		Side:      types.SideTypeBuy,
		Type:      types.OrderTypeStopMarket,
		Quantity:  fixedpoint.One,
		StopPrice: fixedpoint.NewFromFloat(105),
	})
	assert.NoError(t, err)

	e.ProcessKLine(bar(0, 100, 101, 99, 100))
	assert.Len(t, e.Trades(), 0)

	// the next bar gaps over the stop; the fill happens at the open
	e.ProcessKLine(bar(1, 110, 112, 109, 111))

	trades := e.Trades()
	if assert.Len(t, trades, 1) {
		assert.Equal(t, "110", trades[0].Price.String())
	}
}

func TestEngine_StopLimitConvertsToLimit(t *testing.T) {
	e := newTestEngine(nil)

	_, err := e.PlaceOrder(types.SubmitOrder{
		Symbol:    "BTCUSDT",
		Side:      types.SideTypeBuy,
		Type:      types.OrderTypeStopLimit,
		Quantity:  fixedpoint.One,
		StopPrice: fixedpoint.NewFromFloat(105),
		Price:     fixedpoint.NewFromFloat(104),
	})
	assert.NoError(t, err)

	// the stop triggers but the limit is below the market, so it rests
	e.ProcessKLine(bar(0, 100, 106, 100, 106))
	assert.Len(t, e.Trades(), 0)

	open := e.OpenOrders()
	if assert.Len(t, open, 1) {
		assert.Equal(t, types.OrderTypeLimit, open[0].Type)
	}

	// the market falls back to the limit
	e.ProcessKLine(bar(1, 106, 107, 103, 103))

	trades := e.Trades()
	if assert.Len(t, trades, 1) {
		assert.Equal(t, "104", trades[0].Price.String())
	}
}

func TestEngine_OCACancel(t *testing.T) {
	e := newTestEngine(nil)

	_, err := e.PlaceOrder(marketOrder(types.SideTypeBuy, 1))
	assert.NoError(t, err)
	e.ProcessKLine(bar(0, 100, 101, 99, 100))

	takeProfit, err := e.PlaceOrder(types.SubmitOrder{
		Symbol:     "BTCUSDT",
		Side:       types.SideTypeSell,
		Type:       types.OrderTypeLimit,
		Quantity:   fixedpoint.One,
		Price:      fixedpoint.NewFromFloat(110),
		OCAGroup:   "exit",
		OCAMode:    types.OCAModeCancel,
		ReduceOnly: true,
	})
	assert.NoError(t, err)

	stopLoss, err := e.PlaceOrder(types.SubmitOrder{
		Symbol:     "BTCUSDT",
		Side:       types.SideTypeSell,
		Type:       types.OrderTypeStopMarket,
		Quantity:   fixedpoint.One,
		StopPrice:  fixedpoint.NewFromFloat(95),
		OCAGroup:   "exit",
		OCAMode:    types.OCAModeCancel,
		ReduceOnly: true,
	})
	assert.NoError(t, err)

	// the take profit fills, the stop must be gone
	e.ProcessKLine(bar(1, 100, 112, 99, 111))

	assert.Len(t, e.OpenOrders(), 0)
	assert.True(t, e.Position.IsFlat())

	filled, ok := e.ClosedOrder(takeProfit.OrderID)
	assert.True(t, ok)
	assert.Equal(t, types.OrderStatusFilled, filled.Status)

	canceled, ok := e.ClosedOrder(stopLoss.OrderID)
	assert.True(t, ok)
	assert.Equal(t, types.OrderStatusCanceled, canceled.Status)
}

func TestEngine_OCAReduce(t *testing.T) {
	e := newTestEngine(nil)

	_, err := e.PlaceOrder(marketOrder(types.SideTypeBuy, 1))
	assert.NoError(t, err)
	e.ProcessKLine(bar(0, 100, 101, 99, 100))

	_, err = e.PlaceOrder(types.SubmitOrder{
		Symbol:     "BTCUSDT",
		Side:       types.SideTypeSell,
		Type:       types.OrderTypeLimit,
		Quantity:   fixedpoint.NewFromFloat(0.5),
		Price:      fixedpoint.NewFromFloat(110),
		OCAGroup:   "exit",
		OCAMode:    types.OCAModeReduce,
		ReduceOnly: true,
	})
	assert.NoError(t, err)

	stopLoss, err := e.PlaceOrder(types.SubmitOrder{
		Symbol:     "BTCUSDT",
		Side:       types.SideTypeSell,
		Type:       types.OrderTypeStopMarket,
		Quantity:   fixedpoint.One,
		StopPrice:  fixedpoint.NewFromFloat(95),
		OCAGroup:   "exit",
		OCAMode:    types.OCAModeReduce,
		ReduceOnly: true,
	})
	assert.NoError(t, err)

	// the partial take profit fills and shrinks the stop
	e.ProcessKLine(bar(1, 100, 112, 99, 111))

	open := e.OpenOrders()
	if assert.Len(t, open, 1) {
		assert.Equal(t, stopLoss.OrderID, open[0].OrderID)
		assert.Equal(t, "0.5", open[0].Quantity.String())
	}
	assert.Equal(t, "0.5", e.Position.Quantity().String())
}

func TestEngine_PyramidingLimitRejectsEntries(t *testing.T) {
	e := newTestEngine(&Config{Pyramiding: 1})

	_, err := e.PlaceOrder(marketOrder(types.SideTypeBuy, 1))
	assert.NoError(t, err)
	e.ProcessKLine(bar(0, 100, 101, 99, 100))

	second, err := e.PlaceOrder(marketOrder(types.SideTypeBuy, 1))
	assert.NoError(t, err)
	e.ProcessKLine(bar(1, 100, 101, 99, 100))

	assert.Len(t, e.Trades(), 1)
	assert.Equal(t, "1", e.Position.Quantity().String())

	rejected, ok := e.ClosedOrder(second.OrderID)
	assert.True(t, ok)
	assert.Equal(t, types.OrderStatusRejected, rejected.Status)
}

func TestEngine_FIFOClosing(t *testing.T) {
	e := newTestEngine(&Config{Pyramiding: 2})

	_, err := e.PlaceOrder(marketOrder(types.SideTypeBuy, 1))
	assert.NoError(t, err)
	e.ProcessKLine(bar(0, 100, 101, 99, 100))

	_, err = e.PlaceOrder(marketOrder(types.SideTypeBuy, 1))
	assert.NoError(t, err)
	e.ProcessKLine(bar(1, 110, 111, 109, 110))

	_, err = e.PlaceOrder(marketOrder(types.SideTypeSell, 1.5))
	assert.NoError(t, err)
	e.ProcessKLine(bar(2, 120, 121, 119, 120))

	closed := e.ClosedTrades()
	if assert.Len(t, closed, 2) {
		assert.Equal(t, "100", closed[0].EntryPrice.String())
		assert.Equal(t, "1", closed[0].Quantity.String())
		assert.Equal(t, "20", closed[0].NetProfit.String())

		assert.Equal(t, "110", closed[1].EntryPrice.String())
		assert.Equal(t, "0.5", closed[1].Quantity.String())
		assert.Equal(t, "5", closed[1].NetProfit.String())
	}

	assert.Equal(t, "0.5", e.Position.Quantity().String())
	assert.Equal(t, types.SideTypeBuy, e.Position.Side)
}

func TestEngine_OversizedExitReverses(t *testing.T) {
	e := newTestEngine(nil)

	_, err := e.PlaceOrder(marketOrder(types.SideTypeBuy, 1))
	assert.NoError(t, err)
	e.ProcessKLine(bar(0, 100, 101, 99, 100))

	_, err = e.PlaceOrder(marketOrder(types.SideTypeSell, 2))
	assert.NoError(t, err)
	e.ProcessKLine(bar(1, 110, 111, 109, 110))

	closed := e.ClosedTrades()
	if assert.Len(t, closed, 1) {
		assert.Equal(t, "10", closed[0].NetProfit.String())
	}

	assert.Equal(t, types.SideTypeSell, e.Position.Side)
	assert.Equal(t, "1", e.Position.Quantity().String())
	assert.Equal(t, "110", e.Position.AverageCost().String())
}

func TestEngine_ReduceOnlyClamps(t *testing.T) {
	e := newTestEngine(nil)

	_, err := e.PlaceOrder(marketOrder(types.SideTypeBuy, 1))
	assert.NoError(t, err)
	e.ProcessKLine(bar(0, 100, 101, 99, 100))

	exit := marketOrder(types.SideTypeSell, 5)
	exit.ReduceOnly = true
	_, err = e.PlaceOrder(exit)
	assert.NoError(t, err)
	e.ProcessKLine(bar(1, 110, 111, 109, 110))

	assert.True(t, e.Position.IsFlat())

	trades := e.Trades()
	if assert.Len(t, trades, 2) {
		assert.Equal(t, "1", trades[1].Quantity.String())
	}
}

func TestEngine_MarginCallLiquidates(t *testing.T) {
	e := newTestEngine(&Config{
		InitialCapital: fixedpoint.NewFromInt(1000),
		MarginLong:     fixedpoint.NewFromFloat(0.5),
	})

	var calls []MarginCall
	e.OnMarginCall(func(call MarginCall) {
		calls = append(calls, call)
	})

	_, err := e.PlaceOrder(marketOrder(types.SideTypeBuy, 20))
	assert.NoError(t, err)
	e.ProcessKLine(bar(0, 100, 101, 99, 100))
	assert.Len(t, calls, 0)

	// equity 900 drops below the required 950
	e.ProcessKLine(bar(1, 100, 100, 95, 95))

	if assert.Len(t, calls, 1) {
		assert.Equal(t, "5", calls[0].Quantity.String())
		assert.Equal(t, "900", calls[0].Equity.String())
		assert.Equal(t, "950", calls[0].RequiredMargin.String())
	}

	assert.Equal(t, "15", e.Position.Quantity().String())

	closed := e.ClosedTrades()
	if assert.Len(t, closed, 1) {
		assert.Equal(t, "margin-call", closed[0].ExitTag)
	}
}

func TestEngine_MarginCallLiquidatesInSteps(t *testing.T) {
	e := newTestEngine(&Config{
		InitialCapital: fixedpoint.NewFromInt(1000),
		MarginLong:     fixedpoint.NewFromFloat(0.5),
	})

	var calls []MarginCall
	e.OnMarginCall(func(call MarginCall) {
		calls = append(calls, call)
	})

	_, err := e.PlaceOrder(marketOrder(types.SideTypeBuy, 20))
	assert.NoError(t, err)
	e.ProcessKLine(bar(0, 100, 101, 99, 100))

	// the crash wipes out the equity, so every quarter step stays below the
	// requirement and the whole position goes
	e.ProcessKLine(bar(1, 100, 100, 50, 50))

	if assert.Len(t, calls, 4) {
		for _, call := range calls {
			assert.Equal(t, "5", call.Quantity.String())
		}
	}

	assert.True(t, e.Position.IsFlat())
}

func TestEngine_SlippageAndCommission(t *testing.T) {
	e := newTestEngine(&Config{
		SlippageTicks:      2,
		CommissionPercent:  fixedpoint.NewFromFloat(0.001),
		CommissionPerOrder: fixedpoint.One,
	})

	_, err := e.PlaceOrder(marketOrder(types.SideTypeBuy, 1))
	assert.NoError(t, err)
	e.ProcessKLine(bar(0, 100, 101, 99, 100))

	trades := e.Trades()
	if assert.Len(t, trades, 1) {
		assert.Equal(t, "100.02", trades[0].Price.String())
		assert.Equal(t, "0.02", trades[0].Slippage.String())
		assert.InDelta(t, 1.10002, trades[0].Fee.Float64(), 1e-8)
	}
}

func TestEngine_CancelAll(t *testing.T) {
	e := newTestEngine(nil)

	for _, price := range []float64{90, 91, 92} {
		_, err := e.PlaceOrder(types.SubmitOrder{
			Symbol:   "BTCUSDT",
			Side:     types.SideTypeBuy,
			Type:     types.OrderTypeLimit,
			Quantity: fixedpoint.One,
			Price:    fixedpoint.NewFromFloat(price),
		})
		assert.NoError(t, err)
	}

	e.ProcessKLine(bar(0, 100, 101, 99, 100))
	assert.Len(t, e.OpenOrders(), 3)

	e.CancelAll()
	assert.Len(t, e.OpenOrders(), 0)
	assert.Len(t, e.Trades(), 0)
}

func TestEngine_OCACancelWithinBar(t *testing.T) {
	e := newTestEngine(nil)

	takeProfit, err := e.PlaceOrder(types.SubmitOrder{
		Symbol:   "BTCUSDT",
		Side:     types.SideTypeSell,
		Type:     types.OrderTypeLimit,
		Quantity: fixedpoint.One,
		Price:    fixedpoint.NewFromFloat(105),
		OCAGroup: "bracket",
		OCAMode:  types.OCAModeCancel,
	})
	assert.NoError(t, err)

	stop, err := e.PlaceOrder(types.SubmitOrder{
		Symbol:    "BTCUSDT",
		Side:      types.SideTypeSell,
		Type:      types.OrderTypeStopMarket,
		Quantity:  fixedpoint.One,
		StopPrice: fixedpoint.NewFromFloat(95),
		OCAGroup:  "bracket",
		OCAMode:   types.OCAModeCancel,
	})
	assert.NoError(t, err)

	// a falling bar sweeps both levels; the limit fills on the way up and
	// must cancel the stop before the way down reaches it
	e.ProcessKLine(bar(0, 100, 106, 94, 96))

	trades := e.Trades()
	if assert.Len(t, trades, 1) {
		assert.Equal(t, takeProfit.OrderID, trades[0].OrderID)
		assert.Equal(t, "105", trades[0].Price.String())
	}

	assert.Len(t, e.OpenOrders(), 0)

	canceled, ok := e.ClosedOrder(stop.OrderID)
	assert.True(t, ok)
	assert.Equal(t, types.OrderStatusCanceled, canceled.Status)
}

func TestEngine_StopLimitMarketableOnTrigger(t *testing.T) {
	e := newTestEngine(nil)

	// the limit sits above the stop, so the order is marketable the moment
	// it triggers and fills at the stop price
	_, err := e.PlaceOrder(types.SubmitOrder{
		Symbol:    "BTCUSDT",
		Side:      types.SideTypeBuy,
		Type:      types.OrderTypeStopLimit,
		Quantity:  fixedpoint.One,
		StopPrice: fixedpoint.NewFromFloat(105),
		Price:     fixedpoint.NewFromFloat(107),
	})
	assert.NoError(t, err)

	e.ProcessKLine(bar(0, 100, 110, 99, 109))

	trades := e.Trades()
	if assert.Len(t, trades, 1) {
		assert.Equal(t, "105", trades[0].Price.String())
		assert.Equal(t, types.SideTypeBuy, trades[0].Side)
	}
	assert.Len(t, e.OpenOrders(), 0)
}

func TestEngine_SellStopLimitMarketableOnTrigger(t *testing.T) {
	e := newTestEngine(nil)

	_, err := e.PlaceOrder(types.SubmitOrder{
		Symbol:    "BTCUSDT",
		Side:      types.SideTypeSell,
		Type:      types.OrderTypeStopLimit,
		Quantity:  fixedpoint.One,
		StopPrice: fixedpoint.NewFromFloat(95),
		Price:     fixedpoint.NewFromFloat(93),
	})
	assert.NoError(t, err)

	e.ProcessKLine(bar(0, 100, 101, 90, 92))

	trades := e.Trades()
	if assert.Len(t, trades, 1) {
		assert.Equal(t, "95", trades[0].Price.String())
		assert.Equal(t, types.SideTypeSell, trades[0].Side)
	}
}
