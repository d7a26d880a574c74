package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tvlab/tvlab/pkg/fixedpoint"
	"github.com/tvlab/tvlab/pkg/types"
)

func TestComputeMetrics(t *testing.T) {
	equity := types.Float64Slice{100, 110, 99, 108.9}

	m := ComputeMetrics(equity, 4)

	assert.InDelta(t, 0.089, m.TotalReturn, 1e-9)
	assert.InDelta(t, 0.089, m.CAGR, 1e-9)
	assert.InDelta(t, 0.1, m.MaxDrawdown, 1e-9)
	assert.True(t, m.Sharpe > 0)
	assert.True(t, m.Sortino > 0)
	assert.InDelta(t, m.CAGR/m.MaxDrawdown, m.Calmar, 1e-9)
}

func TestComputeMetrics_Degenerate(t *testing.T) {
	assert.Equal(t, Metrics{}, ComputeMetrics(nil, 252))
	assert.Equal(t, Metrics{}, ComputeMetrics(types.Float64Slice{100}, 252))

	flat := ComputeMetrics(types.Float64Slice{100, 100, 100}, 252)
	assert.Zero(t, flat.TotalReturn)
	assert.Zero(t, flat.Sharpe)
	assert.Zero(t, flat.MaxDrawdown)
}

func TestPeriodsPerYear(t *testing.T) {
	assert.InDelta(t, 525600, PeriodsPerYear(types.Interval1m), 1e-9)
	assert.InDelta(t, 365, PeriodsPerYear(types.Interval1d), 1e-9)
}

func TestSummarize(t *testing.T) {
	t0 := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	klines := []types.KLine{
		types.NewKLine("BTCUSDT", types.Interval1h, t0,
			fixedpoint.NewFromFloat(100), fixedpoint.NewFromFloat(101),
			fixedpoint.NewFromFloat(99), fixedpoint.NewFromFloat(100), fixedpoint.NewFromFloat(10)),
		types.NewKLine("BTCUSDT", types.Interval1h, t0.Add(time.Hour),
			fixedpoint.NewFromFloat(100), fixedpoint.NewFromFloat(121),
			fixedpoint.NewFromFloat(99), fixedpoint.NewFromFloat(120), fixedpoint.NewFromFloat(10)),
	}

	r := Summarize(RunInput{
		Symbol:         "BTCUSDT",
		Strategy:       "smacross",
		Interval:       types.Interval1h,
		InitialCapital: fixedpoint.NewFromInt(1000),
		KLines:         klines,
		EquityCurve:    types.Float64Slice{1000, 1100},
		ClosedTrades: []types.ClosedTrade{
			{NetProfit: fixedpoint.NewFromInt(150), Commission: fixedpoint.One},
			{NetProfit: fixedpoint.NewFromInt(-50), Commission: fixedpoint.One},
		},
	})

	assert.Equal(t, "1100", r.FinalEquity.String())
	assert.Equal(t, "100", r.NetProfit.String())
	assert.InDelta(t, 0.2, r.BuyAndHoldReturn, 1e-9)
	assert.Equal(t, 2, r.TradeStats.NumOfTrades())
	assert.Equal(t, "3", r.TradeStats.ProfitFactor().String())
	assert.Equal(t, "2", r.TradeStats.TotalCommission.String())
}

func TestReportIndex(t *testing.T) {
	dir := t.TempDir()

	err := AddReportIndexRun(dir, Run{ID: "a", Symbol: "BTCUSDT", Strategy: "smacross"})
	require.NoError(t, err)
	err = AddReportIndexRun(dir, Run{ID: "b", Symbol: "ETHUSDT", Strategy: "channel"})
	require.NoError(t, err)

	index, err := LoadReportIndex(dir)
	require.NoError(t, err)
	require.Len(t, index.Runs, 2)
	assert.Equal(t, "a", index.Runs[0].ID)
	assert.Equal(t, "b", index.Runs[1].ID)
}
