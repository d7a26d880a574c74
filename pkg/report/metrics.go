// Package report computes backtest performance metrics and renders the
// summary report, and maintains the flock-guarded JSON report index.
package report

import (
	"math"

	"github.com/tvlab/tvlab/pkg/types"
)

// Metrics are the risk and return statistics of one backtest run, computed
// from the per-bar equity curve.
type Metrics struct {
	TotalReturn float64 `json:"totalReturn"`
	CAGR        float64 `json:"cagr"`
	Sharpe      float64 `json:"sharpe"`
	Sortino     float64 `json:"sortino"`
	MaxDrawdown float64 `json:"maxDrawdown"`
	Calmar      float64 `json:"calmar"`
}

// ComputeMetrics derives the metrics from an equity curve sampled once per
// bar. periodsPerYear annualizes the ratios; use the number of bars per year
// for the traded interval.
func ComputeMetrics(equity types.Float64Slice, periodsPerYear float64) Metrics {
	var m Metrics
	if equity.Length() < 2 || equity[0] <= 0 {
		return m
	}

	m.TotalReturn = equity.Last()/equity[0] - 1.0

	n := float64(equity.Length())
	if periodsPerYear > 0 && equity.Last() > 0 {
		m.CAGR = math.Pow(equity.Last()/equity[0], periodsPerYear/n) - 1.0
	}

	returns := make(types.Float64Slice, 0, equity.Length()-1)
	for i := 1; i < equity.Length(); i++ {
		if equity[i-1] <= 0 {
			continue
		}
		returns.Push(equity[i]/equity[i-1] - 1.0)
	}

	mean := returns.Mean()

	var variance, downVariance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
		if r < 0 {
			downVariance += r * r
		}
	}

	if len(returns) > 1 {
		variance /= float64(len(returns) - 1)
		downVariance /= float64(len(returns) - 1)
	}

	annual := math.Sqrt(periodsPerYear)
	if std := math.Sqrt(variance); std > 0 {
		m.Sharpe = mean / std * annual
	}
	if downStd := math.Sqrt(downVariance); downStd > 0 {
		m.Sortino = mean / downStd * annual
	}

	m.MaxDrawdown = maxDrawdown(equity)
	if m.MaxDrawdown > 0 {
		m.Calmar = m.CAGR / m.MaxDrawdown
	}

	return m
}

// maxDrawdown is the largest peak-to-trough equity decline as a fraction of
// the peak.
func maxDrawdown(equity types.Float64Slice) float64 {
	var peak, maxDD float64
	for _, e := range equity {
		if e > peak {
			peak = e
		}
		if peak > 0 {
			dd := (peak - e) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// PeriodsPerYear is the number of bars per year for an interval, assuming a
// 24x7 market.
func PeriodsPerYear(interval types.Interval) float64 {
	minutes := interval.Minutes()
	if minutes <= 0 {
		return 0
	}
	return 365.0 * 24.0 * 60.0 / float64(minutes)
}
