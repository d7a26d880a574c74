package report

import (
	"encoding/json"
	"os"
	"time"

	"github.com/tvlab/tvlab/pkg/fixedpoint"
	"github.com/tvlab/tvlab/pkg/types"
)

// SummaryReport is the result of one backtest run.
type SummaryReport struct {
	Symbol   string         `json:"symbol"`
	Strategy string         `json:"strategy"`
	Interval types.Interval `json:"interval"`

	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`

	InitialEquity fixedpoint.Value `json:"initialEquity"`
	FinalEquity   fixedpoint.Value `json:"finalEquity"`

	NetProfit        fixedpoint.Value `json:"netProfit"`
	UnrealizedProfit fixedpoint.Value `json:"unrealizedProfit"`

	// BuyAndHoldReturn is the close-to-close return of holding the symbol
	// over the run, the baseline the strategy is compared against.
	BuyAndHoldReturn float64 `json:"buyAndHoldReturn"`

	NumOfBars   int `json:"numOfBars"`
	MarginCalls int `json:"marginCalls"`

	TradeStats types.TradeStats `json:"tradeStats"`
	Metrics    Metrics          `json:"metrics"`

	ClosedTrades []types.ClosedTrade `json:"closedTrades,omitempty"`
}

// RunInput bundles the raw outputs of a backtest run.
type RunInput struct {
	Symbol   string
	Strategy string
	Interval types.Interval

	InitialCapital fixedpoint.Value

	KLines       []types.KLine
	EquityCurve  types.Float64Slice
	ClosedTrades []types.ClosedTrade
	OpenProfit   fixedpoint.Value
	MarginCalls  int
}

// Summarize computes the summary report of a finished run.
func Summarize(in RunInput) *SummaryReport {
	r := &SummaryReport{
		Symbol:        in.Symbol,
		Strategy:      in.Strategy,
		Interval:      in.Interval,
		InitialEquity: in.InitialCapital,
		NumOfBars:     len(in.KLines),
		MarginCalls:   in.MarginCalls,
		ClosedTrades:  in.ClosedTrades,
	}

	if len(in.KLines) > 0 {
		first := in.KLines[0]
		last := in.KLines[len(in.KLines)-1]
		r.StartTime = first.StartTime.Time()
		r.EndTime = last.EndTime.Time()

		if first.Close.Sign() > 0 {
			r.BuyAndHoldReturn = last.Close.Sub(first.Close).Div(first.Close).Float64()
		}
	}

	if in.EquityCurve.Length() > 0 {
		r.FinalEquity = fixedpoint.NewFromFloat(in.EquityCurve.Last())
	} else {
		r.FinalEquity = in.InitialCapital
	}

	r.NetProfit = r.FinalEquity.Sub(r.InitialEquity)
	r.UnrealizedProfit = in.OpenProfit

	for _, trade := range in.ClosedTrades {
		r.TradeStats.Add(trade)
	}

	r.Metrics = ComputeMetrics(in.EquityCurve, PeriodsPerYear(in.Interval))
	return r
}

// WriteJSON writes the report to a file.
func (r *SummaryReport) WriteJSON(filename string) error {
	out, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, out, 0644)
}

func ReadSummaryReport(filename string) (*SummaryReport, error) {
	o, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var report SummaryReport
	err = json.Unmarshal(o, &report)
	return &report, err
}
