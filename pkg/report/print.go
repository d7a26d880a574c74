package report

import (
	"os"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/tvlab/tvlab/pkg/strutil"
)

// Print renders the report to stdout: a colored summary block and, when
// wantTrades is set, the closed trade table.
func (r *SummaryReport) Print(wantTrades bool) {
	color.Green("%s %s BACKTEST REPORT", r.Symbol, r.Strategy)
	color.Green("===============================================")
	color.Green("PERIOD: %s - %s (%d bars)",
		r.StartTime.Format("2006-01-02 15:04"), r.EndTime.Format("2006-01-02 15:04"), r.NumOfBars)
	color.Green("INITIAL EQUITY: %s", r.InitialEquity.FormatString(2))
	color.Green("FINAL EQUITY: %s", r.FinalEquity.FormatString(2))

	if r.NetProfit.Sign() >= 0 {
		color.Green("NET PROFIT: +%s (%s)", r.NetProfit.FormatString(2), percent(r.Metrics.TotalReturn))
	} else {
		color.Red("NET PROFIT: %s (%s)", r.NetProfit.FormatString(2), percent(r.Metrics.TotalReturn))
	}

	color.Green("BUY AND HOLD RETURN: %s", percent(r.BuyAndHoldReturn))
	color.Green("MAX DRAWDOWN: %s", percent(r.Metrics.MaxDrawdown))
	color.Green("CAGR: %s  SHARPE: %s  SORTINO: %s  CALMAR: %s",
		percent(r.Metrics.CAGR),
		strutil.ToString(r.Metrics.Sharpe, 4),
		strutil.ToString(r.Metrics.Sortino, 4),
		strutil.ToString(r.Metrics.Calmar, 4))

	stats := r.TradeStats
	color.Green("TRADES: %d  WIN RATE: %s  PROFIT FACTOR: %s",
		stats.NumOfTrades(),
		stats.WinningRatio.FormatPercentage(2),
		stats.ProfitFactor().FormatString(2))
	color.Green("COMMISSION PAID: %s", stats.TotalCommission.FormatString(2))

	if r.MarginCalls > 0 {
		color.Red("MARGIN CALLS: %d", r.MarginCalls)
	}

	if wantTrades && len(r.ClosedTrades) > 0 {
		r.printTrades()
	}
}

func (r *SummaryReport) printTrades() {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"#", "SIDE", "QTY", "ENTRY", "EXIT", "ENTRY TIME", "EXIT TIME", "GROSS", "NET", "TAG"})

	for i, trade := range r.ClosedTrades {
		t.AppendRow(table.Row{
			i + 1,
			trade.Side,
			trade.Quantity.String(),
			trade.EntryPrice.FormatString(2),
			trade.ExitPrice.FormatString(2),
			trade.EntryTime.Time().Format("2006-01-02 15:04"),
			trade.ExitTime.Time().Format("2006-01-02 15:04"),
			trade.GrossProfit.FormatString(2),
			trade.NetProfit.FormatString(2),
			trade.EntryTag,
		})
	}

	t.Render()
}

func percent(v float64) string {
	return strutil.ToString(v*100.0, 2) + "%"
}
