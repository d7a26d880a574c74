package optimizer

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/tvlab/tvlab/pkg/broker"
	"github.com/tvlab/tvlab/pkg/config"
	"github.com/tvlab/tvlab/pkg/report"
	"github.com/tvlab/tvlab/pkg/session"
	"github.com/tvlab/tvlab/pkg/strategy"
	"github.com/tvlab/tvlab/pkg/strutil"
	"github.com/tvlab/tvlab/pkg/types"
)

// Result is one finished grid cell.
type Result struct {
	Params map[string]interface{} `json:"params"`
	Score  float64                `json:"score"`

	Report *report.SummaryReport `json:"report"`
}

// GridOptimizer runs the full cartesian product of the sweep matrix against a
// shared kline series.
type GridOptimizer struct {
	Config *Config
	Base   *config.Config

	KLines []types.KLine
}

func New(sweep *Config, base *config.Config, klines []types.KLine) *GridOptimizer {
	return &GridOptimizer{
		Config: sweep,
		Base:   base,
		KLines: klines,
	}
}

func (o *GridOptimizer) combinations() ([]map[string]interface{}, error) {
	combos := []map[string]interface{}{{}}

	for i := range o.Config.Matrix {
		selector := o.Config.Matrix[i]
		values, err := selector.expand()
		if err != nil {
			return nil, err
		}

		var next []map[string]interface{}
		for _, combo := range combos {
			for _, v := range values {
				merged := make(map[string]interface{}, len(combo)+1)
				for k, cv := range combo {
					merged[k] = cv
				}
				merged[selector.Param] = v
				next = append(next, merged)
			}
		}
		combos = next
	}

	return combos, nil
}

// Run executes every combination and returns the results ordered best first.
func (o *GridOptimizer) Run(ctx context.Context) ([]Result, error) {
	combos, err := o.combinations()
	if err != nil {
		return nil, err
	}

	var sess *session.Spec
	if o.Base.Backtest.Session != "" {
		sess, err = session.Parse(o.Base.Backtest.Session, o.Base.Backtest.Timezone)
		if err != nil {
			return nil, err
		}
	}

	log.Infof("sweeping %d combinations of %s over %d bars",
		len(combos), o.Base.Strategy.Name, len(o.KLines))

	results := make([]Result, len(combos))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.Config.MaxThread)
	for i := range combos {
		i := i
		g.Go(func() error {
			r, err := o.runOne(ctx, combos[i], sess)
			if err != nil {
				return err
			}

			results[i] = Result{
				Params: combos[i],
				Score:  o.score(r),
				Report: r,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results, nil
}

func (o *GridOptimizer) runOne(ctx context.Context, overrides map[string]interface{}, sess *session.Spec) (*report.SummaryReport, error) {
	params := make(map[string]interface{}, len(o.Base.Strategy.Params)+len(overrides))
	for k, v := range o.Base.Strategy.Params {
		params[k] = v
	}
	for k, v := range overrides {
		params[k] = v
	}

	strat, err := strategy.New(o.Base.Strategy.Name, params)
	if err != nil {
		return nil, err
	}

	brokerConfig := o.Base.Broker
	engine := broker.NewEngine(o.Base.Symbol, o.Base.Market, &brokerConfig)

	marginCalls := 0
	engine.OnMarginCall(func(call broker.MarginCall) {
		marginCalls++
	})

	trader := strategy.NewTrader(strat, engine, o.Base.Sizing, sess)
	if err := trader.Run(ctx, o.KLines); err != nil {
		return nil, err
	}

	in := report.RunInput{
		Symbol:         o.Base.Symbol,
		Strategy:       o.Base.Strategy.Name,
		Interval:       o.Base.Interval,
		InitialCapital: brokerConfig.InitialCapital,
		KLines:         o.KLines,
		EquityCurve:    trader.EquityCurve,
		ClosedTrades:   engine.ClosedTrades(),
		MarginCalls:    marginCalls,
	}
	if len(o.KLines) > 0 {
		in.OpenProfit = engine.Position.OpenProfit(o.KLines[len(o.KLines)-1].Close)
	}

	return report.Summarize(in), nil
}

func (o *GridOptimizer) score(r *report.SummaryReport) float64 {
	switch o.Config.Objective {
	case "totalReturn":
		return r.Metrics.TotalReturn
	case "sharpe":
		return r.Metrics.Sharpe
	case "sortino":
		return r.Metrics.Sortino
	case "calmar":
		return r.Metrics.Calmar
	case "profitFactor":
		return r.TradeStats.ProfitFactor().Float64()
	case "maxDrawdown":
		// smaller drawdown ranks higher
		return -r.Metrics.MaxDrawdown
	default:
		return r.NetProfit.Float64()
	}
}

// Print renders the top results as a ranked table.
func Print(w io.Writer, objective string, results []Result, top int) {
	if top <= 0 || top > len(results) {
		top = len(results)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "PARAMS", strings.ToUpper(objective), "NET PROFIT", "MAX DD", "TRADES", "WIN RATE"})

	for i := 0; i < top; i++ {
		r := results[i]
		t.AppendRow(table.Row{
			i + 1,
			formatParams(r.Params),
			strutil.ToString(r.Score, 4),
			r.Report.NetProfit.FormatString(2),
			strutil.ToString(r.Report.Metrics.MaxDrawdown*100.0, 2) + "%",
			r.Report.TradeStats.NumOfTrades(),
			r.Report.TradeStats.WinningRatio.FormatPercentage(2),
		})
	}

	t.Render()
}

func formatParams(params map[string]interface{}) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, params[k]))
	}
	return strings.Join(parts, " ")
}
