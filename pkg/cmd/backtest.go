package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tvlab/tvlab/pkg/broker"
	"github.com/tvlab/tvlab/pkg/config"
	"github.com/tvlab/tvlab/pkg/plotter"
	"github.com/tvlab/tvlab/pkg/report"
	"github.com/tvlab/tvlab/pkg/session"
	"github.com/tvlab/tvlab/pkg/strategy"
	"github.com/tvlab/tvlab/pkg/types"
)

func init() {
	BacktestCmd.Flags().Bool("show-trades", false, "print the closed trade table")
	BacktestCmd.Flags().Bool("no-report", false, "skip writing report files to the output directory")
	RootCmd.AddCommand(BacktestCmd)
}

var BacktestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "run a strategy over stored klines and print the report",

	SilenceUsage: true,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		configFile, err := cmd.Flags().GetString("config")
		if err != nil {
			return err
		}

		showTrades, err := cmd.Flags().GetBool("show-trades")
		if err != nil {
			return err
		}

		noReport, err := cmd.Flags().GetBool("no-report")
		if err != nil {
			return err
		}

		userConfig, err := config.Load(configFile)
		if err != nil {
			return err
		}

		klines, err := loadKLines(ctx, userConfig)
		if err != nil {
			return err
		}
		if len(klines) == 0 {
			return errors.Errorf("no klines of %s %s in the backtest period",
				userConfig.Symbol, userConfig.Interval)
		}

		strat, err := strategy.New(userConfig.Strategy.Name, userConfig.Strategy.Params)
		if err != nil {
			return err
		}

		var sess *session.Spec
		if userConfig.Backtest.Session != "" {
			sess, err = session.Parse(userConfig.Backtest.Session, userConfig.Backtest.Timezone)
			if err != nil {
				return err
			}
		}

		brokerConfig := userConfig.Broker
		engine := broker.NewEngine(userConfig.Symbol, userConfig.Market, &brokerConfig)

		marginCalls := 0
		engine.OnMarginCall(func(call broker.MarginCall) {
			marginCalls++
			log.Warnf("margin call at %s: liquidating %s @ %s",
				call.Time.Time().Format(time.RFC3339),
				call.Quantity.String(), call.Price.String())
		})

		chart := plotter.New(userConfig.Symbol)
		engine.OnTradeUpdate(func(trade types.Trade) {
			if trade.IsBuyer {
				chart.Mark(plotter.BelowBar, "B", "green")
			} else {
				chart.Mark(plotter.AboveBar, "S", "red")
			}
		})

		trader := strategy.NewTrader(strat, engine, userConfig.Sizing, sess)

		bar := pb.StartNew(len(klines))
		for _, k := range klines {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			chart.PushK(k)
			trader.ProcessKLine(k)
			bar.Increment()
		}
		bar.Finish()

		in := report.RunInput{
			Symbol:         userConfig.Symbol,
			Strategy:       userConfig.Strategy.Name,
			Interval:       userConfig.Interval,
			InitialCapital: brokerConfig.InitialCapital,
			KLines:         klines,
			EquityCurve:    trader.EquityCurve,
			ClosedTrades:   engine.ClosedTrades(),
			OpenProfit:     engine.Position.OpenProfit(klines[len(klines)-1].Close),
			MarginCalls:    marginCalls,
		}

		summary := report.Summarize(in)
		summary.Print(showTrades)

		if noReport {
			return nil
		}

		return writeRunArtifacts(userConfig, summary, chart, trader)
	},
}

// writeRunArtifacts stores the report JSON, the kline chart and the equity
// curve under the output directory, and records the run in the index.
func writeRunArtifacts(userConfig *config.Config, summary *report.SummaryReport, chart *plotter.Plotter, trader *strategy.Trader) error {
	outputDir := userConfig.OutputDirectory
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	runID := uuid.New().String()
	reportFile := fmt.Sprintf("report-%s.json", runID)

	if err := summary.WriteJSON(filepath.Join(outputDir, reportFile)); err != nil {
		return err
	}

	if err := report.AddReportIndexRun(outputDir, report.Run{
		ID:         runID,
		Symbol:     userConfig.Symbol,
		Strategy:   userConfig.Strategy.Name,
		Time:       time.Now(),
		ReportFile: reportFile,
	}); err != nil {
		return err
	}

	chartFile := filepath.Join(outputDir, fmt.Sprintf("chart-%s.html", runID))
	if err := chart.WriteHTMLFile(chartFile); err != nil {
		return err
	}

	if trader.EquityCurve.Length() >= 2 {
		equityFile := filepath.Join(outputDir, fmt.Sprintf("equity-%s.png", runID))
		if err := plotter.WriteEquityPNGFile(equityFile, trader.EquityTimes, trader.EquityCurve); err != nil {
			return err
		}
	}

	log.Infof("report written to %s", filepath.Join(outputDir, reportFile))
	return nil
}
