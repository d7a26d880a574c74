package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tvlab/tvlab/pkg/config"
	"github.com/tvlab/tvlab/pkg/optimizer"
)

func init() {
	SweepCmd.Flags().String("sweep-config", "sweep.yaml", "sweep matrix file")
	SweepCmd.Flags().Int("top", 20, "number of ranked results to print")
	RootCmd.AddCommand(SweepCmd)
}

var SweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "grid search strategy parameters and rank the results",

	SilenceUsage: true,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		configFile, err := cmd.Flags().GetString("config")
		if err != nil {
			return err
		}

		sweepFile, err := cmd.Flags().GetString("sweep-config")
		if err != nil {
			return err
		}

		top, err := cmd.Flags().GetInt("top")
		if err != nil {
			return err
		}

		userConfig, err := config.Load(configFile)
		if err != nil {
			return err
		}

		sweepConfig, err := optimizer.LoadConfig(sweepFile)
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

		results, err := optimizer.New(sweepConfig, userConfig, klines).Run(ctx)
		if err != nil {
			return err
		}

		optimizer.Print(os.Stdout, sweepConfig.Objective, results, top)

		if err := os.MkdirAll(userConfig.OutputDirectory, 0755); err != nil {
			return err
		}

		out, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}

		resultFile := filepath.Join(userConfig.OutputDirectory,
			fmt.Sprintf("sweep-%s.json", time.Now().Format("20060102-150405")))
		if err := os.WriteFile(resultFile, out, 0644); err != nil {
			return err
		}

		log.Infof("sweep results written to %s", resultFile)
		return nil
	},
}
