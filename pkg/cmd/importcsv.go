package cmd

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tvlab/tvlab/pkg/config"
	"github.com/tvlab/tvlab/pkg/service"
)

func init() {
	ImportCmd.Flags().String("csv", "", "csv file with time,open,high,low,close,volume rows")
	RootCmd.AddCommand(ImportCmd)
}

var ImportCmd = &cobra.Command{
	Use:   "import",
	Short: "import csv klines into the sqlite database",

	SilenceUsage: true,

	RunE: func(cmd *cobra.Command, args []string) error {
		configFile, err := cmd.Flags().GetString("config")
		if err != nil {
			return err
		}

		csvFile, err := cmd.Flags().GetString("csv")
		if err != nil {
			return err
		}
		if csvFile == "" {
			return errors.New("--csv is required")
		}

		userConfig, err := config.Load(configFile)
		if err != nil {
			return err
		}
		if userConfig.Data.Sqlite == "" {
			return errors.New("data.sqlite is required for import")
		}

		db, err := service.ConnectSqlite(userConfig.Data.Sqlite)
		if err != nil {
			return err
		}
		defer db.Close()

		s := &service.KLineService{DB: db}
		if err := s.EnsureSchema(); err != nil {
			return err
		}

		count, err := s.ImportCSV(csvFile, userConfig.Symbol, userConfig.Interval)
		if err != nil {
			return err
		}

		log.Infof("imported %d bars of %s %s into %s",
			count, userConfig.Symbol, userConfig.Interval, userConfig.Data.Sqlite)
		return nil
	},
}
