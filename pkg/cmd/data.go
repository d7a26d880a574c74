package cmd

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/tvlab/tvlab/pkg/config"
	"github.com/tvlab/tvlab/pkg/service"
	"github.com/tvlab/tvlab/pkg/types"
)

// loadKLines reads the configured data source and restricts it to the
// backtest period.
func loadKLines(ctx context.Context, userConfig *config.Config) ([]types.KLine, error) {
	start, end, err := userConfig.TimeRange()
	if err != nil {
		return nil, err
	}

	if userConfig.Data.CSV != "" {
		klines, err := service.ReadKLinesFromCSVFile(userConfig.Data.CSV, userConfig.Symbol, userConfig.Interval)
		if err != nil {
			return nil, err
		}

		var selected []types.KLine
		for _, k := range klines {
			t := k.StartTime.Time()
			if t.Before(start) || t.After(end) {
				continue
			}
			selected = append(selected, k)
		}

		log.Infof("loaded %d of %d bars from %s", len(selected), len(klines), userConfig.Data.CSV)
		return selected, nil
	}

	db, err := service.ConnectSqlite(userConfig.Data.Sqlite)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	s := &service.KLineService{DB: db}
	if err := s.EnsureSchema(); err != nil {
		return nil, err
	}

	klines, err := s.QueryKLines(ctx, userConfig.Symbol, userConfig.Interval, start, end)
	if err != nil {
		return nil, err
	}

	log.Infof("loaded %d bars of %s %s from %s",
		len(klines), userConfig.Symbol, userConfig.Interval, userConfig.Data.Sqlite)
	return klines, nil
}
