// Package config loads the backtest configuration from YAML with environment
// variable overrides.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tvlab/tvlab/pkg/broker"
	"github.com/tvlab/tvlab/pkg/fixedpoint"
	"github.com/tvlab/tvlab/pkg/strategy"
	"github.com/tvlab/tvlab/pkg/timeutil"
	"github.com/tvlab/tvlab/pkg/types"
)

type DataConfig struct {
	// Sqlite is the kline database path.
	Sqlite string `json:"sqlite" yaml:"sqlite"`

	// CSV is an optional CSV file loaded instead of the database.
	CSV string `json:"csv,omitempty" yaml:"csv,omitempty"`
}

type StrategyConfig struct {
	Name   string                 `json:"name" yaml:"name"`
	Params map[string]interface{} `json:"params,omitempty" yaml:"params,omitempty"`
}

type BacktestConfig struct {
	StartTime string `json:"startTime" yaml:"startTime"`
	EndTime   string `json:"endTime" yaml:"endTime"`

	// Session restricts trading to an exchange session, e.g. "0930-1600:23456".
	Session  string `json:"session,omitempty" yaml:"session,omitempty"`
	Timezone string `json:"timezone,omitempty" yaml:"timezone,omitempty"`
}

type Config struct {
	Symbol   string         `json:"symbol" yaml:"symbol"`
	Interval types.Interval `json:"interval" yaml:"interval"`

	Market types.Market `json:"market,omitempty" yaml:"market,omitempty"`

	Data     DataConfig      `json:"data" yaml:"data"`
	Backtest BacktestConfig  `json:"backtest" yaml:"backtest"`
	Broker   broker.Config   `json:"broker" yaml:"broker"`
	Sizing   strategy.Sizing `json:"sizing" yaml:"sizing"`
	Strategy StrategyConfig  `json:"strategy" yaml:"strategy"`

	// OutputDirectory receives reports and charts.
	OutputDirectory string `json:"outputDirectory,omitempty" yaml:"outputDirectory,omitempty"`
}

// Load reads the YAML config and applies TVLAB_* environment overrides, e.g.
// TVLAB_DATA_SQLITE or TVLAB_OUTPUT_DIRECTORY.
func Load(path string) (*Config, error) {
	out, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "can not read config %s", path)
	}

	var c Config
	if err := yaml.Unmarshal(out, &c); err != nil {
		return nil, errors.Wrapf(err, "can not parse config %s", path)
	}

	v := viper.New()
	v.SetEnvPrefix("tvlab")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if s := v.GetString("data.sqlite"); s != "" {
		c.Data.Sqlite = s
	}
	if s := v.GetString("output.directory"); s != "" {
		c.OutputDirectory = s
	}

	c.Defaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

func (c *Config) Defaults() {
	if c.Interval == "" {
		c.Interval = types.Interval1h
	}

	if c.OutputDirectory == "" {
		c.OutputDirectory = "output"
	}

	if c.Backtest.Timezone == "" {
		c.Backtest.Timezone = "UTC"
	}

	if c.Sizing.Type == "" {
		c.Sizing.Type = strategy.SizingTypePercentOfEquity
	}
	if c.Sizing.Value.IsZero() {
		c.Sizing.Value = fixedpoint.NewFromInt(100)
	}

	c.Broker.Defaults()
	c.defaultMarket()
}

func (c *Config) defaultMarket() {
	if c.Market.Symbol == "" {
		c.Market.Symbol = c.Symbol
	}
	if c.Market.PricePrecision == 0 {
		c.Market.PricePrecision = 2
	}
	if c.Market.VolumePrecision == 0 {
		c.Market.VolumePrecision = 8
	}
	if c.Market.QuoteCurrency == "" {
		c.Market.QuoteCurrency = c.Broker.Currency
	}
	if c.Market.TickSize.IsZero() {
		c.Market.TickSize = fixedpoint.MustNewFromString("0.01")
	}
}

func (c *Config) Validate() error {
	if c.Symbol == "" {
		return errors.New("symbol is required")
	}

	if c.Interval.Minutes() <= 0 {
		return errors.Errorf("interval %q is not supported", c.Interval)
	}

	if c.Strategy.Name == "" {
		return errors.New("strategy.name is required")
	}

	if c.Data.Sqlite == "" && c.Data.CSV == "" {
		return errors.New("data.sqlite or data.csv is required")
	}

	if _, err := timeutil.LoadLocation(c.Backtest.Timezone); err != nil {
		return errors.Wrap(err, "backtest.timezone")
	}

	if err := c.Broker.Validate(); err != nil {
		return err
	}

	return c.Sizing.Validate()
}

// TimeRange parses the configured backtest period. A missing start or end
// falls back to the zero time or now.
func (c *Config) TimeRange() (start, end time.Time, err error) {
	if c.Backtest.StartTime != "" {
		start, err = timeutil.ParseDate(c.Backtest.StartTime)
		if err != nil {
			return start, end, errors.Wrap(err, "backtest.startTime")
		}
	}

	end = time.Now()
	if c.Backtest.EndTime != "" {
		end, err = timeutil.ParseDate(c.Backtest.EndTime)
		if err != nil {
			return start, end, errors.Wrap(err, "backtest.endTime")
		}
	}

	if !start.IsZero() && end.Before(start) {
		return start, end, errors.New("backtest.endTime is before backtest.startTime")
	}

	return start, end, nil
}
