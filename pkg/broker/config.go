package broker

import (
	"github.com/pkg/errors"

	"github.com/tvlab/tvlab/pkg/fixedpoint"
)

// Config holds the account and execution settings of the broker emulator.
type Config struct {
	InitialCapital fixedpoint.Value `json:"initialCapital" yaml:"initialCapital"`

	// Currency is the account currency; profits and commission are
	// denominated in it.
	Currency string `json:"currency" yaml:"currency"`

	// CommissionPercent is charged on the fill notional, e.g. 0.001 = 0.1%.
	CommissionPercent fixedpoint.Value `json:"commissionPercent" yaml:"commissionPercent"`

	// CommissionPerOrder is a fixed cash commission per fill.
	CommissionPerOrder fixedpoint.Value `json:"commissionPerOrder" yaml:"commissionPerOrder"`

	// SlippageTicks moves every fill this many ticks in the adverse
	// direction.
	SlippageTicks int `json:"slippageTicks" yaml:"slippageTicks"`

	// Pyramiding is the maximum number of entry lots that may be open in the
	// same direction. Fills that would exceed it are rejected.
	Pyramiding int `json:"pyramiding" yaml:"pyramiding"`

	// MarginLong and MarginShort are the margin ratios required to keep a
	// position open, e.g. 0.5 means half of the position value must be
	// covered by equity. Zero disables margin checks for that direction.
	MarginLong  fixedpoint.Value `json:"marginLong" yaml:"marginLong"`
	MarginShort fixedpoint.Value `json:"marginShort" yaml:"marginShort"`

	// ProcessOrdersOnClose executes market orders on the closing bar instead
	// of queueing them for the next bar open.
	ProcessOrdersOnClose bool `json:"processOrdersOnClose" yaml:"processOrdersOnClose"`
}

func (c *Config) Defaults() {
	if c.InitialCapital.IsZero() {
		c.InitialCapital = fixedpoint.NewFromInt(100000)
	}

	if c.Currency == "" {
		c.Currency = "USDT"
	}

	if c.Pyramiding <= 0 {
		c.Pyramiding = 1
	}
}

func (c *Config) Validate() error {
	if c.InitialCapital.Sign() < 0 {
		return errors.New("initialCapital can not be negative")
	}

	if c.SlippageTicks < 0 {
		return errors.New("slippageTicks can not be negative")
	}

	if c.MarginLong.Sign() < 0 || c.MarginShort.Sign() < 0 {
		return errors.New("margin ratios can not be negative")
	}

	return nil
}
