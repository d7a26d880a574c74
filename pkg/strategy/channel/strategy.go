// Package channel is a Donchian channel breakout strategy: enter long when
// the close breaks the previous N-bar high, exit when it breaks the previous
// M-bar low; mirrored for shorts.
package channel

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tvlab/tvlab/pkg/indicator"
	"github.com/tvlab/tvlab/pkg/strategy"
	"github.com/tvlab/tvlab/pkg/types"
)

const ID = "channel"

var log = logrus.WithField("strategy", ID)

func init() {
	strategy.Register(ID, func() strategy.Strategy {
		return &Strategy{}
	})
}

type Strategy struct {
	// EntryWindow is the breakout channel length.
	EntryWindow int `json:"entryWindow" yaml:"entryWindow"`

	// ExitWindow is the opposite-side channel length used to exit.
	ExitWindow int `json:"exitWindow" yaml:"exitWindow"`

	AllowShort bool `json:"allowShort" yaml:"allowShort"`

	entryHigh *indicator.Highest
	entryLow  *indicator.Lowest
	exitHigh  *indicator.Highest
	exitLow   *indicator.Lowest
}

func (s *Strategy) ID() string {
	return ID
}

func (s *Strategy) Defaults() {
	if s.EntryWindow == 0 {
		s.EntryWindow = 20
	}
	if s.ExitWindow == 0 {
		s.ExitWindow = 10
	}
}

func (s *Strategy) Validate() error {
	if s.ExitWindow > s.EntryWindow {
		return errors.Errorf("exitWindow %d must not exceed entryWindow %d", s.ExitWindow, s.EntryWindow)
	}
	return nil
}

func (s *Strategy) Warmup() int {
	return s.EntryWindow + 1
}

func (s *Strategy) OnBar(ctx *strategy.Context) {
	if s.entryHigh == nil {
		s.entryHigh = &indicator.Highest{IntervalWindow: types.IntervalWindow{Window: s.EntryWindow}}
		s.entryLow = &indicator.Lowest{IntervalWindow: types.IntervalWindow{Window: s.EntryWindow}}
		s.exitHigh = &indicator.Highest{IntervalWindow: types.IntervalWindow{Window: s.ExitWindow}}
		s.exitLow = &indicator.Lowest{IntervalWindow: types.IntervalWindow{Window: s.ExitWindow}}
	}

	k := ctx.KLine(0)
	s.entryHigh.PushK(k)
	s.entryLow.PushK(k)
	s.exitHigh.PushK(k)
	s.exitLow.PushK(k)

	// the breakout is checked against the channel of the previous bar
	if ctx.InWarmup() || s.entryHigh.Length() < 2 {
		return
	}

	close := ctx.Close(0).Float64()
	size := ctx.Size()

	if size.Sign() > 0 && close < s.exitLow.Index(1) {
		if err := ctx.CloseAll(); err != nil {
			log.WithError(err).Error("can not close the long position")
		}
		return
	}

	if size.Sign() < 0 && close > s.exitHigh.Index(1) {
		if err := ctx.CloseAll(); err != nil {
			log.WithError(err).Error("can not close the short position")
		}
		return
	}

	if size.Sign() == 0 {
		if close > s.entryHigh.Index(1) {
			if err := ctx.Entry("long", types.SideTypeBuy); err != nil {
				log.WithError(err).Error("long entry failed")
			}
		} else if s.AllowShort && close < s.entryLow.Index(1) {
			if err := ctx.Entry("short", types.SideTypeSell); err != nil {
				log.WithError(err).Error("short entry failed")
			}
		}
	}
}
