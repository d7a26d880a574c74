// Package smacross is a moving-average crossover strategy: long when the fast
// average crosses over the slow one, flat or short when it crosses under.
package smacross

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tvlab/tvlab/pkg/indicator"
	"github.com/tvlab/tvlab/pkg/strategy"
	"github.com/tvlab/tvlab/pkg/types"
)

const ID = "smacross"

var log = logrus.WithField("strategy", ID)

func init() {
	strategy.Register(ID, func() strategy.Strategy {
		return &Strategy{}
	})
}

type Strategy struct {
	FastWindow int `json:"fastWindow" yaml:"fastWindow"`
	SlowWindow int `json:"slowWindow" yaml:"slowWindow"`

	// AllowShort opens a short position on a cross under instead of only
	// going flat.
	AllowShort bool `json:"allowShort" yaml:"allowShort"`

	fast *indicator.SMA
	slow *indicator.SMA
}

func (s *Strategy) ID() string {
	return ID
}

func (s *Strategy) Defaults() {
	if s.FastWindow == 0 {
		s.FastWindow = 10
	}
	if s.SlowWindow == 0 {
		s.SlowWindow = 30
	}
}

func (s *Strategy) Validate() error {
	if s.FastWindow >= s.SlowWindow {
		return errors.Errorf("fastWindow %d must be less than slowWindow %d", s.FastWindow, s.SlowWindow)
	}
	return nil
}

func (s *Strategy) Warmup() int {
	return s.SlowWindow + 1
}

func (s *Strategy) OnBar(ctx *strategy.Context) {
	if s.fast == nil {
		s.fast = &indicator.SMA{IntervalWindow: types.IntervalWindow{Window: s.FastWindow}}
		s.slow = &indicator.SMA{IntervalWindow: types.IntervalWindow{Window: s.SlowWindow}}
	}

	k := ctx.KLine(0)
	s.fast.PushK(k)
	s.slow.PushK(k)

	if ctx.InWarmup() || s.slow.Length() < 2 {
		return
	}

	crossOver := s.fast.Index(1) <= s.slow.Index(1) && s.fast.Last() > s.slow.Last()
	crossUnder := s.fast.Index(1) >= s.slow.Index(1) && s.fast.Last() < s.slow.Last()

	size := ctx.Size()

	switch {
	case crossOver && size.Sign() <= 0:
		if size.Sign() < 0 {
			if err := ctx.CloseAll(); err != nil {
				log.WithError(err).Error("can not close the short position")
				return
			}
		}
		if err := ctx.Entry("long", types.SideTypeBuy); err != nil {
			log.WithError(err).Error("long entry failed")
		}

	case crossUnder && size.Sign() >= 0:
		if size.Sign() > 0 {
			if err := ctx.CloseAll(); err != nil {
				log.WithError(err).Error("can not close the long position")
				return
			}
		}
		if s.AllowShort {
			if err := ctx.Entry("short", types.SideTypeSell); err != nil {
				log.WithError(err).Error("short entry failed")
			}
		}
	}
}
