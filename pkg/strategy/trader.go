package strategy

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tvlab/tvlab/pkg/broker"
	"github.com/tvlab/tvlab/pkg/session"
	"github.com/tvlab/tvlab/pkg/types"
)

// Trader drives one strategy over a bar stream: each bar is handed to the
// broker first, then to the strategy. OnBar runs only for bars inside the
// configured trading session.
type Trader struct {
	Symbol   string
	Strategy Strategy
	Engine   *broker.Engine
	Session  *session.Spec

	Context *Context

	EquityCurve types.Float64Slice
	EquityTimes []time.Time

	tracker *session.Tracker
}

func NewTrader(strat Strategy, engine *broker.Engine, sizing Sizing, sess *session.Spec) *Trader {
	ctx := NewContext(engine, sizing)
	ctx.warmup = strat.Warmup()

	t := &Trader{
		Symbol:   engine.Symbol,
		Strategy: strat,
		Engine:   engine,
		Session:  sess,
		Context:  ctx,
	}

	if sess != nil {
		t.tracker = session.NewTracker(sess)
	}

	return t
}

// Run processes the bars in order. It stops early when ctx is canceled.
func (t *Trader) Run(ctx context.Context, klines []types.KLine) error {
	for _, k := range klines {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		t.ProcessKLine(k)
	}

	return nil
}

// ProcessKLine feeds one closed bar through the broker and the strategy.
func (t *Trader) ProcessKLine(k types.KLine) {
	t.Engine.ProcessKLine(k)
	t.Context.push(k)

	inSession := true
	if t.Session != nil {
		inSession = t.Session.Contains(k.StartTime.Time())
		if _, prevWasLast := t.tracker.Update(k.StartTime.Time()); prevWasLast {
			log.Debugf("session %s ended before bar %s", t.Session, k.StartTime.Time())
		}
	}

	if inSession {
		t.Strategy.OnBar(t.Context)
	}

	t.Context.updateTrails()

	t.EquityCurve.Push(t.Engine.Equity(k.Close).Float64())
	t.EquityTimes = append(t.EquityTimes, k.EndTime.Time())
}
