package strategy

import (
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/tvlab/tvlab/pkg/broker"
	"github.com/tvlab/tvlab/pkg/fixedpoint"
	"github.com/tvlab/tvlab/pkg/types"
)

// Context is the per-run strategy handle: series access into the processed
// bars and order operations against the broker emulator.
//
// Series accessors take an offset counting back from the current bar, offset 0
// is the bar OnBar was called for.
type Context struct {
	Symbol string
	Market types.Market
	Engine *broker.Engine
	Sizing Sizing

	klines types.KLineSlice
	warmup int

	trails map[string]*trailStop
}

func NewContext(engine *broker.Engine, sizing Sizing) *Context {
	return &Context{
		Symbol: engine.Symbol,
		Market: engine.Market,
		Engine: engine,
		Sizing: sizing,
		trails: make(map[string]*trailStop),
	}
}

func (c *Context) push(k types.KLine) {
	c.klines = append(c.klines, k)
}

// BarIndex is the zero-based index of the current bar.
func (c *Context) BarIndex() int {
	return len(c.klines) - 1
}

// InWarmup reports whether the current bar is still inside the strategy
// warmup period.
func (c *Context) InWarmup() bool {
	return len(c.klines) <= c.warmup
}

func (c *Context) KLine(offset int) types.KLine {
	i := len(c.klines) - offset - 1
	if i < 0 {
		return types.KLine{}
	}
	return c.klines[i]
}

func (c *Context) Open(offset int) fixedpoint.Value   { return c.KLine(offset).Open }
func (c *Context) High(offset int) fixedpoint.Value   { return c.KLine(offset).High }
func (c *Context) Low(offset int) fixedpoint.Value    { return c.KLine(offset).Low }
func (c *Context) Close(offset int) fixedpoint.Value  { return c.KLine(offset).Close }
func (c *Context) Volume(offset int) fixedpoint.Value { return c.KLine(offset).Volume }

func (c *Context) Time(offset int) time.Time {
	return c.KLine(offset).StartTime.Time()
}

// Equity is the account value marked to the current close.
func (c *Context) Equity() fixedpoint.Value {
	return c.Engine.Equity(c.Close(0))
}

// Size is the signed position size, positive for long.
func (c *Context) Size() fixedpoint.Value {
	return c.Engine.Position.Size()
}

func (c *Context) AveragePrice() fixedpoint.Value {
	return c.Engine.Position.AverageCost()
}

func (c *Context) OpenProfit() fixedpoint.Value {
	return c.Engine.Position.OpenProfit(c.Close(0))
}

func (c *Context) ClosedTrades() []types.ClosedTrade {
	return c.Engine.ClosedTrades()
}

// Entry places a market entry order sized by the run sizing rule. The id tags
// the resulting lot and its round-trip trades.
func (c *Context) Entry(id string, side types.SideType) error {
	quantity := c.Sizing.Quantity(c.Equity(), c.Close(0), c.Market)
	return c.EntryQuantity(id, side, quantity)
}

// EntryQuantity places a market entry order with an explicit quantity.
func (c *Context) EntryQuantity(id string, side types.SideType, quantity fixedpoint.Value) error {
	if quantity.Sign() <= 0 {
		return errors.Errorf("entry %q computed a non-positive quantity", id)
	}

	_, err := c.Engine.PlaceOrder(types.SubmitOrder{
		Symbol:   c.Symbol,
		Side:     side,
		Type:     types.OrderTypeMarket,
		Quantity: quantity,
		Tag:      id,
	})
	return err
}

// Order places an arbitrary order.
func (c *Context) Order(o types.SubmitOrder) (*types.Order, error) {
	if o.Symbol == "" {
		o.Symbol = c.Symbol
	}
	return c.Engine.PlaceOrder(o)
}

// ExitOptions describes a bracket exit: a protective stop and/or a take
// profit limit. When both are set they are placed as an OCA group.
type ExitOptions struct {
	Stop  fixedpoint.Value
	Limit fixedpoint.Value

	// TrailOffset places the protective stop this far behind the close and
	// ratchets it in the favorable direction on every bar. Used in place of
	// Stop.
	TrailOffset fixedpoint.Value

	// Quantity of the exit; zero exits the whole position.
	Quantity fixedpoint.Value

	// OCAMode of the bracket, REDUCE when unset.
	OCAMode types.OCAMode
}

// trailStop tracks one trailing exit between bars. The resting stop order is
// canceled and replaced whenever the stop level improves.
type trailStop struct {
	orderID  uint64
	side     types.SideType
	offset   fixedpoint.Value
	quantity fixedpoint.Value
	group    string
	mode     types.OCAMode
	tag      string
	stop     fixedpoint.Value
}

// Exit places bracket exit orders for the open position under the given id.
func (c *Context) Exit(id string, opts ExitOptions) error {
	if c.Engine.Position.IsFlat() {
		return errors.Errorf("exit %q: no open position", id)
	}

	if opts.Stop.IsZero() && opts.Limit.IsZero() && opts.TrailOffset.IsZero() {
		return errors.Errorf("exit %q requires a stop, a limit or a trail offset", id)
	}

	quantity := opts.Quantity
	if quantity.IsZero() {
		quantity = c.Engine.Position.Quantity()
	}

	side := c.Engine.Position.Side.Reverse()

	mode := opts.OCAMode
	if mode == types.OCAModeNone {
		mode = types.OCAModeReduce
	}

	group := ""
	if (!opts.Stop.IsZero() || !opts.TrailOffset.IsZero()) && !opts.Limit.IsZero() {
		group = id
	}

	if !opts.Limit.IsZero() {
		if _, err := c.Engine.PlaceOrder(types.SubmitOrder{
			Symbol:     c.Symbol,
			Side:       side,
			Type:       types.OrderTypeLimit,
			Quantity:   quantity,
			Price:      opts.Limit,
			OCAGroup:   group,
			OCAMode:    mode,
			Tag:        id,
			ReduceOnly: true,
		}); err != nil {
			return err
		}
	}

	if !opts.Stop.IsZero() {
		if _, err := c.Engine.PlaceOrder(types.SubmitOrder{
			Symbol:     c.Symbol,
			Side:       side,
			Type:       types.OrderTypeStopMarket,
			Quantity:   quantity,
			StopPrice:  opts.Stop,
			OCAGroup:   group,
			OCAMode:    mode,
			Tag:        id,
			ReduceOnly: true,
		}); err != nil {
			return err
		}
	}

	if !opts.TrailOffset.IsZero() {
		stop := c.Close(0).Sub(opts.TrailOffset)
		if side == types.SideTypeBuy {
			stop = c.Close(0).Add(opts.TrailOffset)
		}

		order, err := c.Engine.PlaceOrder(types.SubmitOrder{
			Symbol:     c.Symbol,
			Side:       side,
			Type:       types.OrderTypeStopMarket,
			Quantity:   quantity,
			StopPrice:  stop,
			OCAGroup:   group,
			OCAMode:    mode,
			Tag:        id,
			ReduceOnly: true,
		})
		if err != nil {
			return err
		}

		c.trails[id] = &trailStop{
			orderID:  order.OrderID,
			side:     side,
			offset:   opts.TrailOffset,
			quantity: quantity,
			group:    group,
			mode:     mode,
			tag:      id,
			stop:     stop,
		}
	}

	return nil
}

// updateTrails ratchets the trailing stops after a bar closes. A trail whose
// order is gone (filled or canceled by its OCA sibling) is dropped.
func (c *Context) updateTrails() {
	for id, tr := range c.trails {
		if _, done := c.Engine.ClosedOrder(tr.orderID); done {
			delete(c.trails, id)
			continue
		}

		candidate := c.Close(0).Sub(tr.offset)
		if tr.side == types.SideTypeBuy {
			candidate = c.Close(0).Add(tr.offset)
			if candidate.Compare(tr.stop) >= 0 {
				continue
			}
		} else if candidate.Compare(tr.stop) <= 0 {
			continue
		}

		var resting *types.Order
		for _, o := range c.Engine.OpenOrders() {
			if o.OrderID == tr.orderID {
				o := o
				resting = &o
				break
			}
		}
		if resting == nil {
			delete(c.trails, id)
			continue
		}

		if _, err := c.Engine.CancelOrder(*resting); err != nil {
			delete(c.trails, id)
			continue
		}

		order, err := c.Engine.PlaceOrder(types.SubmitOrder{
			Symbol:     c.Symbol,
			Side:       tr.side,
			Type:       types.OrderTypeStopMarket,
			Quantity:   tr.quantity,
			StopPrice:  candidate,
			OCAGroup:   tr.group,
			OCAMode:    tr.mode,
			Tag:        tr.tag,
			ReduceOnly: true,
		})
		if err != nil {
			log.WithError(err).Warnf("can not replace trailing stop %q", id)
			delete(c.trails, id)
			continue
		}

		tr.orderID = order.OrderID
		tr.stop = candidate
	}
}

// ClosePosition closes the quantity opened under the given entry id with a
// market order. Lots still close in FIFO order.
func (c *Context) ClosePosition(id string) error {
	var quantity fixedpoint.Value
	for _, lot := range c.Engine.Position.Lots {
		if lot.Tag == id {
			quantity = quantity.Add(lot.Quantity)
		}
	}

	if quantity.IsZero() {
		return nil
	}

	_, err := c.Engine.PlaceOrder(types.SubmitOrder{
		Symbol:     c.Symbol,
		Side:       c.Engine.Position.Side.Reverse(),
		Type:       types.OrderTypeMarket,
		Quantity:   quantity,
		Tag:        id,
		ReduceOnly: true,
	})
	return err
}

// CloseAll closes the whole position with a market order.
func (c *Context) CloseAll() error {
	if c.Engine.Position.IsFlat() {
		return nil
	}

	_, err := c.Engine.PlaceOrder(types.SubmitOrder{
		Symbol:     c.Symbol,
		Side:       c.Engine.Position.Side.Reverse(),
		Type:       types.OrderTypeMarket,
		Quantity:   c.Engine.Position.Quantity(),
		Tag:        "close-all",
		ReduceOnly: true,
	})
	return err
}

// CancelAll cancels every working order.
func (c *Context) CancelAll() {
	c.Engine.CancelAll()
}

// Log returns a logger annotated with the strategy symbol.
func (c *Context) Log() *log.Entry {
	return log.WithField("symbol", c.Symbol)
}
