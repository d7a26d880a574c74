// Package broker implements a kline-driven broker emulator: order matching
// with intrabar price-path assumptions, OCA groups, pyramiding limits, FIFO
// position closing and margin-call liquidation.
package broker

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/tvlab/tvlab/pkg/fixedpoint"
	"github.com/tvlab/tvlab/pkg/types"
)

var orderID uint64
var tradeID int64

func incOrderID() uint64 {
	return atomic.AddUint64(&orderID, 1)
}

func incTradeID() int64 {
	return atomic.AddInt64(&tradeID, 1)
}

// MarginCall reports one forced-liquidation step.
type MarginCall struct {
	Time           types.Time       `json:"time"`
	Price          fixedpoint.Value `json:"price"`
	Quantity       fixedpoint.Value `json:"quantity"`
	Equity         fixedpoint.Value `json:"equity"`
	RequiredMargin fixedpoint.Value `json:"requiredMargin"`
}

// Engine is a kline data driven matching engine for a single symbol.
//
// Orders submitted while a bar is closing are queued and only become active
// on the next bar open; with Config.ProcessOrdersOnClose market orders fill
// immediately at the closing price instead.
//
//go:generate callbackgen -type Engine
type Engine struct {
	Symbol string
	Market types.Market
	Config *Config

	Account  *types.Account
	Position *types.Position

	CurrentTime time.Time
	LastPrice   fixedpoint.Value

	mu        sync.Mutex
	bidOrders []types.Order
	askOrders []types.Order
	queued    []types.Order

	closedOrders map[uint64]types.Order
	ocaGroups    map[string][]uint64

	trades       []types.Trade
	closedTrades []types.ClosedTrade

	orderUpdateCallbacks    []func(order types.Order)
	tradeUpdateCallbacks    []func(trade types.Trade)
	positionUpdateCallbacks []func(position *types.Position)
	marginCallCallbacks     []func(call MarginCall)
}

func NewEngine(symbol string, market types.Market, config *Config) *Engine {
	config.Defaults()

	account := types.NewAccount()
	account.Currency = config.Currency
	account.UpdateBalances(types.BalanceMap{
		config.Currency: {Currency: config.Currency, Available: config.InitialCapital},
	})

	return &Engine{
		Symbol:       symbol,
		Market:       market,
		Config:       config,
		Account:      account,
		Position:     types.NewPosition(symbol),
		closedOrders: make(map[uint64]types.Order),
		ocaGroups:    make(map[string][]uint64),
	}
}

// PlaceOrder accepts an order for the next bar. The returned order is in NEW
// status; fills are delivered through the trade update callbacks once the
// order becomes active and its price is reached.
func (e *Engine) PlaceOrder(o types.SubmitOrder) (*types.Order, error) {
	if o.Quantity.Sign() <= 0 {
		return nil, errors.New("order quantity must be positive")
	}

	switch o.Type {
	case types.OrderTypeLimit, types.OrderTypeStopLimit:
		if o.Price.Sign() <= 0 {
			return nil, errors.Errorf("%s order requires a price", o.Type)
		}
	}

	switch o.Type {
	case types.OrderTypeStopLimit, types.OrderTypeStopMarket:
		if o.StopPrice.Sign() <= 0 {
			return nil, errors.Errorf("%s order requires a stop price", o.Type)
		}
	}

	if !e.Market.MinQuantity.IsZero() && o.Quantity.Compare(e.Market.MinQuantity) < 0 {
		return nil, errors.Errorf("order quantity %s is less than the market minimum %s",
			o.Quantity.String(), e.Market.MinQuantity.String())
	}

	if o.ClientOrderID == "" {
		o.ClientOrderID = uuid.New().String()
	}

	order := e.newOrder(o)

	if o.Type == types.OrderTypeMarket && e.Config.ProcessOrdersOnClose && e.LastPrice.Sign() > 0 {
		e.EmitOrderUpdate(order)
		e.fillOrder(&order, e.LastPrice, false)
		return &order, nil
	}

	e.mu.Lock()
	e.queued = append(e.queued, order)
	e.mu.Unlock()

	e.registerOCA(order)
	e.EmitOrderUpdate(order)
	return &order, nil
}

func (e *Engine) newOrder(o types.SubmitOrder) types.Order {
	t := types.Time(e.CurrentTime)
	return types.Order{
		SubmitOrder:  o,
		OrderID:      incOrderID(),
		Status:       types.OrderStatusNew,
		IsWorking:    false,
		CreationTime: t,
		UpdateTime:   t,
	}
}

// CancelOrder removes an order from the queue or the books.
func (e *Engine) CancelOrder(o types.Order) (types.Order, error) {
	e.mu.Lock()
	found := false
	for _, book := range []*[]types.Order{&e.queued, &e.bidOrders, &e.askOrders} {
		var orders []types.Order
		for _, order := range *book {
			if order.OrderID == o.OrderID {
				found = true
				continue
			}
			orders = append(orders, order)
		}
		*book = orders
	}
	e.mu.Unlock()

	if !found {
		return o, errors.Errorf("cancel order failed, order %d not found", o.OrderID)
	}

	o.Status = types.OrderStatusCanceled
	o.UpdateTime = types.Time(e.CurrentTime)
	e.closeOrder(o)
	e.EmitOrderUpdate(o)
	return o, nil
}

// CancelAll cancels every queued and resting order.
func (e *Engine) CancelAll() {
	for _, o := range e.OpenOrders() {
		if _, err := e.CancelOrder(o); err != nil {
			log.WithError(err).Warnf("can not cancel order %d", o.OrderID)
		}
	}
}

func (e *Engine) OpenOrders() (orders []types.Order) {
	e.mu.Lock()
	defer e.mu.Unlock()

	orders = append(orders, e.queued...)
	orders = append(orders, e.bidOrders...)
	orders = append(orders, e.askOrders...)
	return orders
}

func (e *Engine) Trades() []types.Trade {
	return e.trades
}

func (e *Engine) ClosedTrades() []types.ClosedTrade {
	return e.closedTrades
}

// Cash returns the available account-currency balance.
func (e *Engine) Cash() fixedpoint.Value {
	b, _ := e.Account.Balance(e.Config.Currency)
	return b.Available
}

// Equity is the account value marked to the given price.
func (e *Engine) Equity(price fixedpoint.Value) fixedpoint.Value {
	return e.Cash().Add(e.Position.Size().Mul(price))
}

// ProcessKLine walks the bar's assumed intrabar price path and matches the
// active orders along it. The emulator assumes the price visits the extremum
// closer to the open first: open, low, high, close on a rising bar and open,
// high, low, close on a falling bar.
func (e *Engine) ProcessKLine(k types.KLine) {
	e.CurrentTime = k.StartTime.Time()

	e.activateQueued(k.Open)
	e.openBar(k.Open)

	if k.Direction() == types.DirectionDown {
		e.moveTo(k.High)
		e.moveTo(k.Low)
	} else {
		e.moveTo(k.Low)
		e.moveTo(k.High)
	}
	e.moveTo(k.Close)

	e.CurrentTime = k.EndTime.Time()
	e.LastPrice = k.Close

	e.checkMargin(k)
}

// activateQueued moves queued orders onto the books at the bar open; queued
// market orders fill at the open price.
func (e *Engine) activateQueued(openPrice fixedpoint.Value) {
	e.mu.Lock()
	pending := e.queued
	e.queued = nil
	e.mu.Unlock()

	for _, order := range pending {
		order.IsWorking = true

		if order.Type == types.OrderTypeMarket {
			e.fillOrder(&order, openPrice, false)
			continue
		}

		e.mu.Lock()
		switch order.Side {
		case types.SideTypeBuy:
			e.bidOrders = append(e.bidOrders, order)
		case types.SideTypeSell:
			e.askOrders = append(e.askOrders, order)
		}
		e.mu.Unlock()
	}
}

// plannedFill is a fill decided while scanning the books under the lock; it
// is executed afterwards so the group bookkeeping of one fill can still
// cancel or reduce the orders behind it.
type plannedFill struct {
	orderID uint64
	price   fixedpoint.Value
	isMaker bool
}

// executeFills runs the planned fills in order. An order canceled or elided
// by an earlier fill's OCA action is gone from the books and is skipped.
func (e *Engine) executeFills(fills []plannedFill) {
	for _, f := range fills {
		if o, ok := e.takeOrder(f.orderID); ok {
			e.fillOrder(&o, f.price, f.isMaker)
		}
	}
}

// takeOrder removes the order from the queue or the books so it can be
// filled. It reports false when the order is gone.
func (e *Engine) takeOrder(orderID uint64) (types.Order, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, book := range []*[]types.Order{&e.queued, &e.bidOrders, &e.askOrders} {
		for i := range *book {
			if (*book)[i].OrderID == orderID {
				o := (*book)[i]
				*book = append((*book)[:i], (*book)[i+1:]...)
				return o, true
			}
		}
	}

	return types.Order{}, false
}

// openBar jumps the price to the bar open. Orders crossed by the opening gap
// fill at the open itself, not at their limit or stop level.
func (e *Engine) openBar(price fixedpoint.Value) {
	var fills []plannedFill

	e.mu.Lock()
	for i := range e.askOrders {
		o := &e.askOrders[i]
		switch o.Type {
		case types.OrderTypeLimit:
			if o.Price.Compare(price) <= 0 {
				fills = append(fills, plannedFill{o.OrderID, price, false})
			}

		case types.OrderTypeStopMarket:
			if o.StopPrice.Compare(price) >= 0 {
				fills = append(fills, plannedFill{o.OrderID, price, false})
			}

		case types.OrderTypeStopLimit:
			if o.StopPrice.Compare(price) >= 0 {
				o.Type = types.OrderTypeLimit
				if o.Price.Compare(price) <= 0 {
					fills = append(fills, plannedFill{o.OrderID, price, false})
				}
			}
		}
	}

	for i := range e.bidOrders {
		o := &e.bidOrders[i]
		switch o.Type {
		case types.OrderTypeLimit:
			if o.Price.Compare(price) >= 0 {
				fills = append(fills, plannedFill{o.OrderID, price, false})
			}

		case types.OrderTypeStopMarket:
			if o.StopPrice.Compare(price) <= 0 {
				fills = append(fills, plannedFill{o.OrderID, price, false})
			}

		case types.OrderTypeStopLimit:
			if o.StopPrice.Compare(price) <= 0 {
				o.Type = types.OrderTypeLimit
				if o.Price.Compare(price) >= 0 {
					fills = append(fills, plannedFill{o.OrderID, price, false})
				}
			}
		}
	}
	e.mu.Unlock()

	e.executeFills(fills)
	e.LastPrice = price
}

// moveTo moves the emulated price from LastPrice to price, matching resting
// orders crossed on the way.
func (e *Engine) moveTo(price fixedpoint.Value) {
	if e.LastPrice.IsZero() {
		e.LastPrice = price
	}

	if price.Compare(e.LastPrice) > 0 {
		e.buyToPrice(price)
	} else if price.Compare(e.LastPrice) < 0 {
		e.sellToPrice(price)
	}
}

// buyToPrice simulates the price rising to the given level: sell limits at or
// below it fill, buy stops at or below it trigger.
func (e *Engine) buyToPrice(price fixedpoint.Value) {
	from := e.LastPrice
	var fills []plannedFill

	e.mu.Lock()
	for i := range e.askOrders {
		o := &e.askOrders[i]
		if o.Type == types.OrderTypeLimit && o.Price.Compare(price) <= 0 {
			// a limit already below the market fills at the market price
			fills = append(fills, plannedFill{o.OrderID, fixedpoint.Max(o.Price, from), true})
		}
	}

	for i := range e.bidOrders {
		o := &e.bidOrders[i]
		switch o.Type {
		case types.OrderTypeStopMarket:
			if o.StopPrice.Compare(price) <= 0 {
				fills = append(fills, plannedFill{o.OrderID, fixedpoint.Max(o.StopPrice, from), false})
			}

		case types.OrderTypeStopLimit:
			if o.StopPrice.Compare(price) <= 0 {
				// the trigger converts the order to a limit; a limit at or
				// above the trigger price is marketable right away
				trigger := fixedpoint.Max(o.StopPrice, from)
				o.Type = types.OrderTypeLimit
				if o.Price.Compare(trigger) >= 0 {
					fills = append(fills, plannedFill{o.OrderID, trigger, false})
				}
			}
		}
	}
	e.mu.Unlock()

	e.executeFills(fills)
	e.LastPrice = price
}

// sellToPrice simulates the price falling to the given level: buy limits at
// or above it fill, sell stops at or above it trigger.
func (e *Engine) sellToPrice(price fixedpoint.Value) {
	from := e.LastPrice
	var fills []plannedFill

	e.mu.Lock()
	for i := range e.bidOrders {
		o := &e.bidOrders[i]
		if o.Type == types.OrderTypeLimit && o.Price.Compare(price) >= 0 {
			fills = append(fills, plannedFill{o.OrderID, fixedpoint.Min(o.Price, from), true})
		}
	}

	for i := range e.askOrders {
		o := &e.askOrders[i]
		switch o.Type {
		case types.OrderTypeStopMarket:
			if o.StopPrice.Compare(price) >= 0 {
				fills = append(fills, plannedFill{o.OrderID, fixedpoint.Min(o.StopPrice, from), false})
			}

		case types.OrderTypeStopLimit:
			if o.StopPrice.Compare(price) >= 0 {
				trigger := fixedpoint.Min(o.StopPrice, from)
				o.Type = types.OrderTypeLimit
				if o.Price.Compare(trigger) <= 0 {
					fills = append(fills, plannedFill{o.OrderID, trigger, false})
				}
			}
		}
	}
	e.mu.Unlock()

	e.executeFills(fills)
	e.LastPrice = price
}

// fillOrder executes the order at rawPrice, applying slippage, commission,
// the pyramiding limit and FIFO position accounting, then runs the OCA group
// bookkeeping.
func (e *Engine) fillOrder(order *types.Order, rawPrice fixedpoint.Value, isMaker bool) {
	price := e.applySlippage(order.Side, rawPrice)
	quantity := order.Quantity

	increases := e.Position.IsFlat() || order.Side == e.Position.Side
	if increases {
		if order.ReduceOnly {
			// nothing to reduce; the order is elided
			order.Status = types.OrderStatusCanceled
			order.UpdateTime = types.Time(e.CurrentTime)
			e.closeOrder(*order)
			e.EmitOrderUpdate(*order)
			return
		}

		if e.Position.NumEntries() >= e.Config.Pyramiding {
			log.Debugf("order %d rejected: pyramiding limit %d reached", order.OrderID, e.Config.Pyramiding)
			order.Status = types.OrderStatusRejected
			order.UpdateTime = types.Time(e.CurrentTime)
			e.closeOrder(*order)
			e.EmitOrderUpdate(*order)
			return
		}
	} else if order.ReduceOnly {
		// clamp a reduce-only order to the open quantity
		quantity = fixedpoint.Min(quantity, e.Position.Quantity())
		if quantity.IsZero() {
			order.Status = types.OrderStatusCanceled
			order.UpdateTime = types.Time(e.CurrentTime)
			e.closeOrder(*order)
			e.EmitOrderUpdate(*order)
			return
		}
	}

	fee := e.commission(quantity, price)
	trade := e.newTrade(*order, quantity, price, rawPrice, fee, isMaker)

	e.settle(order, trade)

	order.Status = types.OrderStatusFilled
	order.ExecutedQuantity = quantity
	order.Price = price
	order.UpdateTime = types.Time(e.CurrentTime)
	e.closeOrder(*order)

	e.trades = append(e.trades, trade)
	e.EmitTradeUpdate(trade)
	e.EmitOrderUpdate(*order)
	e.EmitPositionUpdate(e.Position)

	e.triggerOCA(*order)
}

// settle applies the cash flow and the FIFO position bookkeeping of a fill.
func (e *Engine) settle(order *types.Order, trade types.Trade) {
	notional := trade.Quantity.Mul(trade.Price)
	if trade.Side == types.SideTypeBuy {
		e.Account.UseBalance(e.Config.Currency, notional.Add(trade.Fee))
	} else {
		e.Account.AddBalance(e.Config.Currency, notional.Sub(trade.Fee))
	}

	if e.Position.IsFlat() || trade.Side == e.Position.Side {
		e.Position.AddLot(trade.Side, types.Lot{
			OrderID:  order.OrderID,
			Tag:      order.Tag,
			Quantity: trade.Quantity,
			Price:    trade.Price,
			Fee:      trade.Fee,
			Time:     trade.Time,
		})
		return
	}

	closed, remaining := e.Position.CloseFIFO(
		trade.Quantity, trade.Price, order.OrderID, order.Tag, trade.Fee, trade.Time)
	e.closedTrades = append(e.closedTrades, closed...)

	if remaining.Sign() > 0 {
		// the oversized part reverses the position; the entry fee of the new
		// lot was already consumed by the closing trades
		e.Position.AddLot(trade.Side, types.Lot{
			OrderID:  order.OrderID,
			Tag:      order.Tag,
			Quantity: remaining,
			Price:    trade.Price,
			Time:     trade.Time,
		})
	}
}

func (e *Engine) applySlippage(side types.SideType, price fixedpoint.Value) fixedpoint.Value {
	if e.Config.SlippageTicks <= 0 || e.Market.TickSize.IsZero() {
		return price
	}

	slip := e.Market.TickSize.MulFloat64(float64(e.Config.SlippageTicks))
	if side == types.SideTypeBuy {
		return price.Add(slip)
	}
	return price.Sub(slip)
}

func (e *Engine) commission(quantity, price fixedpoint.Value) fixedpoint.Value {
	fee := e.Config.CommissionPerOrder
	if e.Config.CommissionPercent.Sign() > 0 {
		fee = fee.Add(quantity.Mul(price).Mul(e.Config.CommissionPercent))
	}
	return fee
}

func (e *Engine) newTrade(order types.Order, quantity, price, rawPrice, fee fixedpoint.Value, isMaker bool) types.Trade {
	return types.Trade{
		ID:            incTradeID(),
		OrderID:       order.OrderID,
		Symbol:        order.Symbol,
		Side:          order.Side,
		Price:         price,
		Quantity:      quantity,
		QuoteQuantity: quantity.Mul(price),
		Fee:           fee,
		FeeCurrency:   e.Config.Currency,
		Slippage:      price.Sub(rawPrice).Abs(),
		IsBuyer:       order.Side == types.SideTypeBuy,
		IsMaker:       isMaker,
		Time:          types.Time(e.CurrentTime),
		Tag:           order.Tag,
	}
}

func (e *Engine) closeOrder(o types.Order) {
	e.closedOrders[o.OrderID] = o
	e.unregisterOCA(o)
}

func (e *Engine) ClosedOrder(orderID uint64) (types.Order, bool) {
	o, ok := e.closedOrders[orderID]
	return o, ok
}
