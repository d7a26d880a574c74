package types

import (
	"fmt"
	"strings"

	"github.com/tvlab/tvlab/pkg/fixedpoint"
)

// Lot is a single open entry. A position is an ordered list of lots; the
// broker emulator closes them first-in first-out.
type Lot struct {
	OrderID  uint64           `json:"orderID"`
	Tag      string           `json:"tag,omitempty"`
	Quantity fixedpoint.Value `json:"quantity"`
	Price    fixedpoint.Value `json:"price"`

	// Fee is the entry commission still attributed to this lot. When a lot
	// is partially closed the fee is split pro-rata.
	Fee fixedpoint.Value `json:"fee"`

	Time Time `json:"time"`
}

// Position is the FIFO lot queue for one symbol. Only one direction can be
// open at a time; an oversized opposite fill reverses the position.
type Position struct {
	Symbol string   `json:"symbol"`
	Side   SideType `json:"side,omitempty"`
	Lots   []Lot    `json:"lots,omitempty"`
}

func NewPosition(symbol string) *Position {
	return &Position{Symbol: symbol}
}

func (p *Position) IsFlat() bool {
	return len(p.Lots) == 0
}

// Quantity returns the total open quantity (always positive).
func (p *Position) Quantity() fixedpoint.Value {
	var q fixedpoint.Value
	for _, lot := range p.Lots {
		q = q.Add(lot.Quantity)
	}
	return q
}

// Size returns the signed position size: positive for long, negative for short.
func (p *Position) Size() fixedpoint.Value {
	q := p.Quantity()
	if p.Side == SideTypeSell {
		return q.Neg()
	}
	return q
}

// NumEntries returns the number of open entry lots, which is what the
// pyramiding limit counts.
func (p *Position) NumEntries() int {
	return len(p.Lots)
}

func (p *Position) AverageCost() fixedpoint.Value {
	q := p.Quantity()
	if q.IsZero() {
		return fixedpoint.Zero
	}

	var notional fixedpoint.Value
	for _, lot := range p.Lots {
		notional = notional.Add(lot.Quantity.Mul(lot.Price))
	}
	return notional.Div(q)
}

// OpenProfit is the unrealized profit of the open lots at the given price,
// entry commission not deducted.
func (p *Position) OpenProfit(price fixedpoint.Value) fixedpoint.Value {
	var profit fixedpoint.Value
	for _, lot := range p.Lots {
		diff := price.Sub(lot.Price)
		if p.Side == SideTypeSell {
			diff = diff.Neg()
		}
		profit = profit.Add(diff.Mul(lot.Quantity))
	}
	return profit
}

// AddLot opens a new entry lot. The caller must ensure the side matches the
// current position direction.
func (p *Position) AddLot(side SideType, lot Lot) {
	if p.IsFlat() {
		p.Side = side
	}
	p.Lots = append(p.Lots, lot)
}

// CloseFIFO closes up to quantity against the open lots, earliest first, and
// returns the paired round-trip trades. The remainder that could not be
// matched (a reversal) is returned as the second value.
//
// exitFee is the commission of the closing fill; it is distributed over the
// closed quantity pro-rata.
func (p *Position) CloseFIFO(
	quantity, price fixedpoint.Value, exitOrderID uint64, exitTag string, exitFee fixedpoint.Value, closedAt Time,
) (closed []ClosedTrade, remaining fixedpoint.Value) {
	remaining = quantity

	totalClosable := fixedpoint.Min(quantity, p.Quantity())
	for !remaining.IsZero() && len(p.Lots) > 0 {
		lot := &p.Lots[0]

		closeQty := fixedpoint.Min(remaining, lot.Quantity)

		// split the lot entry fee pro-rata
		entryFee := lot.Fee
		if closeQty.Compare(lot.Quantity) < 0 {
			entryFee = lot.Fee.Mul(closeQty).Div(lot.Quantity)
		}

		// distribute the exit fee over the closed quantity
		var exitFeePortion fixedpoint.Value
		if totalClosable.Sign() > 0 {
			exitFeePortion = exitFee.Mul(closeQty).Div(totalClosable)
		}

		gross := price.Sub(lot.Price).Mul(closeQty)
		if p.Side == SideTypeSell {
			gross = gross.Neg()
		}

		commission := entryFee.Add(exitFeePortion)
		closed = append(closed, ClosedTrade{
			Symbol:       p.Symbol,
			Side:         p.Side,
			Quantity:     closeQty,
			EntryOrderID: lot.OrderID,
			EntryPrice:   lot.Price,
			EntryTime:    lot.Time,
			EntryTag:     lot.Tag,
			ExitOrderID:  exitOrderID,
			ExitPrice:    price,
			ExitTime:     closedAt,
			ExitTag:      exitTag,
			Commission:   commission,
			GrossProfit:  gross,
			NetProfit:    gross.Sub(commission),
		})

		remaining = remaining.Sub(closeQty)
		lot.Quantity = lot.Quantity.Sub(closeQty)
		lot.Fee = lot.Fee.Sub(entryFee)

		if lot.Quantity.IsZero() {
			p.Lots = p.Lots[1:]
		}
	}

	if len(p.Lots) == 0 {
		p.Side = ""
	}

	return closed, remaining
}

func (p *Position) String() string {
	if p.IsFlat() {
		return fmt.Sprintf("POSITION %s FLAT", p.Symbol)
	}

	var lots []string
	for _, lot := range p.Lots {
		lots = append(lots, fmt.Sprintf("%s @ %s", lot.Quantity.String(), lot.Price.String()))
	}

	return fmt.Sprintf("POSITION %s %s %s [%s]", p.Symbol, p.Side, p.Quantity().String(), strings.Join(lots, ", "))
}
