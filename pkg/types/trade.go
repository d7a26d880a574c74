package types

import (
	"fmt"

	"github.com/tvlab/tvlab/pkg/fixedpoint"
)

// Trade is a single fill produced by the broker emulator.
type Trade struct {
	ID      int64  `json:"id" db:"id"`
	OrderID uint64 `json:"orderID" db:"order_id"`

	Symbol string   `json:"symbol" db:"symbol"`
	Side   SideType `json:"side" db:"side"`

	Price         fixedpoint.Value `json:"price" db:"price"`
	Quantity      fixedpoint.Value `json:"quantity" db:"quantity"`
	QuoteQuantity fixedpoint.Value `json:"quoteQuantity" db:"quote_quantity"`

	Fee         fixedpoint.Value `json:"fee" db:"fee"`
	FeeCurrency string           `json:"feeCurrency" db:"fee_currency"`

	// Slippage is the difference between the raw matching price and the
	// effective fill price, in quote currency per unit.
	Slippage fixedpoint.Value `json:"slippage,omitempty" db:"slippage"`

	IsBuyer bool `json:"isBuyer" db:"is_buyer"`
	IsMaker bool `json:"isMaker" db:"is_maker"`

	Time Time `json:"tradedAt" db:"traded_at"`

	Tag string `json:"tag,omitempty" db:"tag"`
}

func (t Trade) String() string {
	return fmt.Sprintf("TRADE %s %s %s @ %s, fee = %s %s",
		t.Symbol, t.Side, t.Quantity.String(), t.Price.String(), t.Fee.String(), t.FeeCurrency)
}

// ClosedTrade is a FIFO-paired round trip: one entry lot closed by one exit
// fill. The broker emulator pairs exits against the earliest open lots first,
// so closed trades always come out ordered by entry time.
type ClosedTrade struct {
	Symbol string `json:"symbol"`

	// Side is the direction of the position the trade was part of.
	Side SideType `json:"side"`

	Quantity fixedpoint.Value `json:"quantity"`

	EntryOrderID uint64           `json:"entryOrderID"`
	EntryPrice   fixedpoint.Value `json:"entryPrice"`
	EntryTime    Time             `json:"entryTime"`
	EntryTag     string           `json:"entryTag,omitempty"`

	ExitOrderID uint64           `json:"exitOrderID"`
	ExitPrice   fixedpoint.Value `json:"exitPrice"`
	ExitTime    Time             `json:"exitTime"`
	ExitTag     string           `json:"exitTag,omitempty"`

	Commission fixedpoint.Value `json:"commission"`

	GrossProfit fixedpoint.Value `json:"grossProfit"`
	NetProfit   fixedpoint.Value `json:"netProfit"`
}

func (t ClosedTrade) String() string {
	return fmt.Sprintf("CLOSED TRADE %s %s %s: %s -> %s, net profit = %s",
		t.Symbol, t.Side, t.Quantity.String(), t.EntryPrice.String(), t.ExitPrice.String(), t.NetProfit.String())
}
