package types

import (
	"fmt"

	"github.com/tvlab/tvlab/pkg/fixedpoint"
)

// OrderType define order type
type OrderType string

const (
	OrderTypeLimit      OrderType = "LIMIT"
	OrderTypeMarket     OrderType = "MARKET"
	OrderTypeStopLimit  OrderType = "STOP_LIMIT"
	OrderTypeStopMarket OrderType = "STOP_MARKET"
)

type OrderStatus string

const (
	OrderStatusNew             OrderStatus = "NEW"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusCanceled        OrderStatus = "CANCELED"
	OrderStatusRejected        OrderStatus = "REJECTED"
)

// OCAMode defines what happens to the sibling orders of a one-cancels-all
// group when one member of the group fills.
type OCAMode string

const (
	// OCAModeNone disables group behavior.
	OCAModeNone OCAMode = ""

	// OCAModeCancel cancels the remaining members of the group on the first fill.
	OCAModeCancel OCAMode = "CANCEL"

	// OCAModeReduce reduces the quantity of the remaining members by the
	// filled quantity instead of canceling them.
	OCAModeReduce OCAMode = "REDUCE"
)

type SubmitOrder struct {
	ClientOrderID string `json:"clientOrderID" db:"client_order_id"`

	Symbol string    `json:"symbol" db:"symbol"`
	Side   SideType  `json:"side" db:"side"`
	Type   OrderType `json:"orderType" db:"order_type"`

	Quantity  fixedpoint.Value `json:"quantity" db:"quantity"`
	Price     fixedpoint.Value `json:"price" db:"price"`
	StopPrice fixedpoint.Value `json:"stopPrice" db:"stop_price"`

	// OCAGroup groups this order with others submitted under the same name.
	OCAGroup string  `json:"ocaGroup,omitempty" db:"oca_group"`
	OCAMode  OCAMode `json:"ocaMode,omitempty" db:"oca_mode"`

	// Tag carries the strategy entry/exit identifier that produced the order.
	Tag string `json:"tag,omitempty" db:"tag"`

	// ReduceOnly orders may only shrink the current position. An exit order
	// is always reduce-only so it can never accidentally reverse a position.
	ReduceOnly bool `json:"reduceOnly,omitempty" db:"reduce_only"`

	TimeInForce string `json:"timeInForce,omitempty" db:"time_in_force"`
}

func (o SubmitOrder) String() string {
	switch o.Type {
	case OrderTypeMarket:
		return fmt.Sprintf("SubmitOrder %s %s %s %s", o.Symbol, o.Type, o.Side, o.Quantity.String())

	case OrderTypeStopLimit, OrderTypeStopMarket:
		return fmt.Sprintf("SubmitOrder %s %s %s %s @ %s stop %s", o.Symbol, o.Type, o.Side, o.Quantity.String(), o.Price.String(), o.StopPrice.String())
	}

	return fmt.Sprintf("SubmitOrder %s %s %s %s @ %s", o.Symbol, o.Type, o.Side, o.Quantity.String(), o.Price.String())
}

type Order struct {
	SubmitOrder

	OrderID          uint64           `json:"orderID" db:"order_id"`
	Status           OrderStatus      `json:"status" db:"status"`
	ExecutedQuantity fixedpoint.Value `json:"executedQuantity" db:"executed_quantity"`
	IsWorking        bool             `json:"isWorking" db:"is_working"`
	CreationTime     Time             `json:"creationTime" db:"created_at"`
	UpdateTime       Time             `json:"updateTime" db:"updated_at"`
}

func (o Order) String() string {
	return fmt.Sprintf("ORDER %s %s %s %s @ %s -> %s", o.Symbol, o.Type, o.Side, o.Quantity.String(), o.Price.String(), o.Status)
}

type OrderSlice []Order

func (s OrderSlice) IDs() (ids []uint64) {
	for _, o := range s {
		ids = append(ids, o.OrderID)
	}
	return ids
}
