package broker

import (
	log "github.com/sirupsen/logrus"

	"github.com/tvlab/tvlab/pkg/fixedpoint"
	"github.com/tvlab/tvlab/pkg/types"
)

// registerOCA adds the order to its one-cancels-all group.
func (e *Engine) registerOCA(o types.Order) {
	if o.OCAGroup == "" {
		return
	}

	e.ocaGroups[o.OCAGroup] = append(e.ocaGroups[o.OCAGroup], o.OrderID)
}

func (e *Engine) unregisterOCA(o types.Order) {
	if o.OCAGroup == "" {
		return
	}

	members := e.ocaGroups[o.OCAGroup]
	var rest []uint64
	for _, id := range members {
		if id != o.OrderID {
			rest = append(rest, id)
		}
	}

	if len(rest) == 0 {
		delete(e.ocaGroups, o.OCAGroup)
	} else {
		e.ocaGroups[o.OCAGroup] = rest
	}
}

// triggerOCA runs the group action after a member filled: CANCEL removes the
// sibling orders, REDUCE shrinks them by the filled quantity.
func (e *Engine) triggerOCA(filled types.Order) {
	if filled.OCAGroup == "" {
		return
	}

	siblings := append([]uint64(nil), e.ocaGroups[filled.OCAGroup]...)
	if len(siblings) == 0 {
		return
	}

	isSibling := make(map[uint64]bool, len(siblings))
	for _, id := range siblings {
		isSibling[id] = true
	}

	switch filled.OCAMode {
	case types.OCAModeReduce:
		e.reduceOrders(isSibling, filled.ExecutedQuantity)

	default:
		// cancel is the default group behavior
		for _, id := range siblings {
			e.cancelByID(id)
		}
	}
}

func (e *Engine) cancelByID(orderID uint64) {
	e.mu.Lock()
	var target *types.Order
	for _, book := range []*[]types.Order{&e.queued, &e.bidOrders, &e.askOrders} {
		for i := range *book {
			if (*book)[i].OrderID == orderID {
				o := (*book)[i]
				target = &o
				*book = append((*book)[:i], (*book)[i+1:]...)
				break
			}
		}
		if target != nil {
			break
		}
	}
	e.mu.Unlock()

	if target == nil {
		return
	}

	target.Status = types.OrderStatusCanceled
	target.UpdateTime = types.Time(e.CurrentTime)
	e.closeOrder(*target)
	e.EmitOrderUpdate(*target)
}

func (e *Engine) reduceOrders(isSibling map[uint64]bool, filledQuantity fixedpoint.Value) {
	var canceled []types.Order

	e.mu.Lock()
	for _, book := range []*[]types.Order{&e.queued, &e.bidOrders, &e.askOrders} {
		var rest []types.Order
		for _, o := range *book {
			if !isSibling[o.OrderID] {
				rest = append(rest, o)
				continue
			}

			o.Quantity = o.Quantity.Sub(filledQuantity)
			o.UpdateTime = types.Time(e.CurrentTime)
			if o.Quantity.Sign() <= 0 {
				o.Status = types.OrderStatusCanceled
				canceled = append(canceled, o)
				continue
			}

			log.Debugf("oca reduce: order %d quantity reduced to %s", o.OrderID, o.Quantity.String())
			rest = append(rest, o)
		}
		*book = rest
	}
	e.mu.Unlock()

	for _, o := range canceled {
		e.closeOrder(o)
		e.EmitOrderUpdate(o)
	}
}
