package broker

import (
	log "github.com/sirupsen/logrus"

	"github.com/tvlab/tvlab/pkg/fixedpoint"
	"github.com/tvlab/tvlab/pkg/types"
)

// maxLiquidationSteps bounds the forced liquidation loop; each step sells a
// quarter of the position held when the liquidation started, so the last step
// can empty it.
const maxLiquidationSteps = 4

// checkMargin verifies the margin requirement at the bar close and force
// liquidates part of the position while equity stays below the requirement.
func (e *Engine) checkMargin(k types.KLine) {
	if e.Position.IsFlat() {
		return
	}

	var ratio fixedpoint.Value
	switch e.Position.Side {
	case types.SideTypeBuy:
		ratio = e.Config.MarginLong
	case types.SideTypeSell:
		ratio = e.Config.MarginShort
	}

	if ratio.Sign() <= 0 {
		return
	}

	price := k.Close
	initial := e.Position.Quantity()
	for step := 0; step < maxLiquidationSteps && !e.Position.IsFlat(); step++ {
		equity := e.Equity(price)
		required := e.Position.Quantity().Mul(price).Mul(ratio)
		if equity.Compare(required) >= 0 {
			return
		}

		quantity := e.liquidationQuantity(initial)
		log.Warnf("margin call on %s: equity %s below required %s, liquidating %s at %s",
			e.Symbol, equity.String(), required.String(), quantity.String(), price.String())

		e.EmitMarginCall(MarginCall{
			Time:           types.Time(e.CurrentTime),
			Price:          price,
			Quantity:       quantity,
			Equity:         equity,
			RequiredMargin: required,
		})

		order := e.newOrder(types.SubmitOrder{
			Symbol:     e.Symbol,
			Side:       e.Position.Side.Reverse(),
			Type:       types.OrderTypeMarket,
			Quantity:   quantity,
			Tag:        "margin-call",
			ReduceOnly: true,
		})
		order.IsWorking = true
		e.EmitOrderUpdate(order)
		e.fillOrder(&order, price, false)
	}
}

// liquidationQuantity is a quarter of the initial position, rounded up to the
// volume precision and capped at what is still open.
func (e *Engine) liquidationQuantity(initial fixedpoint.Value) fixedpoint.Value {
	quarter := initial.DivFloat64(4.0)

	step := e.Market.TruncateQuantity(quarter)
	if step.Compare(quarter) < 0 {
		lot := fixedpoint.NewFromFloat(1.0 / float64(pow10(e.Market.VolumePrecision)))
		step = step.Add(lot)
	}

	return fixedpoint.Min(step, e.Position.Quantity())
}

func pow10(n int) int64 {
	v := int64(1)
	for i := 0; i < n; i++ {
		v *= 10
	}
	return v
}
