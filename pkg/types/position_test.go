package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tvlab/tvlab/pkg/fixedpoint"
)

func lotAt(orderID uint64, qty, price float64, t time.Time) Lot {
	return Lot{
		OrderID:  orderID,
		Quantity: fixedpoint.NewFromFloat(qty),
		Price:    fixedpoint.NewFromFloat(price),
		Time:     Time(t),
	}
}

func TestPosition_CloseFIFO(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	p := NewPosition("BTCUSDT")
	p.AddLot(SideTypeBuy, lotAt(1, 1.0, 100.0, t1))
	p.AddLot(SideTypeBuy, lotAt(2, 1.0, 110.0, t1.Add(time.Minute)))

	assert.Equal(t, fixedpoint.NewFromFloat(2.0), p.Size())
	assert.Equal(t, fixedpoint.NewFromFloat(105.0), p.AverageCost())
	assert.Equal(t, 2, p.NumEntries())

	// close 1.5 units at 120: first lot fully, second lot half
	closed, remaining := p.CloseFIFO(
		fixedpoint.NewFromFloat(1.5), fixedpoint.NewFromFloat(120.0), 3, "", fixedpoint.Zero, Time(t1.Add(2*time.Minute)))

	assert.True(t, remaining.IsZero())
	assert.Len(t, closed, 2)

	// earliest lot closes first
	assert.Equal(t, uint64(1), closed[0].EntryOrderID)
	assert.Equal(t, fixedpoint.NewFromFloat(20.0), closed[0].GrossProfit)
	assert.Equal(t, uint64(2), closed[1].EntryOrderID)
	assert.Equal(t, fixedpoint.NewFromFloat(5.0), closed[1].GrossProfit)

	// half a lot remains open
	assert.Equal(t, fixedpoint.NewFromFloat(0.5), p.Quantity())
	assert.Equal(t, fixedpoint.NewFromFloat(110.0), p.AverageCost())
}

func TestPosition_CloseFIFO_Reversal(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	p := NewPosition("BTCUSDT")
	p.AddLot(SideTypeBuy, lotAt(1, 1.0, 100.0, t1))

	closed, remaining := p.CloseFIFO(
		fixedpoint.NewFromFloat(2.5), fixedpoint.NewFromFloat(90.0), 2, "", fixedpoint.Zero, Time(t1.Add(time.Minute)))

	assert.Len(t, closed, 1)
	assert.Equal(t, fixedpoint.NewFromFloat(-10.0), closed[0].GrossProfit)
	assert.Equal(t, fixedpoint.NewFromFloat(1.5), remaining, "the unmatched quantity reverses the position")
	assert.True(t, p.IsFlat())
}

func TestPosition_CloseFIFO_Short(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	p := NewPosition("BTCUSDT")
	p.AddLot(SideTypeSell, lotAt(1, 1.0, 100.0, t1))
	assert.Equal(t, fixedpoint.NewFromFloat(-1.0), p.Size())

	closed, _ := p.CloseFIFO(
		fixedpoint.NewFromFloat(1.0), fixedpoint.NewFromFloat(90.0), 2, "", fixedpoint.Zero, Time(t1.Add(time.Minute)))

	assert.Len(t, closed, 1)
	assert.Equal(t, fixedpoint.NewFromFloat(10.0), closed[0].GrossProfit, "short profits when price falls")
}

func TestPosition_CommissionSplit(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	p := NewPosition("BTCUSDT")
	lot := lotAt(1, 2.0, 100.0, t1)
	lot.Fee = fixedpoint.NewFromFloat(2.0)
	p.AddLot(SideTypeBuy, lot)

	closed, _ := p.CloseFIFO(
		fixedpoint.NewFromFloat(1.0), fixedpoint.NewFromFloat(110.0), 2, "", fixedpoint.NewFromFloat(1.0), Time(t1.Add(time.Minute)))

	assert.Len(t, closed, 1)
	// half the entry fee plus the whole exit fee
	assert.Equal(t, fixedpoint.NewFromFloat(2.0), closed[0].Commission)
	assert.Equal(t, fixedpoint.NewFromFloat(8.0), closed[0].NetProfit)

	// the remaining lot keeps the other half of the entry fee
	assert.Equal(t, fixedpoint.NewFromFloat(1.0), p.Lots[0].Fee)
}

func TestPosition_OpenProfit(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	p := NewPosition("BTCUSDT")
	p.AddLot(SideTypeBuy, lotAt(1, 2.0, 100.0, t1))
	assert.Equal(t, fixedpoint.NewFromFloat(20.0), p.OpenProfit(fixedpoint.NewFromFloat(110.0)))

	p = NewPosition("BTCUSDT")
	p.AddLot(SideTypeSell, lotAt(1, 2.0, 100.0, t1))
	assert.Equal(t, fixedpoint.NewFromFloat(-20.0), p.OpenProfit(fixedpoint.NewFromFloat(110.0)))
}
