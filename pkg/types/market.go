package types

import (
	"math"
	"strconv"

	"github.com/leekchan/accounting"

	"github.com/tvlab/tvlab/pkg/fixedpoint"
)

type Market struct {
	Symbol string `json:"symbol" yaml:"symbol"`

	PricePrecision  int `json:"pricePrecision" yaml:"pricePrecision"`
	VolumePrecision int `json:"volumePrecision" yaml:"volumePrecision"`

	QuoteCurrency string `json:"quoteCurrency" yaml:"quoteCurrency"`
	BaseCurrency  string `json:"baseCurrency" yaml:"baseCurrency"`

	// TickSize is the minimum price movement. Stop trigger prices and
	// slippage are expressed in ticks.
	TickSize fixedpoint.Value `json:"tickSize,omitempty" yaml:"tickSize"`

	MinQuantity fixedpoint.Value `json:"minQuantity,omitempty" yaml:"minQuantity"`
	MinNotional fixedpoint.Value `json:"minNotional,omitempty" yaml:"minNotional"`
}

func (m Market) BaseCurrencyFormatter() *accounting.Accounting {
	a := accounting.DefaultAccounting(m.BaseCurrency, m.VolumePrecision)
	a.Format = "%v %s"
	return a
}

func (m Market) QuoteCurrencyFormatter() *accounting.Accounting {
	var format, symbol string

	switch m.QuoteCurrency {
	case "USDT", "USDC", "USD":
		symbol = "$"
		format = "%s %v"

	default:
		symbol = m.QuoteCurrency
		format = "%v %s"
	}

	a := accounting.DefaultAccounting(symbol, m.PricePrecision)
	a.Format = format
	return a
}

func (m Market) FormatPrice(val fixedpoint.Value) string {
	return strconv.FormatFloat(val.Float64(), 'f', m.PricePrecision, 64)
}

func (m Market) FormatQuantity(val fixedpoint.Value) string {
	return strconv.FormatFloat(val.Float64(), 'f', m.VolumePrecision, 64)
}

// TruncateQuantity rounds the quantity down to the volume precision so that
// computed position sizes are always representable.
func (m Market) TruncateQuantity(quantity fixedpoint.Value) fixedpoint.Value {
	pow := math.Pow10(m.VolumePrecision)
	return fixedpoint.NewFromFloat(math.Floor(quantity.Float64()*pow) / pow)
}

func (m Market) CanonicalizeVolume(val fixedpoint.Value) float64 {
	pow := math.Pow10(m.VolumePrecision)
	return math.Trunc(pow*val.Float64()) / pow
}

type MarketMap map[string]Market

func (m MarketMap) Add(market Market) {
	m[market.Symbol] = market
}

func (m MarketMap) Has(symbol string) bool {
	_, ok := m[symbol]
	return ok
}
