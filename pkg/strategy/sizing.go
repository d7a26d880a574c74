package strategy

import (
	"github.com/pkg/errors"

	"github.com/tvlab/tvlab/pkg/fixedpoint"
	"github.com/tvlab/tvlab/pkg/types"
)

type SizingType string

const (
	// SizingTypeFixed uses Value as the order quantity.
	SizingTypeFixed SizingType = "fixed"

	// SizingTypePercentOfEquity spends Value percent of the current equity.
	SizingTypePercentOfEquity SizingType = "percentOfEquity"

	// SizingTypeCash spends Value of the account currency.
	SizingTypeCash SizingType = "cash"
)

// Sizing converts account state into an entry order quantity.
type Sizing struct {
	Type  SizingType       `json:"type" yaml:"type"`
	Value fixedpoint.Value `json:"value" yaml:"value"`
}

func (s Sizing) Validate() error {
	switch s.Type {
	case SizingTypeFixed, SizingTypePercentOfEquity, SizingTypeCash, "":
	default:
		return errors.Errorf("unknown sizing type %q", s.Type)
	}

	if s.Value.Sign() <= 0 {
		return errors.New("sizing value must be positive")
	}

	return nil
}

// Quantity computes the order quantity at the given equity and price,
// truncated to the market volume precision.
func (s Sizing) Quantity(equity, price fixedpoint.Value, market types.Market) fixedpoint.Value {
	if price.Sign() <= 0 {
		return fixedpoint.Zero
	}

	switch s.Type {
	case SizingTypePercentOfEquity:
		cash := equity.Mul(s.Value).DivFloat64(100.0)
		return market.TruncateQuantity(cash.Div(price))

	case SizingTypeCash:
		return market.TruncateQuantity(s.Value.Div(price))

	default:
		return s.Value
	}
}
