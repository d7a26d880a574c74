package types

import (
	"gopkg.in/yaml.v3"

	"github.com/tvlab/tvlab/pkg/fixedpoint"
)

type TradeStats struct {
	WinningRatio        fixedpoint.Value `json:"winningRatio" yaml:"winningRatio"`
	NumOfLossTrade      int              `json:"numOfLossTrade" yaml:"numOfLossTrade"`
	NumOfProfitTrade    int              `json:"numOfProfitTrade" yaml:"numOfProfitTrade"`
	GrossProfit         fixedpoint.Value `json:"grossProfit" yaml:"grossProfit"`
	GrossLoss           fixedpoint.Value `json:"grossLoss" yaml:"grossLoss"`
	MostProfitableTrade fixedpoint.Value `json:"mostProfitableTrade" yaml:"mostProfitableTrade"`
	MostLossTrade       fixedpoint.Value `json:"mostLossTrade" yaml:"mostLossTrade"`
	TotalCommission     fixedpoint.Value `json:"totalCommission" yaml:"totalCommission"`
}

func (s *TradeStats) Add(trade ClosedTrade) {
	pnl := trade.NetProfit
	if pnl.Sign() > 0 {
		s.NumOfProfitTrade++
		s.GrossProfit = s.GrossProfit.Add(pnl)
		s.MostProfitableTrade = fixedpoint.Max(s.MostProfitableTrade, pnl)
	} else {
		s.NumOfLossTrade++
		s.GrossLoss = s.GrossLoss.Add(pnl)
		s.MostLossTrade = fixedpoint.Min(s.MostLossTrade, pnl)
	}

	s.TotalCommission = s.TotalCommission.Add(trade.Commission)

	total := s.NumOfProfitTrade + s.NumOfLossTrade
	s.WinningRatio = fixedpoint.NewFromFloat(float64(s.NumOfProfitTrade) / float64(total))
}

func (s *TradeStats) NumOfTrades() int {
	return s.NumOfProfitTrade + s.NumOfLossTrade
}

// ProfitFactor is gross profit divided by gross loss.
func (s *TradeStats) ProfitFactor() fixedpoint.Value {
	if s.GrossLoss.IsZero() {
		return fixedpoint.Zero
	}
	return s.GrossProfit.Div(s.GrossLoss.Abs())
}

func (s *TradeStats) String() string {
	out, _ := yaml.Marshal(s)
	return string(out)
}
