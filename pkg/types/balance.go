package types

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/tvlab/tvlab/pkg/fixedpoint"
)

type Balance struct {
	Currency  string           `json:"currency"`
	Available fixedpoint.Value `json:"available"`
	Locked    fixedpoint.Value `json:"locked,omitempty"`
}

func (b Balance) Total() fixedpoint.Value {
	return b.Available.Add(b.Locked)
}

func (b Balance) String() string {
	if b.Locked.Sign() > 0 {
		return fmt.Sprintf("%s: %s (locked %s)", b.Currency, b.Available.String(), b.Locked.String())
	}

	return fmt.Sprintf("%s: %s", b.Currency, b.Available.String())
}

type BalanceMap map[string]Balance

func (m BalanceMap) Copy() BalanceMap {
	var d = make(BalanceMap)
	for c, b := range m {
		d[c] = b
	}
	return d
}

func (m BalanceMap) String() string {
	var ss []string
	for _, b := range m {
		ss = append(ss, b.String())
	}

	sort.Strings(ss)
	return "BalanceMap[" + strings.Join(ss, ", ") + "]"
}

func (m BalanceMap) Print() {
	var currencies []string
	for c := range m {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)

	for _, c := range currencies {
		logrus.Infof(" %s", m[c].String())
	}
}

// Account tracks the simulated account balances and fee rates.
type Account struct {
	sync.Mutex `json:"-"`

	// Currency is the account currency; equity, profit and commission are
	// denominated in it.
	Currency string `json:"currency"`

	MakerFeeRate fixedpoint.Value `json:"makerFeeRate"`
	TakerFeeRate fixedpoint.Value `json:"takerFeeRate"`

	balances BalanceMap
}

func NewAccount() *Account {
	return &Account{
		balances: make(BalanceMap),
	}
}

func (a *Account) Balances() BalanceMap {
	a.Lock()
	defer a.Unlock()

	return a.balances.Copy()
}

func (a *Account) Balance(currency string) (Balance, bool) {
	a.Lock()
	defer a.Unlock()

	b, ok := a.balances[currency]
	return b, ok
}

func (a *Account) UpdateBalances(balances BalanceMap) {
	a.Lock()
	defer a.Unlock()

	if a.balances == nil {
		a.balances = make(BalanceMap)
	}

	for _, b := range balances {
		a.balances[b.Currency] = b
	}
}

func (a *Account) AddBalance(currency string, delta fixedpoint.Value) {
	a.Lock()
	defer a.Unlock()

	b, ok := a.balances[currency]
	if !ok {
		b = Balance{Currency: currency}
	}

	b.Available = b.Available.Add(delta)
	a.balances[currency] = b
}

// UseBalance subtracts fund from the available balance. Unlike a live
// exchange the emulator allows the balance to go negative: margin trading is
// modeled by cash accounting, margin checks happen in the broker.
func (a *Account) UseBalance(currency string, fund fixedpoint.Value) {
	a.AddBalance(currency, fund.Neg())
}

func (a *Account) Print() {
	a.Lock()
	defer a.Unlock()

	logrus.Infof("account currency: %s", a.Currency)
	if a.MakerFeeRate.Sign() > 0 || a.TakerFeeRate.Sign() > 0 {
		logrus.Infof("fee rates: maker %s, taker %s", a.MakerFeeRate.FormatPercentage(4), a.TakerFeeRate.FormatPercentage(4))
	}
	a.balances.Print()
}
