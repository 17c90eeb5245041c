package exchange

import jsoniter "github.com/json-iterator/go"

// NewBalances builds balances from per currency accounts. A missing total is
// computed as free + used, a missing free as total - used.
func NewBalances(info jsoniter.RawMessage, accounts map[string]Balance) *Balances {
	bal := &Balances{
		Info:       info,
		Currencies: make(map[string]Balance, len(accounts)),
		Free:       make(PartialBalances, len(accounts)),
		Used:       make(PartialBalances, len(accounts)),
		Total:      make(PartialBalances, len(accounts)),
	}
	for code, acc := range accounts {
		if acc.Total == 0 {
			acc.Total = acc.Free + acc.Used
		}
		if acc.Free == 0 && acc.Total > acc.Used {
			acc.Free = acc.Total - acc.Used
		}
		bal.Currencies[code] = acc
		bal.Free[code] = acc.Free
		bal.Used[code] = acc.Used
		bal.Total[code] = acc.Total
	}
	return bal
}
