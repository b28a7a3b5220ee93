package types

import "math/big"

// Account holds the balances tracked by the marketplace state. Balances are
// keyed by normalized currency symbol; the accounting currency shares the map
// with any approved payment currencies.
type Account struct {
	Nonce    uint64              `json:"nonce"`
	Balances map[string]*big.Int `json:"balances"`
}

// Balance returns the balance held in the given currency, never nil.
func (a *Account) Balance(currency string) *big.Int {
	if a == nil || a.Balances == nil {
		return big.NewInt(0)
	}
	bal, ok := a.Balances[currency]
	if !ok || bal == nil {
		return big.NewInt(0)
	}
	return bal
}

// SetBalance records the balance for a currency, allocating the map lazily.
func (a *Account) SetBalance(currency string, amount *big.Int) {
	if a == nil {
		return
	}
	if a.Balances == nil {
		a.Balances = make(map[string]*big.Int)
	}
	if amount == nil {
		amount = big.NewInt(0)
	}
	a.Balances[currency] = new(big.Int).Set(amount)
}

// Clone returns a deep copy of the account so callers can mutate it freely.
func (a *Account) Clone() *Account {
	if a == nil {
		return &Account{Balances: make(map[string]*big.Int)}
	}
	clone := &Account{Nonce: a.Nonce, Balances: make(map[string]*big.Int, len(a.Balances))}
	for currency, bal := range a.Balances {
		if bal == nil {
			clone.Balances[currency] = big.NewInt(0)
			continue
		}
		clone.Balances[currency] = new(big.Int).Set(bal)
	}
	return clone
}
