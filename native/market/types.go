package market

import "math/big"

// Item is an active fixed-price listing. Price is denominated in the
// settlement ledger's accounting currency.
type Item struct {
	Collection [20]byte
	AssetID    uint64
	Seller     [20]byte
	Price      *big.Int
	Currency   string
}

// Clone returns a deep copy so callers can mutate the result freely.
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	clone := *i
	if i.Price != nil {
		clone.Price = new(big.Int).Set(i.Price)
	}
	return &clone
}
