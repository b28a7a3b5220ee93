package offers

import "math/big"

// Offer is a standing buy offer by one offeror on one asset. Amount is
// denominated in the ledger's accounting currency; the payment currency the
// offeror supplied was converted at escrow time.
type Offer struct {
	Collection [20]byte
	AssetID    uint64
	Offeror    [20]byte
	Amount     *big.Int
	Currency   string
}

// Clone returns a deep copy of the offer.
func (o *Offer) Clone() *Offer {
	if o == nil {
		return nil
	}
	clone := *o
	if o.Amount != nil {
		clone.Amount = new(big.Int).Set(o.Amount)
	}
	return &clone
}
