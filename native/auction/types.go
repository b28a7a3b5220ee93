package auction

import "math/big"

// Item is an active timed auction. CurrentBid starts at the floor price and
// only moves when a bid is accepted; CurrentBidder stays zero until the first
// bid. EndsAt is fixed at creation and never extended by later bids.
type Item struct {
	Collection    [20]byte
	AssetID       uint64
	Seller        [20]byte
	CurrentBid    *big.Int
	CurrentBidder [20]byte
	EndsAt        int64
	Currency      string
}

// HasBid reports whether any bid was ever accepted.
func (i *Item) HasBid() bool {
	return i != nil && i.CurrentBidder != ([20]byte{})
}

// Clone returns a deep copy so callers can mutate the result freely.
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	clone := *i
	if i.CurrentBid != nil {
		clone.CurrentBid = new(big.Int).Set(i.CurrentBid)
	}
	return &clone
}
