package rpc

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"nftmarket/native/auction"
	"nftmarket/native/market"
	"nftmarket/native/offers"
)

// callerEnvelope is the first positional parameter of every mutating method.
// Caller is the effective identity the engines act for; the transport treats
// it exactly like a direct caller once the request is authenticated.
type callerEnvelope struct {
	Caller string `json:"caller"`
	callerMetadataParams
}

func parseCaller(raw json.RawMessage) ([20]byte, callerEnvelope, error) {
	var envelope callerEnvelope
	if raw == nil {
		return [20]byte{}, envelope, fmt.Errorf("caller envelope required")
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return [20]byte{}, envelope, fmt.Errorf("invalid caller envelope: %w", err)
	}
	addr, err := parseAddress(envelope.Caller)
	if err != nil {
		return [20]byte{}, envelope, fmt.Errorf("caller: %w", err)
	}
	return addr, envelope, nil
}

func parseAddress(raw string) ([20]byte, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return [20]byte{}, fmt.Errorf("address required")
	}
	if !ethcommon.IsHexAddress(trimmed) {
		return [20]byte{}, fmt.Errorf("malformed address %q", raw)
	}
	return [20]byte(ethcommon.HexToAddress(trimmed)), nil
}

func formatAddress(addr [20]byte) string {
	return ethcommon.Address(addr).Hex()
}

func parseAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("amount required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("malformed amount %q", raw)
	}
	return amount, nil
}

func decodeParam(raw json.RawMessage, out interface{}) error {
	if raw == nil {
		return fmt.Errorf("missing parameter")
	}
	return json.Unmarshal(raw, out)
}

type itemRef struct {
	Collection string `json:"collection"`
	AssetID    uint64 `json:"assetId"`
}

func (ref itemRef) collection() ([20]byte, error) {
	addr, err := parseAddress(ref.Collection)
	if err != nil {
		return [20]byte{}, fmt.Errorf("collection: %w", err)
	}
	return addr, nil
}

type MarketItemResult struct {
	Collection string `json:"collection"`
	AssetID    uint64 `json:"assetId"`
	Seller     string `json:"seller"`
	Price      string `json:"price"`
	Currency   string `json:"currency"`
}

func marketItemResult(item *market.Item) MarketItemResult {
	return MarketItemResult{
		Collection: formatAddress(item.Collection),
		AssetID:    item.AssetID,
		Seller:     formatAddress(item.Seller),
		Price:      item.Price.String(),
		Currency:   item.Currency,
	}
}

type AuctionItemResult struct {
	Collection    string `json:"collection"`
	AssetID       uint64 `json:"assetId"`
	Seller        string `json:"seller"`
	CurrentBid    string `json:"currentBid"`
	CurrentBidder string `json:"currentBidder,omitempty"`
	EndsAt        int64  `json:"endsAt"`
	Currency      string `json:"currency"`
}

func auctionItemResult(item *auction.Item) AuctionItemResult {
	result := AuctionItemResult{
		Collection: formatAddress(item.Collection),
		AssetID:    item.AssetID,
		Seller:     formatAddress(item.Seller),
		CurrentBid: item.CurrentBid.String(),
		EndsAt:     item.EndsAt,
		Currency:   item.Currency,
	}
	if item.HasBid() {
		result.CurrentBidder = formatAddress(item.CurrentBidder)
	}
	return result
}

type OfferResult struct {
	Collection string `json:"collection"`
	AssetID    uint64 `json:"assetId"`
	Offeror    string `json:"offeror"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
}

func offerResult(offer *offers.Offer) OfferResult {
	return OfferResult{
		Collection: formatAddress(offer.Collection),
		AssetID:    offer.AssetID,
		Offeror:    formatAddress(offer.Offeror),
		Amount:     offer.Amount.String(),
		Currency:   offer.Currency,
	}
}
