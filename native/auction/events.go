package auction

import (
	"encoding/hex"
	"strconv"

	"nftmarket/core/types"
)

const (
	// EventTypeAuctionCreated is emitted when an auction opens.
	EventTypeAuctionCreated = "auction.item.created"
	// EventTypeAuctionBid is emitted when a bid is accepted.
	EventTypeAuctionBid = "auction.item.bid"
	// EventTypeAuctionFinished is emitted when a bid-carrying auction closes.
	EventTypeAuctionFinished = "auction.item.finished"
	// EventTypeAuctionReturned is emitted when a bid-less auction closes and
	// the asset returns to the seller.
	EventTypeAuctionReturned = "auction.item.returned"
)

type auctionEvent struct {
	evt *types.Event
}

func (e auctionEvent) EventType() string { return e.evt.Type }

func (e auctionEvent) Event() *types.Event { return e.evt }

func newItemEvent(eventType string, item *Item) *types.Event {
	attrs := map[string]string{
		"collection": hex.EncodeToString(item.Collection[:]),
		"assetId":    strconv.FormatUint(item.AssetID, 10),
		"seller":     hex.EncodeToString(item.Seller[:]),
		"endsAt":     strconv.FormatInt(item.EndsAt, 10),
		"currency":   item.Currency,
	}
	if item.CurrentBid != nil {
		attrs["bid"] = item.CurrentBid.String()
	}
	if item.HasBid() {
		attrs["bidder"] = hex.EncodeToString(item.CurrentBidder[:])
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}
