package market

import (
	"encoding/hex"
	"strconv"

	"nftmarket/core/types"
)

const (
	EventTypeItemCreated   = "market.item.created"
	EventTypeItemUpdated   = "market.item.updated"
	EventTypeItemCancelled = "market.item.cancelled"
	EventTypeItemSold      = "market.item.sold"
)

type marketEvent struct {
	evt *types.Event
}

func (e marketEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

// Event returns the underlying payload.
func (e marketEvent) Event() *types.Event { return e.evt }

func itemAttributes(item *Item) map[string]string {
	if item == nil {
		return map[string]string{}
	}
	return map[string]string{
		"collection": hex.EncodeToString(item.Collection[:]),
		"assetId":    strconv.FormatUint(item.AssetID, 10),
		"seller":     hex.EncodeToString(item.Seller[:]),
		"price":      item.Price.String(),
		"currency":   item.Currency,
	}
}

func newItemEvent(eventType string, item *Item) *types.Event {
	return &types.Event{Type: eventType, Attributes: itemAttributes(item)}
}

func newSaleEvent(item *Item, buyer [20]byte) *types.Event {
	attrs := itemAttributes(item)
	attrs["buyer"] = hex.EncodeToString(buyer[:])
	return &types.Event{Type: EventTypeItemSold, Attributes: attrs}
}
