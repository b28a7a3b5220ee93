package offers

import (
	"encoding/hex"
	"strconv"

	"nftmarket/core/types"
)

const (
	// EventTypeOfferCreated is emitted when an offer is escrowed and recorded.
	EventTypeOfferCreated = "offers.offer.created"
	// EventTypeOfferCancelled is emitted when an offeror withdraws an offer.
	EventTypeOfferCancelled = "offers.offer.cancelled"
	// EventTypeOfferAccepted is emitted when the asset owner takes an offer.
	EventTypeOfferAccepted = "offers.offer.accepted"
)

type offerEvent struct {
	evt *types.Event
}

func (e offerEvent) EventType() string { return e.evt.Type }

func (e offerEvent) Event() *types.Event { return e.evt }

func newOfferEvent(eventType string, offer *Offer) *types.Event {
	attrs := map[string]string{
		"collection": hex.EncodeToString(offer.Collection[:]),
		"assetId":    strconv.FormatUint(offer.AssetID, 10),
		"offeror":    hex.EncodeToString(offer.Offeror[:]),
		"currency":   offer.Currency,
	}
	if offer.Amount != nil {
		attrs["amount"] = offer.Amount.String()
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}
