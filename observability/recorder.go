package observability

import (
	"nftmarket/core/events"
	"nftmarket/native/auction"
	"nftmarket/native/market"
	"nftmarket/native/offers"
	"nftmarket/native/settlement"
	"nftmarket/observability/metrics"
)

// Recorder is an event emitter that folds engine events into Prometheus
// metrics. Engines wired to it need no metrics knowledge of their own.
type Recorder struct {
	metrics *metrics.MarketplaceMetrics
	next    events.Emitter
}

// NewRecorder builds a recorder over the process-wide metrics registry.
// Events are forwarded to next when it is non-nil.
func NewRecorder(next events.Emitter) *Recorder {
	return &Recorder{metrics: metrics.Marketplace(), next: next}
}

// Emit implements events.Emitter.
func (r *Recorder) Emit(evt events.Event) {
	if r == nil || evt == nil {
		return
	}
	eventType := evt.EventType()
	r.metrics.ObserveEvent(eventType)
	switch eventType {
	case market.EventTypeItemCreated:
		r.metrics.ItemListed("market")
	case auction.EventTypeAuctionCreated:
		r.metrics.ItemListed("auction")
	case market.EventTypeItemSold:
		r.metrics.SaleSettled("market")
	case auction.EventTypeAuctionFinished:
		r.metrics.SaleSettled("auction")
	case offers.EventTypeOfferAccepted:
		r.metrics.SaleSettled("offers")
		r.metrics.OfferClosed()
	case auction.EventTypeAuctionBid:
		r.metrics.BidAccepted()
	case offers.EventTypeOfferCreated:
		r.metrics.OfferOpened()
	case offers.EventTypeOfferCancelled:
		r.metrics.OfferClosed()
	case settlement.EventTypeRevenueRetrieved:
		r.metrics.RevenueRetrieved()
	}
	if r.next != nil {
		r.next.Emit(evt)
	}
}
