package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type MarketplaceMetrics struct {
	eventsEmitted     *prometheus.CounterVec
	itemsListed       *prometheus.CounterVec
	salesSettled      *prometheus.CounterVec
	bidsAccepted      prometheus.Counter
	offersOpen        prometheus.Gauge
	revenueRetrievals prometheus.Counter
	rpcRequests       *prometheus.CounterVec
}

var (
	marketplaceOnce     sync.Once
	marketplaceRegistry *MarketplaceMetrics
)

func Marketplace() *MarketplaceMetrics {
	marketplaceOnce.Do(func() {
		marketplaceRegistry = &MarketplaceMetrics{
			eventsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "marketplace_events_emitted_total",
				Help: "Count of engine events by event type.",
			}, []string{"type"}),
			itemsListed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "marketplace_items_listed_total",
				Help: "Count of sale items opened by engine.",
			}, []string{"engine"}),
			salesSettled: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "marketplace_sales_settled_total",
				Help: "Count of completed sales by engine.",
			}, []string{"engine"}),
			bidsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "marketplace_bids_accepted_total",
				Help: "Count of accepted auction bids.",
			}),
			offersOpen: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "marketplace_offers_open",
				Help: "Number of currently standing buy offers.",
			}),
			revenueRetrievals: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "marketplace_revenue_retrievals_total",
				Help: "Count of pending-revenue withdrawals paid out.",
			}),
			rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "marketplace_rpc_requests_total",
				Help: "Count of RPC requests by method and outcome.",
			}, []string{"method", "outcome"}),
		}
		prometheus.MustRegister(
			marketplaceRegistry.eventsEmitted,
			marketplaceRegistry.itemsListed,
			marketplaceRegistry.salesSettled,
			marketplaceRegistry.bidsAccepted,
			marketplaceRegistry.offersOpen,
			marketplaceRegistry.revenueRetrievals,
			marketplaceRegistry.rpcRequests,
		)
	})
	return marketplaceRegistry
}

func (m *MarketplaceMetrics) ObserveEvent(eventType string) {
	if m == nil {
		return
	}
	m.eventsEmitted.WithLabelValues(eventType).Inc()
}

func (m *MarketplaceMetrics) ItemListed(engine string) {
	if m == nil {
		return
	}
	m.itemsListed.WithLabelValues(engine).Inc()
}

func (m *MarketplaceMetrics) SaleSettled(engine string) {
	if m == nil {
		return
	}
	m.salesSettled.WithLabelValues(engine).Inc()
}

func (m *MarketplaceMetrics) BidAccepted() {
	if m == nil {
		return
	}
	m.bidsAccepted.Inc()
}

func (m *MarketplaceMetrics) OfferOpened() {
	if m == nil {
		return
	}
	m.offersOpen.Inc()
}

func (m *MarketplaceMetrics) OfferClosed() {
	if m == nil {
		return
	}
	m.offersOpen.Dec()
}

func (m *MarketplaceMetrics) RevenueRetrieved() {
	if m == nil {
		return
	}
	m.revenueRetrievals.Inc()
}

func (m *MarketplaceMetrics) RPCRequest(method, outcome string) {
	if m == nil {
		return
	}
	m.rpcRequests.WithLabelValues(method, outcome).Inc()
}
