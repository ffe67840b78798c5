package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "marketplace"

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	StockReservations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_reservations_total",
			Help:      "Stock reservation attempts by outcome",
		},
		[]string{"outcome"},
	)

	StockReleasedUnits = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_released_units_total",
			Help:      "Units returned to stock by compensation or cancellation",
		},
	)

	Checkouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Checkout attempts by outcome",
		},
		[]string{"outcome"},
	)

	BidResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bid_resolutions_total",
			Help:      "Bid resolutions by decision and outcome",
		},
		[]string{"decision", "outcome"},
	)

	BidsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bids_expired_total",
			Help:      "Pending bids moved to expired by the sweeper",
		},
	)

	OrderTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_transitions_total",
			Help:      "Order status transitions by target status",
		},
		[]string{"to"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Domain events handed to the broker by type and outcome",
		},
		[]string{"type", "outcome"},
	)
)

func RecordReservation(outcome string) {
	StockReservations.WithLabelValues(outcome).Inc()
}

func RecordRelease(units int) {
	StockReleasedUnits.Add(float64(units))
}

func RecordCheckout(outcome string) {
	Checkouts.WithLabelValues(outcome).Inc()
}

func RecordBidResolution(decision, outcome string) {
	BidResolutions.WithLabelValues(decision, outcome).Inc()
}

func RecordOrderTransition(to string) {
	OrderTransitions.WithLabelValues(to).Inc()
}

func RecordEvent(eventType, outcome string) {
	EventsPublished.WithLabelValues(eventType, outcome).Inc()
}
