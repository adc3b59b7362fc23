package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CheckoutsTotal counts checkout attempts by outcome.
	CheckoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Checkout session attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// WebhookEventsTotal counts processor events by type and outcome.
	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Payment events received, by event type and outcome.",
		},
		[]string{"type", "outcome"},
	)

	// ClaimsTotal counts pixels whose ownership was granted by a payment.
	ClaimsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pixel_claims_total",
			Help:      "Pixels claimed through completed payments.",
		},
	)

	// RecolorsTotal counts recolor requests by authorization decision.
	RecolorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pixel_recolors_total",
			Help:      "Recolor requests by authorization decision.",
		},
		[]string{"decision"},
	)

	// PlacedPixelsTotal counts pixels written by bulk placement.
	PlacedPixelsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "placed_pixels_total",
			Help:      "Pixels written by bulk placement.",
		},
	)

	// BreakerState reports the payment processor breaker state (0 closed, 1 open, 2 half-open).
	BreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "payment_breaker_state",
			Help:      "Payment processor circuit breaker state: 0 closed, 1 open, 2 half-open.",
		},
	)
)
