package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CartOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cart_operations_total",
			Help: "Cart store operations by outcome",
		},
		[]string{"op", "result"},
	)

	SessionEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_session_events_total",
			Help: "Login, register, logout and restore events by outcome",
		},
		[]string{"event", "result"},
	)

	CheckoutTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_checkout_transitions_total",
			Help: "Checkout state machine transitions",
		},
		[]string{"from", "to"},
	)

	PaymentAuthorizations = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_payment_authorization_duration_seconds",
			Help:    "Payment authorization latency by outcome",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"result"},
	)

	ReviewsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_reviews_submitted_total",
			Help: "Reviews appended to the catalog",
		},
	)
)

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func RecordCartOp(op string, err error) {
	CartOperations.WithLabelValues(op, result(err)).Inc()
}

func RecordSessionEvent(event string, err error) {
	SessionEvents.WithLabelValues(event, result(err)).Inc()
}

func RecordTransition(from, to string) {
	CheckoutTransitions.WithLabelValues(from, to).Inc()
}

func ObservePayment(start time.Time, err error) {
	PaymentAuthorizations.WithLabelValues(result(err)).Observe(time.Since(start).Seconds())
}
