package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics records cart mutation and checkout handoff outcomes.
type CartMetrics struct {
	writes           *prometheus.CounterVec
	decodeFailures   prometheus.Counter
	checkoutSessions *prometheus.CounterVec
	checkoutDuration prometheus.Histogram
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	writes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_writes_total",
		Help: "Cart store writes by operation.",
	}, []string{"op"})
	decodeFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_decode_failures_total",
		Help: "Stored cart payloads that failed to decode and were treated as empty.",
	})
	checkoutSessions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_sessions_total",
		Help: "Checkout session creations by outcome.",
	}, []string{"outcome"})
	checkoutDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_session_duration_seconds",
		Help:    "Duration of checkout session creation in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(writes, decodeFailures, checkoutSessions, checkoutDuration)
	return &CartMetrics{
		writes:           writes,
		decodeFailures:   decodeFailures,
		checkoutSessions: checkoutSessions,
		checkoutDuration: checkoutDuration,
	}
}

// IncWrite increments the write counter for the named operation.
func (c *CartMetrics) IncWrite(op string) {
	if c == nil || c.writes == nil {
		return
	}
	c.writes.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncDecodeFailure counts a stored payload that could not be decoded.
func (c *CartMetrics) IncDecodeFailure() {
	if c == nil || c.decodeFailures == nil {
		return
	}
	c.decodeFailures.Inc()
}

// IncCheckoutSession counts a checkout session attempt by outcome.
func (c *CartMetrics) IncCheckoutSession(outcome string) {
	if c == nil || c.checkoutSessions == nil {
		return
	}
	c.checkoutSessions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveCheckoutDuration records how long session creation took.
func (c *CartMetrics) ObserveCheckoutDuration(duration time.Duration) {
	if c == nil || c.checkoutDuration == nil {
		return
	}
	c.checkoutDuration.Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
