package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes application-level instruments.
type Metrics struct {
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	bidsPlaced    *prometheus.CounterVec
	auctionsSwept prometheus.Counter
	paymentEvents *prometheus.CounterVec
}

// New registers the instruments on the default registry.
func New() *Metrics {
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gavel_http_requests_total",
			Help: "Total HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gavel_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		bidsPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gavel_bids_placed_total",
			Help: "Accepted bids by outcome.",
		}, []string{"outcome"}),
		auctionsSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gavel_auctions_swept_total",
			Help: "Auctions closed by the expiry sweeper.",
		}),
		paymentEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gavel_payment_events_total",
			Help: "Payment callbacks processed by result.",
		}, []string{"result"}),
	}

	prometheus.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.bidsPlaced,
		m.auctionsSwept,
		m.paymentEvents,
	)
	return m
}

// GinMiddleware records request counts and latency per route.
func GinMiddleware(m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		m.httpRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// RecordBidPlaced increments accepted bid counts.
func (m *Metrics) RecordBidPlaced(winning bool) {
	if m == nil {
		return
	}
	outcome := "standing"
	if winning {
		outcome = "winning"
	}
	m.bidsPlaced.WithLabelValues(outcome).Inc()
}

// RecordAuctionsSwept adds the number of auctions closed by one sweep.
func (m *Metrics) RecordAuctionsSwept(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.auctionsSwept.Add(float64(count))
}

// RecordPaymentEvent increments processed payment callback counts.
func (m *Metrics) RecordPaymentEvent(result string) {
	if m == nil {
		return
	}
	m.paymentEvents.WithLabelValues(strings.TrimSpace(result)).Inc()
}
