package obs

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the prometheus instruments for the booking hot path.
type Metrics struct {
	registry         *prometheus.Registry
	bookingsCreated  prometheus.Counter
	bookingConflicts prometheus.Counter
	requestDuration  *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		bookingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "staybook_bookings_created_total",
			Help: "Bookings successfully created.",
		}),
		bookingConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "staybook_booking_conflicts_total",
			Help: "Booking attempts rejected because the dates were taken.",
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "staybook_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	registry.MustRegister(m.bookingsCreated, m.bookingConflicts, m.requestDuration)
	return m
}

func (m *Metrics) BookingCreated() { m.bookingsCreated.Inc() }

func (m *Metrics) BookingConflict() { m.bookingConflicts.Inc() }

func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	m.requestDuration.WithLabelValues(method, route, status).Observe(seconds)
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
