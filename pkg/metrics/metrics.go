package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request counter
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTP request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Purchases by outcome: committed, sold_out, insufficient_capacity,
	// lock_timeout, not_found, invalid, persistence_failure, error
	Purchases = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cineweb_purchases_total",
			Help: "Total number of purchase attempts by outcome",
		},
		[]string{"outcome"},
	)

	// Tickets committed across all showtimes
	TicketsSold = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cineweb_tickets_sold_total",
			Help: "Total number of tickets committed",
		},
	)

	// Time spent inside the capacity ledger admission
	AdmissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cineweb_ledger_admission_seconds",
			Help:    "Capacity ledger admission latency in seconds",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"backend"},
	)

	// Compensating releases after a failed order write
	Rollbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cineweb_ledger_rollbacks_total",
			Help: "Capacity reservations released after a failed order write",
		},
		[]string{"status"},
	)
)
