package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ozra", Name: "transitions_total", Help: "Accepted status transitions"},
		[]string{"family", "to_status"},
	)
	AssignmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ozra", Name: "assignments_total", Help: "Accepted assignments"},
		[]string{"family"},
	)
	ConflictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ozra", Name: "conflicts_total", Help: "Rejected mutations by failure kind"},
		[]string{"family", "reason"},
	)
	EventsPublished = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "ozra", Name: "events_published_total", Help: "Lifecycle events published"},
	)
	Subscribers = promauto.NewGauge(
		prometheus.GaugeOpts{Namespace: "ozra", Name: "event_subscribers", Help: "Connected event subscribers"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ozra", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ozra",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
