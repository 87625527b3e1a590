// Package metrics owns the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "telehealth",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route pattern, method and status code.",
	}, []string{"route", "method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "telehealth",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	AppointmentTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "telehealth",
		Name:      "appointment_transitions_total",
		Help:      "Committed appointment state changes by resulting status.",
	}, []string{"status"})

	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "telehealth",
		Name:      "notifications_total",
		Help:      "Notification attempts by event type and outcome.",
	}, []string{"event", "outcome"})
)
