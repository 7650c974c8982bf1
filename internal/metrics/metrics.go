// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mindnest_http_requests_total",
		Help: "HTTP requests by method, route pattern and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mindnest_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	AssessmentsScored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mindnest_assessments_scored_total",
		Help: "Scored assessments by severity and result source.",
	}, []string{"severity", "source"})

	ScorerFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mindnest_scorer_fallbacks_total",
		Help: "Times the remote scoring service failed and the local fallback was used.",
	})

	AppointmentsBooked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mindnest_appointments_booked_total",
		Help: "Appointments created.",
	})

	BookingConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mindnest_booking_conflicts_total",
		Help: "Rejected bookings by reason (taken, busy).",
	}, []string{"reason"})

	CrisisMessages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mindnest_chatbot_crisis_messages_total",
		Help: "Chatbot messages that matched crisis language.",
	})
)
