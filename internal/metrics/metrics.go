package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookings_created_total",
		Help: "Total number of bookings requested",
	}, []string{"kind"})

	BookingTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_transitions_total",
		Help: "Total number of applied booking status transitions",
	}, []string{"from", "to"})

	BookingTransitionConflictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_transition_conflicts_total",
		Help: "Conditional status updates that lost to a concurrent writer",
	}, []string{"action"})

	PaymentMismatchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_mismatches_total",
		Help: "Payment confirmations rejected because the amount differed from the booking total",
	})

	PaymentFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_failures_total",
		Help: "Payment failures reported by the processor",
	})

	CancellationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_cancellations_total",
		Help: "Cancellations by refund tier",
	}, []string{"tier"})

	RefundsIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "refunds_issued_total",
		Help: "Refunds acknowledged by the payment processor",
	})

	RefundIssueFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "refund_issue_failures_total",
		Help: "Refund instructions the payment processor rejected or failed to answer",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
