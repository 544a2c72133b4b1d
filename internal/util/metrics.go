package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CheckoutSessionsStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_sessions_started_total",
		Help: "Total number of checkout sessions started",
	})

	CheckoutSessionsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_sessions_completed_total",
		Help: "Total number of checkout sessions that reached a confirmed booking",
	})

	CheckoutValidationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_validation_failures_total",
		Help: "Total number of checkout submissions blocked by validation",
	}, []string{"reason"})

	BookingsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookings_created_total",
		Help: "Total number of bookings created",
	})

	BookingsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookings_failed_total",
		Help: "Total number of failed booking submissions",
	}, []string{"reason"})

	BookingsDuplicateTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookings_duplicate_submissions_total",
		Help: "Total number of submissions answered from an existing booking via idempotency key",
	})

	SeatReserveLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "seat_reserve_latency_seconds",
		Help:    "Latency of seat reservation operations",
		Buckets: prometheus.DefBuckets,
	})

	SeatReservationsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seat_reservations_failed_total",
		Help: "Total number of failed seat reservations",
	}, []string{"reason"})

	PaymentAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_attempts_total",
		Help: "Total number of payment attempts",
	})

	PaymentSuccessTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_success_total",
		Help: "Total number of successful payments",
	})

	PaymentFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_failed_total",
		Help: "Total number of failed payments",
	})

	PaymentProcessingLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "payment_processing_latency_seconds",
		Help:    "Latency of payment processing",
		Buckets: prometheus.DefBuckets,
	})

	QRGenerationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qr_generation_failures_total",
		Help: "Total number of QR code generation failures",
	})

	EventLoadFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "event_load_fallbacks_total",
		Help: "Total number of event loads answered with the placeholder event",
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
