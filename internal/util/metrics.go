package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CartMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Total number of cart mutations",
	}, []string{"op"})

	CartLinesMerged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cart_lines_merged_total",
		Help: "Total number of cart lines merged into an existing entry",
	})

	CheckoutsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkouts_completed_total",
		Help: "Total number of checkout sessions finalized into orders",
	})

	CheckoutsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkouts_failed_total",
		Help: "Total number of failed checkout completions",
	}, []string{"reason"})

	CheckoutLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_completion_latency_seconds",
		Help:    "Latency of checkout completion",
		Buckets: prometheus.DefBuckets,
	})

	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders created",
	})

	OrderStatusChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_changes_total",
		Help: "Total number of order status transitions",
	}, []string{"to"})

	AddressValidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "address_validations_total",
		Help: "Total number of address validation calls",
	}, []string{"outcome"})

	GeocodeLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "geocode_request_latency_seconds",
		Help:    "Latency of geocoding provider requests",
		Buckets: prometheus.DefBuckets,
	})

	EmailsSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_emails_sent_total",
		Help: "Total number of order confirmation emails sent",
	})

	EmailsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_emails_failed_total",
		Help: "Total number of order confirmation emails that failed to send",
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
