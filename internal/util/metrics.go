package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReportsGeneratedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reports_generated_total",
		Help: "Total number of reports generated",
	}, []string{"kind", "date_filter"})

	ReportsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reports_failed_total",
		Help: "Total number of reports that could not be generated",
	}, []string{"reason"})

	ReportLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "report_latency_seconds",
		Help:    "Latency of snapshot load plus report computation",
		Buckets: prometheus.DefBuckets,
	})

	ReportSnapshotOrders = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "report_snapshot_orders",
		Help:    "Number of orders in report snapshots",
		Buckets: prometheus.ExponentialBuckets(10, 4, 8),
	})

	OrdersUpsertedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_upserted_total",
		Help: "Total number of orders ingested",
	})

	SpendRecordsUpsertedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spend_records_upserted_total",
		Help: "Total number of spend records ingested",
	})

	SignalsAppliedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signals_applied_total",
		Help: "Total number of fulfillment signals applied to orders",
	}, []string{"type", "result"})

	WebhooksReceivedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhooks_received_total",
		Help: "Total number of signal webhooks received",
	}, []string{"source"})

	CourierPollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "courier_polls_total",
		Help: "Total number of courier tracking polls",
	}, []string{"result"})

	CourierPollLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "courier_poll_latency_seconds",
		Help:    "Latency of one courier tracking poll",
		Buckets: prometheus.DefBuckets,
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
