package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the identity service.
type Metrics struct {
	KeysAdded       prometheus.Counter
	KeysRemoved     prometheus.Counter
	ClaimsAdded     prometheus.Counter
	ClaimsRemoved   prometheus.Counter
	ExecutionsFiled prometheus.Counter
	ExecutionsRun   *prometheus.CounterVec
	PendingRequests prometheus.Gauge
	RequestLatency  *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		KeysAdded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "selfid_keys_added_total",
			Help: "Total key purposes granted",
		}),
		KeysRemoved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "selfid_keys_removed_total",
			Help: "Total key purposes revoked",
		}),
		ClaimsAdded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "selfid_claims_added_total",
			Help: "Total claims added or overwritten",
		}),
		ClaimsRemoved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "selfid_claims_removed_total",
			Help: "Total claims removed",
		}),
		ExecutionsFiled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "selfid_executions_filed_total",
			Help: "Total execution requests created",
		}),
		ExecutionsRun: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "selfid_executions_run_total",
			Help: "Total execution attempts by inner-call outcome",
		}, []string{"outcome"}),
		PendingRequests: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "selfid_pending_requests",
			Help: "Execution requests currently below approval threshold",
		}),
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "selfid_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}
