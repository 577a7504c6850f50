package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assistant_http_request_duration_seconds",
			Help:    "Duration of HTTP request handling in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"route"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "assistant_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)

	RemoteCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_sap_calls_total",
			Help: "Total number of SAP OData calls by entity set, operation and status",
		},
		[]string{"entity_set", "operation", "status"},
	)

	RemoteCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "assistant_sap_call_duration_seconds",
			Help: "Duration of SAP OData calls in seconds",
		},
		[]string{"entity_set", "operation"},
	)

	LLMCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_llm_calls_total",
			Help: "Total number of language model calls by purpose and outcome",
		},
		[]string{"purpose", "outcome"},
	)

	ExtractionCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_extraction_cache_total",
			Help: "Extraction cache lookups by domain and result",
		},
		[]string{"domain", "result"},
	)

	AuditWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_audit_writes_total",
			Help: "Write audit inserts by outcome",
		},
		[]string{"outcome"},
	)
)
