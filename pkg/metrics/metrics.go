package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "scaleaudit", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "scaleaudit", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	// AuditsGenerated counts generation attempts by mode and outcome
	// (ok, provider_unavailable, malformed_model_output, storage_unavailable).
	AuditsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "scaleaudit", Name: "audits_generated_total", Help: "Audit generation attempts by mode and outcome."},
		[]string{"mode", "outcome"},
	)
	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "scaleaudit", Name: "provider_request_seconds", Help: "Latency of language-model calls.", Buckets: prometheus.ExponentialBuckets(0.25, 2, 8)},
		[]string{"mode"},
	)
	Exports = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "scaleaudit", Name: "audit_exports_total", Help: "Audit publish attempts by exporter and outcome."},
		[]string{"exporter", "outcome"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(AuditsGenerated)
	reg.MustRegister(ProviderLatency)
	reg.MustRegister(Exports)
}
