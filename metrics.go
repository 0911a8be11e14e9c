package dobhasi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker"
)

var (
	cacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dobhasi_cache_lookups_total",
		Help: "Translation cache lookups by language and result (hit or miss)",
	}, []string{"lang", "result"})

	providerCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dobhasi_provider_calls_total",
		Help: "Translation provider calls by language and outcome",
	}, []string{"lang", "outcome"})

	providerCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dobhasi_provider_call_duration_seconds",
		Help:    "Duration of translation provider calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"lang"})

	sharedRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dobhasi_shared_requests_total",
		Help: "Batch requests that received a result shared with an identical in-flight request",
	})

	breakerStateGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dobhasi_circuit_breaker_state",
		Help: "Current state of provider circuit breakers (0=closed, 0.5=half-open, 1=open)",
	}, []string{"breaker"})

	breakerStateTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dobhasi_circuit_breaker_state_changes_total",
		Help: "Total number of provider circuit breaker state transitions",
	}, []string{"breaker", "from", "to"})
)

func recordCacheLookup(lang Language, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookupsTotal.WithLabelValues(string(lang), result).Inc()
}

func recordProviderCall(lang Language, kind ErrorKind, seconds float64) {
	outcome := "success"
	if kind != KindNone {
		outcome = kind.String()
	}
	providerCallsTotal.WithLabelValues(string(lang), outcome).Inc()
	providerCallDuration.WithLabelValues(string(lang)).Observe(seconds)
}

func recordSharedRequest() {
	sharedRequestsTotal.Inc()
}

func breakerStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 0.5
	case gobreaker.StateOpen:
		return 1
	default:
		return -1
	}
}

func recordBreakerStateChange(name string, from, to gobreaker.State) {
	breakerStateTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
	breakerStateGauge.WithLabelValues(name).Set(breakerStateValue(to))
}
