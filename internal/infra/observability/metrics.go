package observability

import (
	"time"

	"github.com/fitcoachhq/lead-funnel-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the funnel service.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration  *prometheus.HistogramVec
	externalErrors   *prometheus.CounterVec
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	tokensUsed       *prometheus.CounterVec
	requestsTotal    *prometheus.CounterVec
	fallbacksTotal   prometheus.Counter
	stageTransitions *prometheus.CounterVec
	leadsCaptured    *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "funnel_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "funnel_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "funnel_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "funnel_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		tokensUsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "funnel_llm_tokens_total",
				Help: "Total LLM tokens consumed.",
			},
			[]string{"type"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "funnel_requests_total",
				Help: "Total requests processed.",
			},
			[]string{"status"},
		),
		fallbacksTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "funnel_provider_fallbacks_total",
				Help: "Turns answered from canned content after a provider failure.",
			},
		),
		stageTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "funnel_stage_transitions_total",
				Help: "Stage transitions by destination stage.",
			},
			[]string{"stage"},
		),
		leadsCaptured: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "funnel_leads_captured_total",
				Help: "Leads captured by segment.",
			},
			[]string{"segment"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// RecordTokens records prompt and completion token usage.
func (m *Metrics) RecordTokens(prompt, completion int) {
	m.tokensUsed.WithLabelValues("prompt").Add(float64(prompt))
	m.tokensUsed.WithLabelValues("completion").Add(float64(completion))
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// IncrFallback counts a turn served from canned content after a provider
// failure.
func (m *Metrics) IncrFallback() {
	m.fallbacksTotal.Inc()
}

// IncrStageTransition counts an arrival at a funnel stage.
func (m *Metrics) IncrStageTransition(stage string) {
	m.stageTransitions.WithLabelValues(stage).Inc()
}

// IncrLeadCaptured counts a captured lead by segment.
func (m *Metrics) IncrLeadCaptured(segment string) {
	m.leadsCaptured.WithLabelValues(segment).Inc()
}

// GetFunnelSnapshot returns a snapshot of funnel metrics suitable for the
// GET /v1/metrics/funnel endpoint.
func (m *Metrics) GetFunnelSnapshot() *domain.FunnelMetrics {
	// Gather current values from Prometheus counters.
	// Note: Prometheus counters expose cumulative values.
	promptTokens := getCounterValue(m.tokensUsed, "prompt")
	completionTokens := getCounterValue(m.tokensUsed, "completion")
	totalTurns := getCounterValue(m.requestsTotal, "success") +
		getCounterValue(m.requestsTotal, "error")
	errorCount := getCounterValue(m.requestsTotal, "error")
	cacheHits := getCounterValue(m.cacheHits, "responses")
	cacheMisses := getCounterValue(m.cacheMisses, "responses")
	fallbacks := getSimpleCounterValue(m.fallbacksTotal)
	leadsHot := getCounterValue(m.leadsCaptured, "hot")
	leadsWarm := getCounterValue(m.leadsCaptured, "warm")
	leadsCold := getCounterValue(m.leadsCaptured, "cold")

	totalTokens := promptTokens + completionTokens
	avgTokens := float64(0)
	errorRate := float64(0)
	cachedRate := float64(0)
	fallbackRate := float64(0)

	if totalTurns > 0 {
		avgTokens = totalTokens / totalTurns
		errorRate = errorCount / totalTurns
		fallbackRate = fallbacks / totalTurns
	}
	if cacheHits+cacheMisses > 0 {
		cachedRate = cacheHits / (cacheHits + cacheMisses)
	}

	// Estimated cost: ~$0.03/1k prompt tokens, ~$0.06/1k completion tokens
	estimatedCost := (promptTokens/1000)*0.03 + (completionTokens/1000)*0.06

	return &domain.FunnelMetrics{
		TotalTurns:       int64(totalTurns),
		CachedReplyRate:  cachedRate,
		FallbackRate:     fallbackRate,
		ErrorRate:        errorRate,
		AvgTokensPerTurn: avgTokens,
		EstimatedCostUsd: estimatedCost,
		LeadsCaptured:    int64(leadsHot + leadsWarm + leadsCold),
		LeadsHot:         int64(leadsHot),
		LeadsWarm:        int64(leadsWarm),
		LeadsCold:        int64(leadsCold),
		Period:           "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

// getSimpleCounterValue extracts the value of a plain Counter.
func getSimpleCounterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
