package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// FunnelMetrics is returned by GET /v1/metrics/funnel — a JSON snapshot of
// the Prometheus counters the admin dashboard polls.
type FunnelMetrics struct {
	TotalTurns       int64   `json:"totalTurns"`
	CachedReplyRate  float64 `json:"cachedReplyRate"`
	FallbackRate     float64 `json:"fallbackRate"`
	ErrorRate        float64 `json:"errorRate"`
	AvgTokensPerTurn float64 `json:"avgTokensPerTurn"`
	EstimatedCostUsd float64 `json:"estimatedCostUsd"`
	LeadsCaptured    int64   `json:"leadsCaptured"`
	LeadsHot         int64   `json:"leadsHot"`
	LeadsWarm        int64   `json:"leadsWarm"`
	LeadsCold        int64   `json:"leadsCold"`
	Period           string  `json:"period"`
}

// ListResponse wraps paginated list results.
type ListResponse[T any] struct {
	Data     []T  `json:"data"`
	Total    int  `json:"total"`
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasMore  bool `json:"has_more"`
}
