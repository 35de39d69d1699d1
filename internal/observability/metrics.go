package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GatewayRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "disaster_portal", Name: "gateway_requests_total", Help: "Incident API calls by operation and outcome"},
		[]string{"op", "status"},
	)
	GatewayLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "disaster_portal",
			Name:      "gateway_request_duration_seconds",
			Help:      "Incident API call latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op"},
	)
	SessionExpiries = promauto.NewCounter(prometheus.CounterOpts{Namespace: "disaster_portal", Name: "session_expiries_total", Help: "Times a 401 forced the session to be cleared"})

	BoardRefreshes   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "disaster_portal", Name: "board_refreshes_total", Help: "Completed board refreshes"})
	BoardRefreshErrs = promauto.NewCounter(prometheus.CounterOpts{Namespace: "disaster_portal", Name: "board_refresh_errors_total", Help: "Board refreshes that failed"})
	BoardStaleDrops  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "disaster_portal", Name: "board_stale_responses_dropped_total", Help: "Refresh responses discarded because a newer request was already issued"})

	GeocodeFallbacks = promauto.NewCounter(prometheus.CounterOpts{Namespace: "disaster_portal", Name: "geocode_fallbacks_total", Help: "Reverse geocode lookups that degraded to the placeholder address"})
	GeocodeCacheHits = promauto.NewCounter(prometheus.CounterOpts{Namespace: "disaster_portal", Name: "geocode_cache_hits_total", Help: "Reverse geocode lookups served from cache"})

	SOSOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "disaster_portal", Name: "sos_outcomes_total", Help: "SOS report flow results by outcome kind"},
		[]string{"kind"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "disaster_portal", Name: "http_requests_total", Help: "Total portal HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "disaster_portal",
			Name:      "http_request_duration_seconds",
			Help:      "Portal HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
