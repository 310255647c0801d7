package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PermissionChecks counts permission decisions by permission and result (allowed|denied|error).
	PermissionChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clubhouse_permission_checks_total",
			Help: "Total number of permission checks",
		},
		[]string{"permission", "result"},
	)

	// PermissionResolutions counts effective set resolutions by result (ok|error).
	PermissionResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clubhouse_permission_resolutions_total",
			Help: "Total number of effective permission set resolutions",
		},
		[]string{"result"},
	)

	// PermissionResolveLatency measures successful resolutions, store reads included.
	PermissionResolveLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "clubhouse_permission_resolve_seconds",
			Help:    "Effective permission resolution latency",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	// PermissionCacheLookups counts resolution cache lookups (hit|miss).
	PermissionCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clubhouse_permission_cache_lookups_total",
			Help: "Permission set cache lookups",
		},
		[]string{"result"},
	)

	// APILatency measures HTTP request latencies. scope is club for routes
	// under a club, global for the rest and unmatched when no route matched.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clubhouse_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status", "scope"},
	)
)
