package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by layer (memory, redis)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapi_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"layer"},
	)

	// CacheMisses tracks cache misses by layer, expired entries included
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapi_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"layer"},
	)

	// CacheEvictions tracks entries removed because they expired
	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapi_cache_evictions_total",
			Help: "Total number of expired cache entries evicted on read",
		},
		[]string{"layer"},
	)

	// CacheEntries tracks the number of entries held in memory
	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "swapi_cache_memory_entries",
			Help: "Current number of entries in the in-memory cache",
		},
	)

	// CacheErrors tracks cache backend errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapi_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete", "exists", "clear"
	)
)
