package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "makovod_cache_hits_total",
		Help: "Show lookups served from a fresh cache entry.",
	})
	cacheStale = promauto.NewCounter(prometheus.CounterOpts{
		Name: "makovod_cache_stale_total",
		Help: "Show lookups served stale while a background refresh was queued.",
	})
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "makovod_cache_misses_total",
		Help: "Show lookups with no usable cache entry.",
	})
)
