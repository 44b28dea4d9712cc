package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studytrack_page_cache_hits_total",
		Help: "Number of pagination cache hits by resource type.",
	}, []string{"resource"})

	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studytrack_page_cache_misses_total",
		Help: "Number of pagination cache misses by resource type.",
	}, []string{"resource"})

	cacheInvalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studytrack_page_cache_invalidations_total",
		Help: "Number of pagination cache invalidation sweeps by resource type.",
	}, []string{"resource"})
)
