// Package metrics exposes prometheus collectors for the filter engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	StageCompile  = "compile"
	StagePopulate = "populate"
)

var (
	filtersSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalog",
		Name:      "filters_skipped_total",
		Help:      "Filters that contributed no clause or options, by stage and binding kind.",
	}, []string{"stage", "binding"})

	facetPopulateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "catalog",
		Name:      "facet_populate_duration_seconds",
		Help:      "Time spent populating all facets of one request.",
		Buckets:   prometheus.DefBuckets,
	})

	candidateSetSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "catalog",
		Name:      "search_candidate_ids",
		Help:      "Number of product ids matched by the free-text prefilter.",
		Buckets:   []float64{0, 1, 10, 50, 100, 500, 1000, 5000},
	})

	requests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalog",
		Name:      "http_requests_total",
		Help:      "Handled api requests by route and status code.",
	}, []string{"route", "code"})
)

func FilterSkipped(stage, binding string) {
	filtersSkipped.WithLabelValues(stage, binding).Inc()
}

func ObserveFacetPopulate(start time.Time) {
	facetPopulateDuration.Observe(time.Since(start).Seconds())
}

func ObserveCandidates(n int) {
	candidateSetSize.Observe(float64(n))
}

func Request(route, code string) {
	requests.WithLabelValues(route, code).Inc()
}
