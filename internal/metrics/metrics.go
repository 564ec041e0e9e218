// Package metrics holds the Prometheus instrumentation for the crawl
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for processed repositories.
const (
	OutcomeSuccess   = "success"
	OutcomeError     = "error"
	OutcomeDuplicate = "duplicate"
	OutcomeStale     = "stale"
)

// Metrics bundles the crawl pipeline collectors.
type Metrics struct {
	ReposProcessed *prometheus.CounterVec
	SearchPages    prometheus.Counter
	SummaryCalls   *prometheus.CounterVec
	ScrapeSeconds  prometheus.Histogram
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ReposProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gas_crawler",
			Name:      "repos_processed_total",
			Help:      "Repositories processed by the crawl pipeline, by outcome.",
		}, []string{"outcome"}),
		SearchPages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gas_crawler",
			Name:      "search_pages_total",
			Help:      "Search result pages fetched.",
		}),
		SummaryCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gas_crawler",
			Name:      "summary_calls_total",
			Help:      "AI summary generation calls, by outcome.",
		}, []string{"outcome"}),
		ScrapeSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gas_crawler",
			Name:      "scrape_duration_seconds",
			Help:      "Duration of single-repository scrapes.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.ReposProcessed, m.SearchPages, m.SummaryCalls, m.ScrapeSeconds)
	}
	return m
}
