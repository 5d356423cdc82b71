package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sourcing_search_duration_seconds",
			Help:    "Search processing duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"mode"},
	)

	SearchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sourcing_search_total",
			Help: "Total number of searches processed",
		},
		[]string{"mode", "status"},
	)

	SearchResultsCount = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sourcing_search_results_count",
			Help:    "Number of results per search",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
		[]string{"mode"},
	)

	LLMTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sourcing_llm_tokens_used",
			Help: "Total LLM tokens used",
		},
		[]string{"model", "type"},
	)

	SimilarPartsRequested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sourcing_similar_parts_total",
			Help: "Total similar-part recommendations requested",
		},
		[]string{"status"},
	)

	RefinementsApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sourcing_refinements_total",
			Help: "Total conversational refinements applied",
		},
		[]string{"rule"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sourcing_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sourcing_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	PartsImported = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sourcing_parts_imported_total",
			Help: "Total part rows imported",
		},
	)
)

func Init() {
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SearchTotal)
	prometheus.MustRegister(SearchResultsCount)
	prometheus.MustRegister(LLMTokensUsed)
	prometheus.MustRegister(SimilarPartsRequested)
	prometheus.MustRegister(RefinementsApplied)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(PartsImported)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
