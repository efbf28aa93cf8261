package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search and extraction Prometheus metrics.
var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tilesearch",
			Name:      "searches_total",
			Help:      "Total number of similarity searches",
		},
		[]string{"kind", "status"}, // kind: initial / deepen / point / annotation
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tilesearch",
			Name:      "search_duration_seconds",
			Help:      "Similarity search duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"kind"},
	)

	PartitionSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "tilesearch",
			Name:      "index_partition_size",
			Help:      "Number of tile vectors in an index partition",
		},
		[]string{"scope", "zoom"},
	)

	PartitionRebuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tilesearch",
			Name:      "index_partition_rebuilds_total",
			Help:      "Total index partition rebuilds",
		},
		[]string{"status"},
	)

	ExtractionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tilesearch",
			Name:      "extraction_requests_total",
			Help:      "Total feature extraction requests",
		},
		[]string{"provider", "model", "status"},
	)

	ExtractionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tilesearch",
			Name:      "extraction_duration_seconds",
			Help:      "Feature extraction request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	VectorCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tilesearch",
			Name:      "annotation_vector_cache_total",
			Help:      "Annotation vector cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers the search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(PartitionSize)
	prometheus.MustRegister(PartitionRebuildsTotal)
	prometheus.MustRegister(ExtractionRequestsTotal)
	prometheus.MustRegister(ExtractionDuration)
	prometheus.MustRegister(VectorCacheTotal)
	searchMetricsRegistered = true
}
