package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ThumbnailsAttempted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "thumbnails_attempted",
	})
	ThumbnailsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "thumbnails_generated",
	})
	ThumbnailsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "thumbnails_failed",
	})
	ThumbnailsSizeBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "thumbnails_size_bytes",
	})
	SourceDurationSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "source_duration_seconds",
	})
	GenerationSpentSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "generation_spent_seconds",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
	})
	ExtractionSpentSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "extraction_spent_seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})
	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "generation_error_count",
	}, []string{"stage"})
)

const (
	StageProbe   = "probe"
	StagePlan    = "plan"
	StageFS      = "fs"
	StageExtract = "extract"
)

// WriteTextfile dumps all registered metrics in the node_exporter textfile format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
