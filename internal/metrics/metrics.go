// Package metrics records per-run pipeline counters in a Prometheus
// registry and writes them in the node_exporter textfile format.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the metrics of one pipeline run.
type Recorder struct {
	registry         *prometheus.Registry
	articlesFetched  *prometheus.CounterVec
	barsFetched      *prometheus.CounterVec
	rowsAligned      *prometheus.CounterVec
	articlesEnriched prometheus.Counter
	stageErrors      *prometheus.CounterVec
	stageDuration    *prometheus.GaugeVec
	lastSuccess      prometheus.Gauge
}

// New creates a Recorder backed by its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		articlesFetched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "news2alpha_articles_fetched_total",
				Help: "Articles returned by the news source",
			},
			[]string{"source"},
		),
		barsFetched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "news2alpha_bars_fetched_total",
				Help: "Market bars returned by the exchange",
			},
			[]string{"symbol"},
		),
		rowsAligned: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "news2alpha_rows_aligned_total",
				Help: "Rows written to the aligned feature table",
			},
			[]string{"symbol"},
		),
		articlesEnriched: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "news2alpha_articles_enriched_total",
				Help: "Articles whose body was filled from the linked page",
			},
		),
		stageErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "news2alpha_stage_errors_total",
				Help: "Stages that ended with an error",
			},
			[]string{"stage"},
		),
		stageDuration: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "news2alpha_stage_duration_seconds",
				Help: "Wall time of the last execution of each stage",
			},
			[]string{"stage"},
		),
		lastSuccess: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "news2alpha_last_success_timestamp_seconds",
				Help: "Unix time of the last successful run",
			},
		),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// AddArticlesFetched counts articles fetched from source.
func (r *Recorder) AddArticlesFetched(source string, n int) {
	r.articlesFetched.WithLabelValues(source).Add(float64(n))
}

// AddBarsFetched counts market bars fetched for symbol.
func (r *Recorder) AddBarsFetched(symbol string, n int) {
	r.barsFetched.WithLabelValues(symbol).Add(float64(n))
}

// AddRowsAligned counts aligned output rows for symbol.
func (r *Recorder) AddRowsAligned(symbol string, n int) {
	r.rowsAligned.WithLabelValues(symbol).Add(float64(n))
}

// AddArticlesEnriched counts enriched articles.
func (r *Recorder) AddArticlesEnriched(n int) {
	r.articlesEnriched.Add(float64(n))
}

// ObserveStage records the duration of a stage and whether it failed.
func (r *Recorder) ObserveStage(stage string, d time.Duration, err error) {
	r.stageDuration.WithLabelValues(stage).Set(d.Seconds())
	if err != nil {
		r.stageErrors.WithLabelValues(stage).Inc()
	}
}

// MarkSuccess stamps the last successful run time.
func (r *Recorder) MarkSuccess(t time.Time) {
	r.lastSuccess.Set(float64(t.Unix()))
}

// WriteTextfile writes all metrics to path for the node_exporter textfile
// collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
