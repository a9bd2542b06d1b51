// Package telemetry registers the Prometheus metrics emitted by the
// pipeline: throughput counters and per-stage soft-rejection counts.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every Prometheus collector the pipeline touches.
type Metrics struct {
	SpectraProcessed prometheus.Counter
	CentroidsEmitted prometheus.Counter
	RegressionTime   prometheus.Histogram

	ValidatorRejections *prometheus.CounterVec // labels: stage

	BinsClosed    prometheus.Counter
	BinsRebinned  prometheus.Counter
	DuplicateScan prometheus.Counter
	DQSBTime      prometheus.Histogram

	FeaturesEmitted prometheus.Counter
	PeaksWritten    prometheus.Counter

	RunsActive  prometheus.Gauge
	RunsTotal   *prometheus.CounterVec // labels: outcome
	RunDuration prometheus.Histogram
}

// New creates and registers all pipeline metrics.
func New() *Metrics {
	return &Metrics{
		SpectraProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "qalgo_spectra_processed_total",
			Help: "Total number of spectra run through centroiding",
		}),
		CentroidsEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "qalgo_centroids_emitted_total",
			Help: "Total number of centroids emitted by the centroid producer",
		}),
		RegressionTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "qalgo_regression_seconds",
			Help:    "Wall-clock time to run kernel+validate+merge over one spectrum or EIC",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}),
		ValidatorRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "qalgo_validator_rejections_total",
			Help: "Soft rejections by validator cascade stage",
		}, []string{"stage"}),
		BinsClosed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "qalgo_bins_closed_total",
			Help: "Total number of closed bins produced by qBinning",
		}),
		BinsRebinned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "qalgo_bins_rebinned_total",
			Help: "Total number of bins involved in the hot-end rebinning pass",
		}),
		DuplicateScan: promauto.NewCounter(prometheus.CounterOpts{
			Name: "qalgo_duplicate_scan_total",
			Help: "Total number of zero-distance (duplicate scan) events seen during scan-gap splitting",
		}),
		DQSBTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "qalgo_dqsb_seconds",
			Help:    "Wall-clock time to compute DQSB for one bin",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05},
		}),
		FeaturesEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "qalgo_features_emitted_total",
			Help: "Total number of feature peaks emitted",
		}),
		PeaksWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "qalgo_peaks_written_total",
			Help: "Total number of feature-peak rows written to the output file",
		}),
		RunsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "qalgo_runs_active",
			Help: "Number of pipeline runs currently in progress",
		}),
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "qalgo_runs_total",
			Help: "Total number of completed pipeline runs by outcome",
		}, []string{"outcome"}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "qalgo_run_duration_seconds",
			Help:    "End-to-end pipeline run duration",
			Buckets: []float64{.1, .5, 1, 5, 10, 30, 60, 300, 900},
		}),
	}
}

// RecordRejection increments the rejection counter for a validator stage.
func (m *Metrics) RecordRejection(stage string) {
	m.ValidatorRejections.WithLabelValues(stage).Inc()
}

// RecordRun records a completed run's duration and outcome.
func (m *Metrics) RecordRun(outcome string, duration time.Duration) {
	m.RunsTotal.WithLabelValues(outcome).Inc()
	m.RunDuration.Observe(duration.Seconds())
}
