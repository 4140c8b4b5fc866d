package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "precip_chart"

// Metrics holds the Prometheus counters, histograms, and gauges for the chart service.
type Metrics struct {
	// Load metrics.
	FilesLoaded        *prometheus.CounterVec // labels: outcome={success,error}
	ObservationsLoaded prometheus.Counter
	InvalidValues      *prometheus.CounterVec // labels: field={date,actual_precipitation,...}
	LoadDuration       prometheus.Histogram
	DatasetLoaded      prometheus.Gauge

	// View metrics.
	ViewChanges  *prometheus.CounterVec // labels: kind={variable,zoom,reset}
	ZoomOutcomes *prometheus.CounterVec // labels: outcome={zoomed,reset_armed,ignored}

	// Render metrics.
	RenderRequests *prometheus.CounterVec   // labels: format={svg,png}, cache={hit,miss}
	RenderDuration *prometheus.HistogramVec // labels: format={svg,png}

	ViewEventsPublished *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FilesLoaded,
		m.ObservationsLoaded,
		m.InvalidValues,
		m.LoadDuration,
		m.DatasetLoaded,
		m.ViewChanges,
		m.ZoomOutcomes,
		m.RenderRequests,
		m.RenderDuration,
		m.ViewEventsPublished,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FilesLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_loaded_total",
			Help:      "Location files fetched and parsed, by outcome.",
		}, []string{"outcome"}),
		ObservationsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observations_loaded_total",
			Help:      "Total observations in loaded datasets.",
		}),
		InvalidValues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalid_values_total",
			Help:      "Values that failed to parse and were treated as undefined, by field.",
		}, []string{"field"}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Duration of a complete join-all dataset load.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		DatasetLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_loaded",
			Help:      "1 once a dataset is loaded and the chart is drawable, 0 otherwise.",
		}),
		ViewChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_changes_total",
			Help:      "View state changes by kind.",
		}, []string{"kind"}),
		ZoomOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "brush_outcomes_total",
			Help:      "Brush end gestures by outcome.",
		}, []string{"outcome"}),
		RenderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_requests_total",
			Help:      "Chart render requests by format and cache result.",
		}, []string{"format", "cache"}),
		RenderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Time spent rendering a chart frame.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"format"}),
		ViewEventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_events_published_total",
			Help:      "View events written to Kafka by outcome.",
		}, []string{"outcome"}),
	}
}
