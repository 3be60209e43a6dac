package worker

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dunamismax/seamflow/internal/pipeline"
)

type metrics struct {
	registry             *prometheus.Registry
	jobsTotal            *prometheus.CounterVec
	jobDuration          *prometheus.HistogramVec
	activeJobs           prometheus.Gauge
	outputsTotal         *prometheus.CounterVec
	seamsPerStep         prometheus.Histogram
	pixelsProcessedTotal prometheus.Counter
	seamsRemovedTotal    prometheus.Counter
	computeTimeMSTotal   prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		jobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seamflow_worker_jobs_total",
			Help: "Total carving jobs by source type and final status.",
		}, []string{"source_type", "status"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "seamflow_worker_job_duration_seconds",
			Help:    "Wall time of each carving job, fetch to last emit.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"source_type", "status"}),
		activeJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "seamflow_worker_active_jobs",
			Help: "Carving jobs currently holding a worker slot.",
		}),
		outputsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seamflow_worker_outputs_total",
			Help: "Outputs emitted by the worker, by step action and format.",
		}, []string{"action", "format"}),
		seamsPerStep: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "seamflow_worker_seams_per_carve",
			Help:    "Seams removed by each carve step.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		pixelsProcessedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "seamflow_usage_pixels_processed_total",
			Help: "Source pixels processed, counted once per pipeline step.",
		}),
		seamsRemovedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "seamflow_usage_seams_removed_total",
			Help: "Total seams carved out across all successful jobs.",
		}),
		computeTimeMSTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "seamflow_usage_compute_time_ms_total",
			Help: "Total compute time in milliseconds across successful jobs.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.jobsTotal,
		m.jobDuration,
		m.activeJobs,
		m.outputsTotal,
		m.seamsPerStep,
		m.pixelsProcessedTotal,
		m.seamsRemovedTotal,
		m.computeTimeMSTotal,
	)
	return m
}

func (m *metrics) observeOutputs(outputs []pipeline.Output) {
	for _, out := range outputs {
		m.outputsTotal.WithLabelValues(out.Action, out.Format).Inc()
		if out.SeamsRemoved > 0 {
			m.seamsPerStep.Observe(float64(out.SeamsRemoved))
		}
	}
}

func (m *metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
