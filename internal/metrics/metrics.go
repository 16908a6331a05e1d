package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	PipelineDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "deals_pipeline_duration_seconds",
		Help:    "Time spent running the deals pipeline",
		Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30, 60},
	})
	PipelineEnrichments = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deals_pipeline_enrichments_total",
		Help: "Per-candidate enrichment outcomes",
	}, []string{"outcome"})
	PipelineWaves = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "deals_pipeline_waves_total",
		Help: "Enrichment waves dispatched",
	})

	CacheRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deals_cache_requests_total",
		Help: "Result cache lookups by result",
	}, []string{"result"})

	SchedulerFires = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deals_scheduler_fires_total",
		Help: "Daily post attempts by outcome",
	}, []string{"outcome"})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Outbound request duration",
		Buckets: prometheus.DefBuckets,
	}, []string{"component", "status"})
)

// MustRegister registers every collector with registerer.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		PipelineDuration,
		PipelineEnrichments,
		PipelineWaves,
		CacheRequests,
		SchedulerFires,
		NetworkRequestDuration,
	)
}

// ObserveNetworkRequest records the duration and status of an outbound call.
func ObserveNetworkRequest(component string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	NetworkRequestDuration.WithLabelValues(component, status).Observe(time.Since(start).Seconds())
}
