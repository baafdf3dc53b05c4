package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_events_processed_total",
		Help: "Total number of events processed, by stage and status",
	}, []string{"stage", "status"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pipeline_stage_duration_seconds",
		Help:    "Duration of one stage's message handling",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
	}, []string{"stage"})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pipeline_active_workers",
		Help: "Number of messages currently being processed",
	})

	RetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_retry_total",
		Help: "Total number of messages nacked back for redelivery, by queue",
	}, []string{"queue"})

	MalformedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_malformed_messages_total",
		Help: "Total number of malformed messages, by queue and applied policy",
	}, []string{"queue", "policy"})
)
