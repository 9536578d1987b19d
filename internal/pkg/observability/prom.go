package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ServiceName = "stridebackend"
)

var (
	SyncCycleDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    prometheus.BuildFQName(ServiceName, "sync", "cycle_duration_seconds"),
		Help:    "Duration of a sync cycle (detect + commit/hold) in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
	}, []string{})
	ConflictsDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(ServiceName, "conflict", "detected_total"),
		Help: "Conflicts detected, by classification",
	}, []string{"type"})
	ConflictsAutoResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(ServiceName, "conflict", "auto_resolved_total"),
		Help: "Conflicts resolved without user interaction, by choice",
	}, []string{"choice"})
	OfflineQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: prometheus.BuildFQName(ServiceName, "offline", "queue_depth"),
		Help: "Operations currently queued while offline",
	})
	SyncRetryAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(ServiceName, "sync", "retry_attempts_total"),
		Help: "Retry attempts driven by the backoff engine, by terminal outcome",
	}, []string{"outcome"})
	WorkerBatchDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: prometheus.BuildFQName(ServiceName, "worker", "batch_duration_seconds"),
		Help: "Duration of last maintenance worker batch in seconds",
	}, []string{"task"})
)
