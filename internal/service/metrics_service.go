package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrTune/Sem-Planner/internal/models"
)

// MetricsSnapshot is a lightweight summary for the status endpoint.
type MetricsSnapshot struct {
	RequestsTotal      uint64        `json:"requests_total"`
	StoreOperations    uint64        `json:"store_operations"`
	AverageStoreMs     float64       `json:"average_store_ms"`
	Mutations          uint64        `json:"mutations"`
	ExternalReloads    uint64        `json:"external_reloads"`
	CorruptedLoads     uint64        `json:"corrupted_loads"`
	QuarantineFailures uint64        `json:"quarantine_failures"`
	Goroutines         int           `json:"goroutines"`
	Uptime             time.Duration `json:"uptime_ns"`
}

// MetricsService encapsulates Prometheus instrumentation for the planner.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	storeDuration   *prometheus.HistogramVec
	loads           *prometheus.CounterVec
	mutations       *prometheus.CounterVec
	externalReloads prometheus.Counter
	quarantined     *prometheus.CounterVec
	started         time.Time

	requestCount       uint64
	storeCount         uint64
	storeDurationTotal uint64
	mutationCount      uint64
	reloadCount        uint64
	corruptedCount     uint64
	quarantineFailures uint64
}

// NewMetricsService registers the planner's collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	storeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "planner_store_duration_seconds",
		Help:    "Latency of blob store reads and writes",
		Buckets: prometheus.DefBuckets,
	}, []string{"op", "outcome"})

	loads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_collection_loads_total",
		Help: "Collection loads by outcome (ok, absent, corrupted)",
	}, []string{"status"})

	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_mutations_total",
		Help: "Persisted mutations by operation",
	}, []string{"op"})

	externalReloads := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "planner_external_reloads_total",
		Help: "Reloads triggered by writes from another context",
	})

	quarantined := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_quarantine_jobs_total",
		Help: "Corrupted blob quarantine attempts by outcome",
	}, []string{"outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, storeDuration, loads, mutations, externalReloads, quarantined, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		storeDuration:   storeDuration,
		loads:           loads,
		mutations:       mutations,
		externalReloads: externalReloads,
		quarantined:     quarantined,
		started:         time.Now(),
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
}

// ObserveStore records one blob store call.
func (m *MetricsService) ObserveStore(op string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.storeDuration.WithLabelValues(op, outcome).Observe(duration.Seconds())
	atomic.AddUint64(&m.storeCount, 1)
	atomic.AddUint64(&m.storeDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordLoad counts a gateway load by its status.
func (m *MetricsService) RecordLoad(status models.LoadStatus) {
	if m == nil {
		return
	}
	m.loads.WithLabelValues(string(status)).Inc()
	if status == models.LoadStatusCorrupted {
		atomic.AddUint64(&m.corruptedCount, 1)
	}
}

// RecordMutation counts a persisted mutation.
func (m *MetricsService) RecordMutation(op string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(op).Inc()
	atomic.AddUint64(&m.mutationCount, 1)
}

// RecordExternalReload counts a reload caused by a foreign write.
func (m *MetricsService) RecordExternalReload() {
	if m == nil {
		return
	}
	m.externalReloads.Inc()
	atomic.AddUint64(&m.reloadCount, 1)
}

// RecordQuarantine counts a quarantine job outcome.
func (m *MetricsService) RecordQuarantine(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.quarantined.WithLabelValues("error").Inc()
		atomic.AddUint64(&m.quarantineFailures, 1)
		return
	}
	m.quarantined.WithLabelValues("ok").Inc()
}

// Snapshot returns aggregated counters.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	storeCount := atomic.LoadUint64(&m.storeCount)
	storeDuration := atomic.LoadUint64(&m.storeDurationTotal)

	var avgStoreMs float64
	if storeCount > 0 {
		avgStoreMs = float64(storeDuration) / float64(storeCount) / float64(time.Millisecond)
	}

	return MetricsSnapshot{
		RequestsTotal:      atomic.LoadUint64(&m.requestCount),
		StoreOperations:    storeCount,
		AverageStoreMs:     avgStoreMs,
		Mutations:          atomic.LoadUint64(&m.mutationCount),
		ExternalReloads:    atomic.LoadUint64(&m.reloadCount),
		CorruptedLoads:     atomic.LoadUint64(&m.corruptedCount),
		QuarantineFailures: atomic.LoadUint64(&m.quarantineFailures),
		Goroutines:         runtime.NumGoroutine(),
		Uptime:             time.Since(m.started),
	}
}
