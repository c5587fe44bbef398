package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/campus-placement-api/internal/models"
)

// availabilityProbe reports primary database reachability.
type availabilityProbe interface {
	Available() bool
}

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	authRequests    *prometheus.CounterVec
	fallbackReads   *prometheus.CounterVec
	ippTransitions  *prometheus.CounterVec
	notifications   *prometheus.CounterVec
	dbAvailable     prometheus.Gauge

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	fallbackCount        uint64
	notificationsSent    uint64
	notificationsFailed  uint64

	mu           sync.Mutex
	authOutcomes map[string]uint64
	availability availabilityProbe
}

// NewMetricsService registers core Prometheus collectors.
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

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	authRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_requests_total",
		Help: "Bearer token authentications by scheme and outcome",
	}, []string{"auth_type", "result"})

	fallbackReads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "store_fallback_reads_total",
		Help: "Reads served from the JSON mirror",
	}, []string{"entity"})

	ippTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ipp_transitions_total",
		Help: "Passport workflow transitions by resulting status",
	}, []string{"status"})

	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_processed_total",
		Help: "Scheduled notifications processed by result",
	}, []string{"result"})

	dbAvailable := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "database_available",
		Help: "1 when the primary database is reachable",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		authRequests, fallbackReads, ippTransitions, notifications, dbAvailable, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		authRequests:    authRequests,
		fallbackReads:   fallbackReads,
		ippTransitions:  ippTransitions,
		notifications:   notifications,
		dbAvailable:     dbAvailable,
		authOutcomes:    make(map[string]uint64),
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

// TrackAvailability makes snapshots report the database state from probe.
func (m *MetricsService) TrackAvailability(probe availabilityProbe) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.availability = probe
	m.mu.Unlock()
}

// ObserveAvailability records a database availability flip.
func (m *MetricsService) ObserveAvailability(up bool) {
	if m == nil {
		return
	}
	if up {
		m.dbAvailable.Set(1)
		return
	}
	m.dbAvailable.Set(0)
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveAuth counts one authentication attempt.
func (m *MetricsService) ObserveAuth(authType models.AuthType, result string) {
	if m == nil {
		return
	}
	m.authRequests.WithLabelValues(string(authType), result).Inc()
	m.mu.Lock()
	m.authOutcomes[string(authType)+":"+result]++
	m.mu.Unlock()
}

// ObserveFallbackRead counts a read served from the JSON mirror.
func (m *MetricsService) ObserveFallbackRead(entity string) {
	if m == nil {
		return
	}
	m.fallbackReads.WithLabelValues(entity).Inc()
	atomic.AddUint64(&m.fallbackCount, 1)
}

// ObserveIPPTransition counts a passport reaching status.
func (m *MetricsService) ObserveIPPTransition(status models.IPPStatus) {
	if m == nil {
		return
	}
	m.ippTransitions.WithLabelValues(string(status)).Inc()
}

// ObserveNotification counts a processed notification.
func (m *MetricsService) ObserveNotification(sent bool) {
	if m == nil {
		return
	}
	if sent {
		m.notifications.WithLabelValues("sent").Inc()
		atomic.AddUint64(&m.notificationsSent, 1)
		return
	}
	m.notifications.WithLabelValues("failed").Inc()
	atomic.AddUint64(&m.notificationsFailed, 1)
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	total := hits + misses
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil || m.cacheWrite == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// Snapshot returns aggregated metrics suitable for the admin status endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	totalLookups := hits + misses
	if totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	m.mu.Lock()
	outcomes := make(map[string]uint64, len(m.authOutcomes))
	for k, v := range m.authOutcomes {
		outcomes[k] = v
	}
	available := m.availability != nil && m.availability.Available()
	m.mu.Unlock()

	return models.SystemMetrics{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		StoreFallbacks:           atomic.LoadUint64(&m.fallbackCount),
		AuthOutcomes:             outcomes,
		NotificationsSent:        atomic.LoadUint64(&m.notificationsSent),
		NotificationsFailed:      atomic.LoadUint64(&m.notificationsFailed),
		DatabaseAvailable:        available,
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
