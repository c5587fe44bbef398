package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-placement-api/internal/service"
)

type availabilityReporter interface {
	Available() bool
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics  *service.MetricsService
	database availabilityReporter
	started  time.Time
}

// NewMetricsHandler constructs a metrics handler. database reports whether
// Postgres is reachable; nil means JSON-only mode.
func NewMetricsHandler(metrics *service.MetricsService, database availabilityReporter) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, database: database, started: time.Now()}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness probes.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"uptime":    time.Since(h.started).Round(time.Second).String(),
		"timestamp": time.Now().UTC(),
	})
}

// Ready reports which store serves reads. It stays ready during a database
// outage because reads fall back to the JSON mirror.
func (h *MetricsHandler) Ready(c *gin.Context) {
	database := "disconnected"
	mode := "json-fallback"
	if h.database != nil && h.database.Available() {
		database = "connected"
		mode = "postgres"
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "database": database, "storage": mode})
}
