package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/campus-placement-api/internal/service"
)

type staticAvailability bool

func (s staticAvailability) Available() bool { return bool(s) }

func TestMetricsHandlerReadyReportsStorageMode(t *testing.T) {
	cases := []struct {
		name     string
		db       availabilityReporter
		database string
		storage  string
	}{
		{"connected", staticAvailability(true), "connected", "postgres"},
		{"outage", staticAvailability(false), "disconnected", "json-fallback"},
		{"json only", nil, "disconnected", "json-fallback"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewMetricsHandler(service.NewMetricsService(), tc.db)
			c, rec := newTestContext(http.MethodGet, "/ready", nil)

			h.Ready(c)

			assert.Equal(t, http.StatusOK, rec.Code)
			var body map[string]interface{}
			decode(t, rec, &body)
			assert.Equal(t, "ready", body["status"])
			assert.Equal(t, tc.database, body["database"])
			assert.Equal(t, tc.storage, body["storage"])
		})
	}
}

func TestMetricsHandlerHealth(t *testing.T) {
	h := NewMetricsHandler(nil, nil)
	c, rec := newTestContext(http.MethodGet, "/health", nil)

	h.Health(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	decode(t, rec, &body)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["uptime"])
}

func TestMetricsHandlerPrometheusUnavailableWithoutService(t *testing.T) {
	h := NewMetricsHandler(nil, nil)
	c, rec := newTestContext(http.MethodGet, "/metrics", nil)

	h.Prometheus(c)

	assert.Equal(t, http.StatusServiceUnavailable, c.Writer.Status())
	_ = rec
}
