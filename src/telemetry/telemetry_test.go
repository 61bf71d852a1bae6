package telemetry

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics()
	m.CacheHit()
	m.CacheMiss()
	m.ObserveLoad(20 * time.Millisecond)
	m.RenderCycle("ok", 42)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "billionaires_dataset_cache_hits_total 1")
	assert.Contains(t, string(body), `billionaires_render_cycles_total{outcome="ok"} 1`)
	assert.Contains(t, string(body), "billionaires_filtered_rows 42")
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CacheHit()
		m.CacheMiss()
		m.ObserveLoad(time.Second)
		m.RenderCycle("ok", 1)
	})
}

func TestSetupTracingDisabled(t *testing.T) {
	shutdown, err := SetupTracing(false)
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	_, span := Tracer().Start(context.Background(), "noop")
	span.End()
}
