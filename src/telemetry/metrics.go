package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 仪表盘的prometheus指标，使用独立的registry
// 所有方法对nil接收者安全，测试里可以直接传nil
type Metrics struct {
	registry     *prometheus.Registry
	renderCycles *prometheus.CounterVec
	cacheHits    prometheus.Counter
	cacheMisses  prometheus.Counter
	loadSeconds  prometheus.Histogram
	filteredRows prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		renderCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "billionaires",
			Name:      "render_cycles_total",
			Help:      "Dashboard recomputations by outcome.",
		}, []string{"outcome"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "billionaires",
			Name:      "dataset_cache_hits_total",
			Help:      "Dataset cache hits.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "billionaires",
			Name:      "dataset_cache_misses_total",
			Help:      "Dataset cache misses (loads from disk).",
		}),
		loadSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "billionaires",
			Name:      "dataset_load_seconds",
			Help:      "Time spent loading and cleaning the dataset.",
			Buckets:   prometheus.DefBuckets,
		}),
		filteredRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "billionaires",
			Name:      "filtered_rows",
			Help:      "Rows left after the age filter in the last cycle.",
		}),
	}
	m.registry.MustRegister(
		m.renderCycles,
		m.cacheHits,
		m.cacheMisses,
		m.loadSeconds,
		m.filteredRows,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}

func (m *Metrics) ObserveLoad(d time.Duration) {
	if m == nil {
		return
	}
	m.loadSeconds.Observe(d.Seconds())
}

// RenderCycle outcome: ok, invalid, load_failed
// 只有ok会更新filtered_rows
func (m *Metrics) RenderCycle(outcome string, rows int) {
	if m == nil {
		return
	}
	m.renderCycles.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		m.filteredRows.Set(float64(rows))
	}
}

// Handler /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
