package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricPrefix = "weather_insight_"

	ResultSuccess = "success"
	ResultError   = "error"

	CacheHit  = "hit"
	CacheMiss = "miss"
)

var (
	registerOnce sync.Once

	storeLoadsTotal  *prometheus.CounterVec
	storeLoadLatency *prometheus.HistogramVec
	storeRecords     prometheus.Gauge

	windowTotal *prometheus.CounterVec

	analysisTotal   *prometheus.CounterVec
	analysisLatency *prometheus.HistogramVec

	revealTicks    prometheus.Counter
	sessionsActive prometheus.Gauge

	narrationTotal   *prometheus.CounterVec
	narrationLatency *prometheus.HistogramVec
)

// Init registers the service metrics with the default registry.
func Init() {
	registerOnce.Do(func() {
		storeLoadsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "store_loads_total",
				Help: "Total weather log loads by source and result",
			},
			[]string{"source", "result"},
		)
		storeLoadLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "store_load_latency_seconds",
				Help:    "Weather log load latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source", "result"},
		)
		storeRecords = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "store_records",
				Help: "Records in the currently loaded weather log",
			},
		)

		windowTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "window_requests_total",
				Help: "Recency window requests by cache outcome",
			},
			[]string{"cache"},
		)

		analysisTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "analysis_requests_total",
				Help: "AI analysis requests by result",
			},
			[]string{"result"},
		)
		analysisLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "analysis_latency_seconds",
				Help:    "AI analysis latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		revealTicks = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "reveal_ticks_total",
				Help: "Characters revealed across all sessions",
			},
		)
		sessionsActive = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "analysis_sessions",
				Help: "Open analysis sessions",
			},
		)

		narrationTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "narrations_total",
				Help: "Narratives generated by provider and result",
			},
			[]string{"provider", "result"},
		)
		narrationLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "narration_latency_seconds",
				Help:    "Narrative generation latency in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40},
			},
			[]string{"provider", "result"},
		)

		prometheus.MustRegister(
			storeLoadsTotal,
			storeLoadLatency,
			storeRecords,
			windowTotal,
			analysisTotal,
			analysisLatency,
			revealTicks,
			sessionsActive,
			narrationTotal,
			narrationLatency,
		)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveStoreLoad records a weather log load.
func ObserveStoreLoad(source, result string, records int, duration time.Duration) {
	if source == "" {
		source = "unknown"
	}
	if result == "" {
		result = ResultSuccess
	}
	if storeLoadsTotal != nil {
		storeLoadsTotal.WithLabelValues(source, result).Inc()
	}
	if storeLoadLatency != nil {
		storeLoadLatency.WithLabelValues(source, result).Observe(duration.Seconds())
	}
	if result == ResultSuccess && storeRecords != nil {
		storeRecords.Set(float64(records))
	}
}

// IncWindow counts a window request.
func IncWindow(cache string) {
	if windowTotal != nil {
		windowTotal.WithLabelValues(cache).Inc()
	}
}

// ObserveAnalysis records an AI analysis attempt.
func ObserveAnalysis(result string, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if analysisTotal != nil {
		analysisTotal.WithLabelValues(result).Inc()
	}
	if analysisLatency != nil {
		analysisLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncRevealTick counts one revealed character.
func IncRevealTick() {
	if revealTicks != nil {
		revealTicks.Inc()
	}
}

// SetSessions sets the open session gauge.
func SetSessions(n int) {
	if sessionsActive != nil {
		sessionsActive.Set(float64(n))
	}
}

// ObserveNarration records a narrative generation.
func ObserveNarration(provider, result string, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if narrationTotal != nil {
		narrationTotal.WithLabelValues(provider, result).Inc()
	}
	if narrationLatency != nil {
		narrationLatency.WithLabelValues(provider, result).Observe(duration.Seconds())
	}
}
