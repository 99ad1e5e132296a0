// Package metrics exposes Prometheus instrumentation for answers and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	answersTotal      *prometheus.CounterVec
	answerDuration    prometheus.Histogram
	searchResults     prometheus.Histogram
	generatorFailures *prometheus.CounterVec
	corpusChunks      prometheus.Gauge
	corpusReloads     *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "asknehru", Subsystem: "http", Name: "requests_total",
			Help: "Total HTTP requests processed.",
		}, []string{"method", "path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "asknehru", Subsystem: "http", Name: "request_duration_seconds",
			Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		requestInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "asknehru", Subsystem: "http", Name: "in_flight_requests",
			Help: "Number of in-flight HTTP requests.",
		}),
		answersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "asknehru", Subsystem: "answer", Name: "total",
			Help: "Answers produced, by the tier that produced them.",
		}, []string{"source"}),
		answerDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "asknehru", Subsystem: "answer", Name: "duration_seconds",
			Help: "Time to produce an answer, including any generator call.", Buckets: prometheus.DefBuckets,
		}),
		searchResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "asknehru", Subsystem: "search", Name: "results",
			Help: "Ranked passages returned per query.", Buckets: []float64{0, 1, 2, 3, 4, 5},
		}),
		generatorFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "asknehru", Subsystem: "generator", Name: "failures_total",
			Help: "Generator calls that fell back to extractive summaries.",
		}, []string{"generator", "reason"}),
		corpusChunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "asknehru", Subsystem: "corpus", Name: "chunks",
			Help: "Chunks in the currently loaded corpus.",
		}),
		corpusReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "asknehru", Subsystem: "corpus", Name: "loads_total",
			Help: "Corpus loads by outcome.",
		}, []string{"status"}),
	}
	m.registry.MustRegister(
		m.requestTotal,
		m.requestDuration,
		m.requestInFlight,
		m.answersTotal,
		m.answerDuration,
		m.searchResults,
		m.generatorFailures,
		m.corpusChunks,
		m.corpusReloads,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts, latency and in-flight requests. Paths
// outside routes are labelled "other" to keep the series bounded.
func (m *Metrics) Middleware(next http.Handler, routes ...string) http.Handler {
	known := make(map[string]struct{}, len(routes))
	for _, r := range routes {
		known[r] = struct{}{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(known, r.URL.Path)
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(rec, r)

		m.requestTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.statusCode)).Inc()
		m.requestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(known map[string]struct{}, path string) string {
	if _, ok := known[path]; ok {
		return path
	}
	return "other"
}

func (m *Metrics) RecordAnswer(source string, results int, d time.Duration) {
	if source == "" {
		source = "unknown"
	}
	m.answersTotal.WithLabelValues(source).Inc()
	m.searchResults.Observe(float64(results))
	m.answerDuration.Observe(d.Seconds())
}

func (m *Metrics) RecordGeneratorFailure(generator, reason string) {
	m.generatorFailures.WithLabelValues(generator, reason).Inc()
}

func (m *Metrics) RecordCorpusLoad(chunks int, err error) {
	if err != nil {
		m.corpusReloads.WithLabelValues("error").Inc()
		return
	}
	m.corpusReloads.WithLabelValues("ok").Inc()
	m.corpusChunks.Set(float64(chunks))
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
