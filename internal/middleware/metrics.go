package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rivalscope"

// Metrics holds the HTTP collectors and the domain counters. It also
// satisfies application.Recorder.
type Metrics struct {
	gatherer prometheus.Gatherer

	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	inFlight         prometheus.Gauge
	analysesTotal    *prometheus.CounterVec
	degradedTotal    *prometheus.CounterVec
	reportsGenerated *prometheus.CounterVec
}

// NewMetrics registers all collectors on reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Requests currently being served",
		}),
		analysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Content analyses by outcome",
		}, []string{"outcome"}),
		degradedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sentiment_degraded_total",
			Help:      "Sentiment calls that fell back to neutral",
		}, []string{"reason"}),
		reportsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_generated_total",
			Help:      "Trend and benchmark reports persisted",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.requestsTotal, m.requestDuration, m.inFlight,
		m.analysesTotal, m.degradedTotal, m.reportsGenerated)
	return m
}

func (m *Metrics) AnalysisCompleted(outcome string) { m.analysesTotal.WithLabelValues(outcome).Inc() }
func (m *Metrics) SentimentDegraded(reason string)  { m.degradedTotal.WithLabelValues(reason).Inc() }
func (m *Metrics) ReportGenerated(kind string)      { m.reportsGenerated.WithLabelValues(kind).Inc() }

// Middleware tracks request metrics by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.inFlight.Inc()
		defer m.inFlight.Dec()

		wrapped := wrapWriter(w)
		next.ServeHTTP(wrapped, r)

		route := "unknown"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		m.requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()
		m.requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
