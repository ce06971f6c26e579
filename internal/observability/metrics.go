package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics mengumpulkan metrik Prometheus untuk gateway.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	backendCalls    *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	conversions     *prometheus.CounterVec
	ordersCreated   prometheus.Counter
}

// NewMetrics menginisialisasi registry dan metrik dasar.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rentdesk_http_requests_total",
		Help: "Jumlah permintaan HTTP berdasarkan route dan status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rentdesk_http_request_duration_seconds",
		Help:    "Durasi permintaan HTTP per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	backendCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rentdesk_backend_requests_total",
		Help: "Backend API calls by method, route and status; status 0 means no response.",
	}, []string{"method", "route", "code"})
	backendDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rentdesk_backend_request_duration_seconds",
		Help:    "Backend API call latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	conversions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rentdesk_quotation_conversions_total",
		Help: "Quotation conversion attempts by outcome.",
	}, []string{"outcome"})
	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rentdesk_orders_created_total",
		Help: "Vendor orders created by quotation conversion.",
	})
	registry.MustRegister(requests, duration, backendCalls, backendDuration, conversions, ordersCreated)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		backendCalls:    backendCalls,
		backendDuration: backendDuration,
		conversions:     conversions,
		ordersCreated:   ordersCreated,
	}
}

// Handler mengembalikan http.Handler untuk endpoint /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware mencatat metrik untuk setiap permintaan HTTP.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveBackendCall records one outbound backend call.
func (m *Metrics) ObserveBackendCall(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.backendCalls.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.backendDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveConversion records one conversion attempt.
func (m *Metrics) ObserveConversion(outcome string, created int) {
	if m == nil {
		return
	}
	m.conversions.WithLabelValues(outcome).Inc()
	if created > 0 {
		m.ordersCreated.Add(float64(created))
	}
}

// Registerer mengekspos registry untuk pendaftaran metrik khusus.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
