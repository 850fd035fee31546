package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sample_app"

// Registry is scraped by /metrics. Only sample_app collectors and the
// process and runtime collectors live here, never the default registry.
var Registry = prometheus.NewRegistry()

// Request traffic, labelled by chi route pattern.
var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: "http", Name: "inflight_requests",
		Help: "Requests the sample app is serving right now.",
	})
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "http", Name: "requests_total",
		Help: "Requests served, by route and response status.",
	}, []string{"method", "path", "status"})
	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
		Help: "Time from routing a request to finishing its response.",
		// 5ms doubling up to 2.56s
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"method", "path"})
)

// Domain events.
var (
	signups = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "users", Name: "signups_total",
		Help: "Accounts created through the sign up form.",
	})
	signins = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "sessions", Name: "signins_total",
		Help: "Sign in form submissions, split into success and failure.",
	}, []string{"result"})
	micropostsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "microposts", Name: "created_total",
		Help: "Microposts saved from the home page form.",
	})
)

func init() {
	Registry.MustRegister(
		httpInFlight, httpRequests, httpDuration,
		signups, signins, micropostsCreated,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler serves Registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler counts and times every request except scrapes of
// /metrics itself. The path label is the chi route pattern, so
// /users/{id} is one series no matter how many users exist.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start).Seconds()

		method, path := strings.ToUpper(r.Method), routePattern(r)
		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(elapsed)
	})
}

// RecordSignup counts a new account.
func RecordSignup() {
	signups.Inc()
}

// RecordSignin counts a sign-in attempt.
func RecordSignin(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	signins.WithLabelValues(result).Inc()
}

// RecordMicropost counts a created micropost.
func RecordMicropost() {
	micropostsCreated.Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack passes connection takeover through for websocket upgrades.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("metrics: response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
