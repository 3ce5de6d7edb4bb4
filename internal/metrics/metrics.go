// Package metrics exposes the simulation's Prometheus instrumentation:
// per-kernel-invocation counters, tick duration, the illumination
// worker pool's active goroutine gauge, and an HTTP middleware/handler
// pair for the control plane, all registered through promauto.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ecosim_tick_duration_seconds",
		Help:    "Wall-clock duration of a single simulated year.",
		Buckets: prometheus.DefBuckets,
	})

	kernelInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ecosim_kernel_invocations_total",
		Help: "Count of event kernel invocations by kind.",
	}, []string{"kind"})

	kernelPropagations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ecosim_kernel_propagations_total",
		Help: "Count of dispatcher continuation hops by kind (slides, wind bounces).",
	}, []string{"kind"})

	kernelPropagationOverflows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ecosim_kernel_propagation_overflows_total",
		Help: "Count of dispatcher chains cut off by the per-chain propagation cap.",
	}, []string{"kind"})

	illuminationWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ecosim_illumination_active_workers",
		Help: "Number of ray-tracing goroutines currently running.",
	})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ecosim_http_request_duration_seconds",
		Help:    "Duration of control-plane HTTP requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"path", "method", "status"})
)

// RecordTick observes a completed tick's wall-clock duration.
func RecordTick(d time.Duration) {
	tickDuration.Observe(d.Seconds())
}

// RecordKernelInvocation increments the invocation counter for kind.
func RecordKernelInvocation(kind string) {
	kernelInvocations.WithLabelValues(kind).Inc()
}

// RecordKernelPropagation increments the continuation-hop counter for
// kind, e.g. a slide or wind bounce landing on a new cell.
func RecordKernelPropagation(kind string) {
	kernelPropagations.WithLabelValues(kind).Inc()
}

// RecordKernelPropagationOverflow increments the overflow counter for
// kind when a dispatcher chain is cut off by the per-chain cap instead
// of terminating naturally.
func RecordKernelPropagationOverflow(kind string) {
	kernelPropagationOverflows.WithLabelValues(kind).Inc()
}

// SetIlluminationWorkers reports the current number of in-flight
// ray-tracing goroutines.
func SetIlluminationWorkers(n int) {
	illuminationWorkers.Set(float64(n))
}

// Handler returns the standard promhttp metrics-scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// statusRecorder captures the status code a downstream handler wrote,
// since http.ResponseWriter doesn't expose it after the fact.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Middleware times every request and records it under the request's
// URL path, method, and status text.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		status := http.StatusText(rec.status)
		if status == "" {
			status = "unknown"
		}
		httpRequestDuration.WithLabelValues(r.URL.Path, r.Method, status).Observe(time.Since(start).Seconds())
	})
}
