// Package metrics exports tag generation outcomes to Prometheus.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"herdbook/internal/core/apperror"
	"herdbook/internal/domain/tagging"
)

// PrometheusObserver counts generation calls by method and outcome and
// records their latency. It owns its registry so tests and multiple servers
// in one process do not collide on the default one.
type PrometheusObserver struct {
	registry  *prometheus.Registry
	generated *prometheus.CounterVec
	failures  *prometheus.CounterVec
	attempts  prometheus.Histogram
	duration  *prometheus.HistogramVec
}

var _ tagging.Observer = (*PrometheusObserver)(nil)

// NewPrometheusObserver creates the observer and registers its collectors,
// plus the Go runtime and process collectors.
func NewPrometheusObserver(namespace string) *PrometheusObserver {
	if namespace == "" {
		namespace = "herdbook"
	}
	o := &PrometheusObserver{
		registry: prometheus.NewRegistry(),
		generated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tagging",
			Name:      "tags_generated_total",
			Help:      "Tags returned, by numbering method and outcome.",
		}, []string{"method", "outcome"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tagging",
			Name:      "primary_failures_total",
			Help:      "Calls whose primary path failed and fell back, by error code.",
		}, []string{"code"}),
		attempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "tagging",
			Name:      "uniqueness_attempts",
			Help:      "Candidates checked for uniqueness per call.",
			Buckets:   []float64{1, 2, 3, 5, 8, 11},
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "tagging",
			Name:      "generation_duration_seconds",
			Help:      "Time spent generating one tag.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
	o.registry.MustRegister(
		o.generated, o.failures, o.attempts, o.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return o
}

// Observe implements tagging.Observer.
func (o *PrometheusObserver) Observe(_ context.Context, ev tagging.Event) {
	method := string(ev.System)
	if method == "" {
		method = "unknown"
	}
	o.generated.WithLabelValues(method, string(ev.Outcome)).Inc()
	if ev.Err != nil {
		o.failures.WithLabelValues(errorCode(ev.Err)).Inc()
	}
	if ev.Attempts > 0 {
		o.attempts.Observe(float64(ev.Attempts))
	}
	o.duration.WithLabelValues(method).Observe(ev.Duration.Seconds())
}

// Registry exposes the registry, for tests and extra collectors.
func (o *PrometheusObserver) Registry() *prometheus.Registry { return o.registry }

// Handler serves the registry in the Prometheus text format.
func (o *PrometheusObserver) Handler() http.Handler {
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{Registry: o.registry})
}

func errorCode(err error) string {
	if appErr, ok := apperror.AsAppError(err); ok {
		return appErr.Code
	}
	return apperror.CodeInternal
}
