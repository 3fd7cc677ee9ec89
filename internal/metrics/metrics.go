// Package metrics exposes timer engine counters to Prometheus. A nil *Recorder
// is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Recorder struct {
	operations  *prometheus.CounterVec
	completions *prometheus.CounterVec
	alerts      *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashboard",
			Subsystem: "timers",
			Name:      "operations_total",
			Help:      "Timer service operations by outcome.",
		}, []string{"op", "result"}),
		completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashboard",
			Subsystem: "timers",
			Name:      "completions_total",
			Help:      "Timers that reached zero, by where the completion was observed.",
		}, []string{"source"}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashboard",
			Subsystem: "timers",
			Name:      "alerts_total",
			Help:      "Completion side effects by kind and outcome.",
		}, []string{"kind", "result"}),
	}
	reg.MustRegister(r.operations, r.completions, r.alerts)
	return r
}

func (r *Recorder) Operation(op string, ok bool) {
	if r == nil {
		return
	}
	r.operations.WithLabelValues(op, result(ok)).Inc()
}

func (r *Recorder) Completion(source string) {
	if r == nil {
		return
	}
	r.completions.WithLabelValues(source).Inc()
}

func (r *Recorder) Alert(kind string, ok bool) {
	if r == nil {
		return
	}
	r.alerts.WithLabelValues(kind, result(ok)).Inc()
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
