package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "docsetbuilder"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	cycleDuration prom.Histogram
	cycleOutcome  *prom.CounterVec
	fileResults   *prom.CounterVec
	errors        *prom.CounterVec
	coalesced     prom.Counter
}

// NewPrometheusRecorder constructs the metrics and registers them with reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		cycleDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of complete build cycles",
			Buckets:   prom.DefBuckets,
		}),
		cycleOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "cycle_outcomes_total",
			Help:      "Build cycles by final status",
		}, []string{"outcome"}),
		fileResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "file_results_total",
			Help:      "Per-file build results by content type",
		}, []string{"content_type", "result"}),
		errors: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Recorded build errors by level",
		}, []string{"level"}),
		coalesced: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "coalesced_signals_total",
			Help:      "Change signals absorbed by the rebuild debounce window",
		}),
	}
	reg.MustRegister(pr.cycleDuration, pr.cycleOutcome, pr.fileResults, pr.errors, pr.coalesced)
	return pr
}

func (p *PrometheusRecorder) ObserveCycleDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.cycleDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncCycleOutcome(success bool) {
	if p == nil {
		return
	}
	outcome := "failed"
	if success {
		outcome = "success"
	}
	p.cycleOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncFileResult(contentType string, result ResultLabel) {
	if p == nil {
		return
	}
	p.fileResults.WithLabelValues(contentType, string(result)).Inc()
}

func (p *PrometheusRecorder) AddErrors(level string, n int) {
	if p == nil || n <= 0 {
		return
	}
	p.errors.WithLabelValues(level).Add(float64(n))
}

func (p *PrometheusRecorder) IncCoalescedSignals() {
	if p == nil {
		return
	}
	p.coalesced.Inc()
}
