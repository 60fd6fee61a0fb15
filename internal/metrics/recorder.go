package metrics

import "time"

// ResultLabel enumerates per-file build results for counters.
type ResultLabel string

const (
	ResultBuilt   ResultLabel = "built"
	ResultFailed  ResultLabel = "failed"
	ResultSkipped ResultLabel = "skipped"
	ResultFatal   ResultLabel = "fatal"
)

// Recorder defines observability hooks for build cycles. Implementations
// may forward to Prometheus, OpenTelemetry, etc. All methods must be safe for
// concurrent use by build workers.
type Recorder interface {
	ObserveCycleDuration(d time.Duration)
	IncCycleOutcome(success bool)
	IncFileResult(contentType string, result ResultLabel)
	AddErrors(level string, n int)
	IncCoalescedSignals()
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveCycleDuration(time.Duration) {}
func (NoopRecorder) IncCycleOutcome(bool)               {}
func (NoopRecorder) IncFileResult(string, ResultLabel)  {}
func (NoopRecorder) AddErrors(string, int)              {}
func (NoopRecorder) IncCoalescedSignals()               {}

// OrNoop returns r, or a NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
