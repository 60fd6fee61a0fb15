package metrics

import (
	"sync"
	"time"
)

// testRecorder counts calls; used to check Recorder wiring in this package.
type testRecorder struct {
	mu        sync.Mutex
	cycles    int
	outcomes  map[bool]int
	files     map[string]map[ResultLabel]int
	errors    map[string]int
	coalesced int
}

func newTestRecorder() *testRecorder {
	return &testRecorder{outcomes: map[bool]int{}, files: map[string]map[ResultLabel]int{}, errors: map[string]int{}}
}

func (t *testRecorder) ObserveCycleDuration(time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cycles++
}

func (t *testRecorder) IncCycleOutcome(success bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.outcomes[success]++
}

func (t *testRecorder) IncFileResult(contentType string, result ResultLabel) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.files[contentType]
	if !ok {
		m = map[ResultLabel]int{}
		t.files[contentType] = m
	}
	m[result]++
}

func (t *testRecorder) AddErrors(level string, n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errors[level] += n
}

func (t *testRecorder) IncCoalescedSignals() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.coalesced++
}

var _ Recorder = (*testRecorder)(nil)
