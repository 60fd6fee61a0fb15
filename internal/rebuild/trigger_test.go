package rebuild

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsetbuilder/internal/build"
	"git.home.luguber.info/inful/docsetbuilder/internal/diag"
)

type fakeService struct {
	mu   sync.Mutex
	runs []build.Options

	started chan struct{}
	release chan struct{}
	errs    func() []diag.Error
}

func (f *fakeService) Run(_ context.Context, _ string, opts build.Options) (*build.Result, error) {
	f.mu.Lock()
	f.runs = append(f.runs, opts)
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}

	log := diag.NewLog(0, nil)
	if f.errs != nil {
		for _, e := range f.errs() {
			log.Add(e.File(), e)
		}
	}
	return &build.Result{Status: build.StatusSuccess, Log: log}, nil
}

func (f *fakeService) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.runs)
}

type harness struct {
	trigger *Trigger
	service *fakeService
	cycles  chan *build.Result
	handled atomic.Int32

	mu        sync.Mutex
	published map[string][]diag.Diagnostic
	calls     []string
}

func newHarness(t *testing.T, service *fakeService, window time.Duration) *harness {
	t.Helper()
	h := &harness{service: service, cycles: make(chan *build.Result, 16), published: map[string][]diag.Diagnostic{}}
	trigger, err := New(service, Config{
		Root:   t.TempDir(),
		Window: window,
		Publish: func(file string, d []diag.Diagnostic) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.published[file] = d
			h.calls = append(h.calls, file)
		},
		Handled: func() { h.handled.Add(1) },
		Cycle:   func(res *build.Result) { h.cycles <- res },
	})
	require.NoError(t, err)
	h.trigger = trigger
	return h
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = h.trigger.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	select {
	case <-h.trigger.Ready():
	case <-time.After(time.Second):
		t.Fatal("trigger did not start")
	}
}

func (h *harness) waitCycle(t *testing.T) {
	t.Helper()
	select {
	case <-h.cycles:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a cycle")
	}
}

func (h *harness) noCycle(t *testing.T, within time.Duration) {
	t.Helper()
	select {
	case <-h.cycles:
		t.Fatal("unexpected cycle")
	case <-time.After(within):
	}
}

func (h *harness) diagnostics(file string) ([]diag.Diagnostic, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	d, ok := h.published[file]
	return d, ok
}

func TestNew_Validates(t *testing.T) {
	_, err := New(nil, Config{Root: "."})
	require.Error(t, err)
	_, err = New(&fakeService{}, Config{})
	require.Error(t, err)
	_, err = New(&fakeService{}, Config{Root: ".", Window: -time.Second})
	require.Error(t, err)

	trigger, err := New(&fakeService{}, Config{Root: "."})
	require.NoError(t, err)
	assert.Equal(t, DefaultWindow, trigger.cfg.Window)
	assert.True(t, filepath.IsAbs(trigger.Root()))
	assert.NotNil(t, trigger.Overlay())
	assert.Equal(t, StateIdle, trigger.State())
}

func TestTrigger_BurstCoalescesToOneCycle(t *testing.T) {
	h := newHarness(t, &fakeService{}, 50*time.Millisecond)
	for range 5 {
		h.trigger.Notify("a.md")
	}
	h.start(t)

	h.waitCycle(t)
	h.noCycle(t, 150*time.Millisecond)
	assert.Equal(t, 1, h.service.count())
	// Four coalesced signals plus the finished cycle.
	assert.Equal(t, int32(5), h.handled.Load())
	assert.Equal(t, StateIdle, h.trigger.State())
}

func TestTrigger_SpacedSignalsRunSeparately(t *testing.T) {
	h := newHarness(t, &fakeService{}, 30*time.Millisecond)
	h.start(t)

	h.trigger.Notify("a.md")
	h.waitCycle(t)
	time.Sleep(60 * time.Millisecond)
	h.trigger.Notify("a.md")
	h.waitCycle(t)

	assert.Equal(t, 2, h.service.count())
	require.Eventually(t, func() bool { return h.handled.Load() == 2 }, time.Second, time.Millisecond)
}

func TestTrigger_SignalsResetTheWindow(t *testing.T) {
	window := 80 * time.Millisecond
	h := newHarness(t, &fakeService{}, window)
	h.start(t)

	start := time.Now()
	h.trigger.Notify("a.md")
	time.Sleep(40 * time.Millisecond)
	h.trigger.Notify("a.md")
	h.waitCycle(t)

	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond+window)
	assert.Equal(t, 1, h.service.count())
}

func TestTrigger_SignalDuringRunningIsQueued(t *testing.T) {
	service := &fakeService{started: make(chan struct{}, 4), release: make(chan struct{}, 4)}
	h := newHarness(t, service, 20*time.Millisecond)
	h.start(t)

	h.trigger.Notify("a.md")
	select {
	case <-service.started:
	case <-time.After(time.Second):
		t.Fatal("cycle did not start")
	}
	assert.Equal(t, StateRunning, h.trigger.State())

	h.trigger.Notify("b.md")
	h.trigger.Notify("c.md")
	assert.Equal(t, 2, h.trigger.queue.Len())
	assert.Equal(t, 1, service.count())

	service.release <- struct{}{}
	h.waitCycle(t)

	select {
	case <-service.started:
	case <-time.After(time.Second):
		t.Fatal("queued signal did not start a new cycle")
	}
	service.release <- struct{}{}
	h.waitCycle(t)
	assert.Equal(t, 2, service.count())
}

func TestTrigger_CancelWhileCoalescingSkipsCycle(t *testing.T) {
	service := &fakeService{}
	trigger, err := New(service, Config{Root: t.TempDir(), Window: time.Hour})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- trigger.Run(ctx) }()
	trigger.Notify("a.md")
	require.Eventually(t, func() bool { return trigger.State() == StateCoalescing }, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
	assert.Equal(t, 0, service.count())
}

func TestTrigger_PublishesDiagnosticsForOverlayFiles(t *testing.T) {
	var mu sync.Mutex
	errs := []diag.Error{
		diag.TitleMissing("a.md"),
		diag.FileNotFound(diag.At("a.md", 3, 5), "gone.md"),
		diag.TitleMissing("disk-only.md"),
	}
	service := &fakeService{errs: func() []diag.Error {
		mu.Lock()
		defer mu.Unlock()
		return errs
	}}
	h := newHarness(t, service, 10*time.Millisecond)
	overlay := h.trigger.Overlay()
	overlay.Set("a.md", []byte("x"))
	overlay.Set("b.md", []byte("# B"))
	h.start(t)

	h.trigger.Notify("a.md")
	h.waitCycle(t)

	root := h.trigger.Root()
	a, ok := h.diagnostics(filepath.Join(root, "a.md"))
	require.True(t, ok)
	require.Len(t, a, 2)
	codes := []string{a[0].Code, a[1].Code}
	assert.ElementsMatch(t, []string{diag.CodeTitleMissing, diag.CodeFileNotFound}, codes)

	b, ok := h.diagnostics(filepath.Join(root, "b.md"))
	require.True(t, ok)
	assert.Empty(t, b)
	_, ok = h.diagnostics(filepath.Join(root, "disk-only.md"))
	assert.False(t, ok)

	service.mu.Lock()
	assert.Same(t, overlay, service.runs[0].Overlay)
	service.mu.Unlock()

	// The next cycle replaces the previous diagnostics and clears a.md once
	// it leaves the in-memory set.
	mu.Lock()
	errs = []diag.Error{diag.TitleMissing("b.md")}
	mu.Unlock()
	overlay.Delete("a.md")
	h.trigger.Notify("a.md")
	h.waitCycle(t)

	a, _ = h.diagnostics(filepath.Join(root, "a.md"))
	assert.Empty(t, a)
	b, _ = h.diagnostics(filepath.Join(root, "b.md"))
	require.Len(t, b, 1)
	assert.Equal(t, diag.CodeTitleMissing, b[0].Code)

	// A file cleared once is not cleared again.
	h.mu.Lock()
	h.calls = nil
	h.mu.Unlock()
	h.trigger.Notify("b.md")
	h.waitCycle(t)
	h.mu.Lock()
	assert.Equal(t, []string{filepath.Join(root, "b.md")}, h.calls)
	h.mu.Unlock()
}
