package rebuild

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/docsetbuilder/internal/build"
	"git.home.luguber.info/inful/docsetbuilder/internal/diag"
	"git.home.luguber.info/inful/docsetbuilder/internal/docset"
	ferrors "git.home.luguber.info/inful/docsetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/docsetbuilder/internal/logfields"
	"git.home.luguber.info/inful/docsetbuilder/internal/metrics"
	"git.home.luguber.info/inful/docsetbuilder/internal/observability"
)

// DefaultWindow is the coalescing window used when none is configured.
const DefaultWindow = time.Second

// State is the phase of the trigger loop.
type State int32

const (
	StateIdle State = iota
	StateCoalescing
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCoalescing:
		return "coalescing"
	case StateRunning:
		return "running"
	}
	return "unknown"
}

// PublishFunc receives the complete diagnostics of one file. An empty slice
// clears what was published for the file before. file is an absolute path.
type PublishFunc func(file string, diagnostics []diag.Diagnostic)

// Config configures a Trigger.
type Config struct {
	// Root is the docset directory. Only in-memory files under it get
	// diagnostics.
	Root string

	// Window is the coalescing window. Zero selects DefaultWindow.
	Window time.Duration

	// Overlay is the in-memory file set passed to every cycle.
	Overlay *docset.Overlay

	// Build holds further cycle options. Its Overlay is replaced by Overlay.
	Build build.Options

	// Publish receives per-file diagnostics after every cycle.
	Publish PublishFunc

	// Handled fires once per coalesced signal and once per finished cycle.
	Handled func()

	// Cycle is called with the result of every cycle after its diagnostics
	// were published.
	Cycle func(*build.Result)

	Recorder metrics.Recorder
}

// Trigger runs debounced build cycles for one docset.
type Trigger struct {
	service build.Service
	cfg     Config
	queue   *SignalQueue

	state     atomic.Int32
	readyOnce sync.Once
	ready     chan struct{}

	// published holds the files that had diagnostics published by the
	// previous cycle.
	published map[string]struct{}
}

// New creates a trigger that runs cycles through service.
func New(service build.Service, cfg Config) (*Trigger, error) {
	if service == nil {
		return nil, ferrors.ValidationError("build service is required").Build()
	}
	if cfg.Root == "" {
		return nil, ferrors.ValidationError("docset root is required").Build()
	}
	if cfg.Window < 0 {
		return nil, ferrors.ValidationError("coalescing window must be >= 0").
			WithContext("window", cfg.Window.String()).
			Build()
	}
	if cfg.Window == 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Overlay == nil {
		cfg.Overlay = docset.NewOverlay()
	}
	cfg.Recorder = metrics.OrNoop(cfg.Recorder)
	if abs, err := filepath.Abs(cfg.Root); err == nil {
		cfg.Root = abs
	}
	return &Trigger{
		service:   service,
		cfg:       cfg,
		queue:     NewSignalQueue(),
		ready:     make(chan struct{}),
		published: make(map[string]struct{}),
	}, nil
}

// Overlay returns the in-memory file set the trigger builds against.
func (t *Trigger) Overlay() *docset.Overlay { return t.cfg.Overlay }

// Root returns the absolute docset directory.
func (t *Trigger) Root() string { return t.cfg.Root }

// Notify posts a change signal. It never blocks.
func (t *Trigger) Notify(source string) {
	t.queue.Post(Signal{Source: source})
}

// State returns the current loop phase.
func (t *Trigger) State() State { return State(t.state.Load()) }

// Ready is closed once Run has started waiting for signals.
func (t *Trigger) Ready() <-chan struct{} { return t.ready }

// Run processes signals until ctx is done. Canceling ctx stops an idle or
// coalescing loop; a running cycle always completes first.
func (t *Trigger) Run(ctx context.Context) error {
	if ctx == nil {
		return ferrors.ValidationError("context cannot be nil").Build()
	}
	defer t.state.Store(int32(StateIdle))

	for {
		t.state.Store(int32(StateIdle))
		t.readyOnce.Do(func() { close(t.ready) })
		first, _, err := t.queue.Wait(ctx, 0)
		if err != nil {
			return nil
		}

		t.state.Store(int32(StateCoalescing))
		slog.Debug("Change signal received", slog.String("source", first.Source))
		if err := t.coalesce(ctx); err != nil {
			return nil
		}

		t.state.Store(int32(StateRunning))
		t.runCycle(context.WithoutCancel(ctx))
		t.handled()
	}
}

// coalesce absorbs signals until the window passes without one.
func (t *Trigger) coalesce(ctx context.Context) error {
	for {
		s, ok, err := t.queue.Wait(ctx, t.cfg.Window)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		slog.Debug("Change signal coalesced", slog.String("source", s.Source))
		t.cfg.Recorder.IncCoalescedSignals()
		t.handled()
	}
}

func (t *Trigger) runCycle(ctx context.Context) {
	opts := t.cfg.Build
	opts.Overlay = t.cfg.Overlay

	res, err := t.service.Run(ctx, t.cfg.Root, opts)
	if err != nil {
		observability.WarnContext(ctx, "Rebuild cycle did not complete", logfields.Docset(t.cfg.Root), logfields.Error(err))
	}
	if res == nil {
		return
	}
	t.publishDiagnostics(res.Log)
	if t.cfg.Cycle != nil {
		t.cfg.Cycle(res)
	}
}

// publishDiagnostics replaces the diagnostics of every in-memory file under
// the root and clears files that left the in-memory set.
func (t *Trigger) publishDiagnostics(log *diag.Log) {
	if t.cfg.Publish == nil {
		return
	}
	errs := log.Errors()
	current := make(map[string]struct{})
	for _, rel := range t.cfg.Overlay.Paths() {
		if !filepath.IsLocal(filepath.FromSlash(rel)) {
			continue
		}
		file := filepath.Join(t.cfg.Root, filepath.FromSlash(rel))
		current[file] = struct{}{}
		t.cfg.Publish(file, diag.DiagnosticsForFile(errs, rel))
	}
	for file := range t.published {
		if _, ok := current[file]; !ok {
			t.cfg.Publish(file, []diag.Diagnostic{})
		}
	}
	t.published = current
}

func (t *Trigger) handled() {
	if t.cfg.Handled != nil {
		t.cfg.Handled()
	}
}
