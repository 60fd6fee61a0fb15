// Package queue drains the per-cycle file queue: every file is checked
// against the inclusion policy, routed to the build step for its content type
// and its results are folded into the cycle's error log and publish state.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/docsetbuilder/internal/diag"
	"git.home.luguber.info/inful/docsetbuilder/internal/docset"
	ferrors "git.home.luguber.info/inful/docsetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/docsetbuilder/internal/logfields"
	"git.home.luguber.info/inful/docsetbuilder/internal/metrics"
	"git.home.luguber.info/inful/docsetbuilder/internal/publish"
)

// Step builds one file. Steps run concurrently and must not depend on the
// completion of any other file in the same cycle.
type Step func(ctx context.Context, file docset.FileRef) Outcome

// Steps is the dispatch table keyed by content type. Content types without
// an entry are skipped without error.
type Steps map[docset.ContentType]Step

// Policy decides whether a file participates in the cycle.
type Policy interface {
	Eligible(file docset.FileRef, isToc bool) bool
}

// Progress is called once for every file the dispatcher finishes.
type Progress func(file docset.FileRef)

type allowAll struct{}

func (allowAll) Eligible(docset.FileRef, bool) bool { return true }

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithWorkers bounds the number of concurrent steps. n <= 0 uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithProgress installs a progress callback.
func WithProgress(fn Progress) Option {
	return func(d *Dispatcher) { d.progress = fn }
}

// WithRecorder installs a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(d *Dispatcher) { d.recorder = metrics.OrNoop(r) }
}

// WithLogger sets the logger used for fatal failures.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// Dispatcher runs build steps for a cycle.
type Dispatcher struct {
	steps    Steps
	policy   Policy
	log      *diag.Log
	state    *publish.State
	workers  int
	progress Progress
	recorder metrics.Recorder
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher writing into log and state. A nil policy
// admits every file.
func NewDispatcher(steps Steps, policy Policy, log *diag.Log, state *publish.State, opts ...Option) *Dispatcher {
	if log == nil || state == nil {
		panic("NewDispatcher: log and publish state are required")
	}
	if policy == nil {
		policy = allowAll{}
	}
	d := &Dispatcher{
		steps:    steps,
		policy:   policy,
		log:      log,
		state:    state,
		workers:  runtime.GOMAXPROCS(0),
		progress: func(docset.FileRef) {},
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.progress == nil {
		d.progress = func(docset.FileRef) {}
	}
	return d
}

// Drain processes every file once. Duplicate references are processed once.
//
// A fatal step outcome stops the drain: files that have not started are
// never processed, the failure is recorded in the log, and a *FatalError is
// returned. Files already in flight run to completion.
func (d *Dispatcher) Drain(ctx context.Context, files []docset.FileRef) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)

	seen := make(map[docset.FileRef]struct{}, len(files))
	for _, file := range files {
		if _, dup := seen[file]; dup {
			continue
		}
		seen[file] = struct{}{}
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// The slot may have been granted after another worker aborted.
			if gctx.Err() != nil {
				return nil
			}
			return d.process(gctx, file)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (d *Dispatcher) process(ctx context.Context, file docset.FileRef) error {
	contentType := file.ContentType.String()
	if !d.policy.Eligible(file, file.IsTableOfContents()) {
		d.state.Exclude(file)
		d.recorder.IncFileResult(contentType, metrics.ResultSkipped)
		d.progress(file)
		return nil
	}

	step, ok := d.steps[file.ContentType]
	if !ok {
		d.progress(file)
		return nil
	}

	out := d.invoke(ctx, step, file)
	if out.Kind == KindFatal {
		d.logger.Error("Build step failed fatally",
			logfields.File(file.Path),
			logfields.Origin(file.Origin.String()),
			logfields.ContentType(contentType),
			logfields.Error(out.Cause))
		d.log.Force(diag.Fatal(file.Path, out.Cause))
		d.recorder.IncFileResult(contentType, metrics.ResultFatal)
		return &FatalError{File: file, Cause: out.Cause}
	}

	excluded := out.Kind == KindFailed
	if d.log.Add(file.Path, out.Errors...) {
		excluded = true
	}
	if excluded {
		d.state.Exclude(file)
		d.recorder.IncFileResult(contentType, metrics.ResultFailed)
	} else {
		d.recorder.IncFileResult(contentType, metrics.ResultBuilt)
	}
	d.progress(file)
	return nil
}

// invoke runs step, converting a panic into a fatal outcome.
func (d *Dispatcher) invoke(ctx context.Context, step Step, file docset.FileRef) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Debug("Recovered panic in build step", logfields.File(file.Path), slog.String("stack", string(debug.Stack())))
			out = Fatal(ferrors.InternalError(fmt.Sprintf("panic: %v", r)).WithContext("file", file.Path).Build())
		}
	}()
	return step(ctx, file)
}
