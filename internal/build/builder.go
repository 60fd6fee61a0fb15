package build

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docsetbuilder/internal/build/queue"
	"git.home.luguber.info/inful/docsetbuilder/internal/config"
	"git.home.luguber.info/inful/docsetbuilder/internal/diag"
	"git.home.luguber.info/inful/docsetbuilder/internal/docset"
	foundationerrors "git.home.luguber.info/inful/docsetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/docsetbuilder/internal/logfields"
	"git.home.luguber.info/inful/docsetbuilder/internal/metrics"
	"git.home.luguber.info/inful/docsetbuilder/internal/observability"
	"git.home.luguber.info/inful/docsetbuilder/internal/publish"
	"git.home.luguber.info/inful/docsetbuilder/internal/remotecache"
)

// Builder is the standard implementation of Service.
type Builder struct {
	recorder metrics.Recorder
	summary  io.Writer
	now      func() time.Time

	discover  func(root string, opts docset.DiscoverOptions) ([]string, error)
	wrapSteps func(queue.Steps) queue.Steps

	// locks serializes cycles per docset.
	locks sync.Map

	mu      sync.Mutex
	mirrors map[string]*remotecache.NATSMirror
}

// Option configures a Builder.
type Option func(*Builder)

// WithRecorder installs a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(b *Builder) { b.recorder = metrics.OrNoop(r) }
}

// WithSummaryWriter sets where the end-of-cycle summary is printed. A nil
// writer disables the summary.
func WithSummaryWriter(w io.Writer) Option {
	return func(b *Builder) { b.summary = w }
}

func withClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

func withDiscover(fn func(string, docset.DiscoverOptions) ([]string, error)) Option {
	return func(b *Builder) { b.discover = fn }
}

func withSteps(wrap func(queue.Steps) queue.Steps) Option {
	return func(b *Builder) { b.wrapSteps = wrap }
}

// NewBuilder creates a Builder printing its summary to stderr.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		recorder: metrics.NoopRecorder{},
		summary:  os.Stderr,
		now:      time.Now,
		discover: docset.Discover,
		mirrors:  make(map[string]*remotecache.NATSMirror),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var _ Service = (*Builder)(nil)

// Run executes one build cycle. Cycles of the same docset wait for each
// other.
func (b *Builder) Run(ctx context.Context, docsetPath string, opts Options) (res *Result, err error) {
	mu := b.lockFor(docsetPath)
	mu.Lock()
	defer mu.Unlock()

	res = &Result{
		ID:        uuid.New(),
		StartTime: b.now(),
		Log:       diag.NewLog(diag.DefaultMaxErrors, nil),
		Publish:   publish.NewState(),
	}
	ctx = observability.WithCycleID(ctx, res.ID.String())
	ctx = observability.WithDocset(ctx, docsetPath)
	defer func() { b.finish(ctx, res, err) }()

	c, err := b.prepare(ctx, docsetPath, opts, res)
	if c != nil {
		defer c.persist(ctx)
	}
	if err != nil || c == nil {
		return res, err
	}
	return res, c.run(ctx)
}

// Close releases connections kept across cycles.
func (b *Builder) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for key, m := range b.mirrors {
		m.Close()
		delete(b.mirrors, key)
	}
	return nil
}

func (b *Builder) lockFor(docsetPath string) *sync.Mutex {
	key := docsetPath
	if abs, err := filepath.Abs(docsetPath); err == nil {
		key = abs
	}
	mu, _ := b.locks.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// recognized records a classified failure carrying an error code in log and
// returns nil. Any other error is returned unchanged.
func recognized(ctx context.Context, log *diag.Log, err error) error {
	classified, ok := foundationerrors.AsClassified(err)
	if !ok || classified.Code() == "" {
		return err
	}
	path, _ := classified.Context().GetString("path")
	file, _ := classified.Context().GetString("file")

	var e diag.Error
	switch classified.Code() {
	case diag.CodeDocsetNotFound:
		e = diag.DocsetNotFound(path)
	case diag.CodeFallbackNotFound:
		e = diag.FallbackNotFound(path)
	case diag.CodeConfigInvalid:
		e = diag.ConfigInvalid(file, errorMessage(classified))
	default:
		e = diag.Error{Level: diag.LevelError, Code: classified.Code(), Message: errorMessage(classified)}
	}
	log.Force(e)
	observability.WarnContext(ctx, "Build cycle stopped", logfields.Code(e.Code), logfields.Error(err))
	return nil
}

func errorMessage(e *foundationerrors.ClassifiedError) string {
	if cause := e.Cause(); cause != nil {
		return e.Message() + ": " + cause.Error()
	}
	return e.Message()
}

func (b *Builder) finish(ctx context.Context, res *Result, err error) {
	res.EndTime = b.now()
	res.Duration = res.EndTime.Sub(res.StartTime)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		res.Status = StatusCancelled
	case err != nil, res.Log.HasErrors():
		res.Status = StatusFailed
	default:
		res.Status = StatusSuccess
	}

	b.recorder.ObserveCycleDuration(res.Duration)
	b.recorder.IncCycleOutcome(res.Success())
	for level, n := range res.Log.Counts() {
		if n > 0 {
			b.recorder.AddErrors(level.String(), n)
		}
	}
	if b.summary != nil {
		writeSummary(b.summary, res)
	}
	observability.InfoContext(ctx, "Build cycle finished",
		slog.String("status", string(res.Status)),
		logfields.DurationMS(float64(res.Duration.Microseconds())/1000),
		logfields.Count(res.Log.Len()))
}

// mirrorFor returns the shared cache mirror of cfg, connecting on first use.
// A failed connection leaves the caches local.
func (b *Builder) mirrorFor(ctx context.Context, cfg config.CacheConfig) remotecache.Mirror {
	if cfg.NatsURL == "" {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	key := cfg.NatsURL + "|" + cfg.NatsBucket
	if m, ok := b.mirrors[key]; ok {
		return m
	}
	m, err := remotecache.ConnectNATS(ctx, cfg.NatsURL, cfg.NatsBucket)
	if err != nil {
		observability.WarnContext(ctx, "Remote cache mirror unavailable", slog.String("url", cfg.NatsURL), logfields.Error(err))
		return nil
	}
	b.mirrors[key] = m
	return m
}
