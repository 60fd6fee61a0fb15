package build

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"git.home.luguber.info/inful/docsetbuilder/internal/build/queue"
	"git.home.luguber.info/inful/docsetbuilder/internal/build/steps"
	"git.home.luguber.info/inful/docsetbuilder/internal/build/validation"
	"git.home.luguber.info/inful/docsetbuilder/internal/config"
	"git.home.luguber.info/inful/docsetbuilder/internal/diag"
	"git.home.luguber.info/inful/docsetbuilder/internal/docset"
	foundationerrors "git.home.luguber.info/inful/docsetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/docsetbuilder/internal/gitinfo"
	"git.home.luguber.info/inful/docsetbuilder/internal/localization"
	"git.home.luguber.info/inful/docsetbuilder/internal/logfields"
	"git.home.luguber.info/inful/docsetbuilder/internal/manifest"
	"git.home.luguber.info/inful/docsetbuilder/internal/observability"
	"git.home.luguber.info/inful/docsetbuilder/internal/output"
	"git.home.luguber.info/inful/docsetbuilder/internal/policy"
	"git.home.luguber.info/inful/docsetbuilder/internal/remotecache"
	"git.home.luguber.info/inful/docsetbuilder/internal/toc"
	"git.home.luguber.info/inful/docsetbuilder/internal/xref"
)

// Cache names and lifetimes of the remote accessor caches.
const (
	usersCacheName = "users"
	usersTTL       = 7 * 24 * time.Hour
	xrefTTL        = 24 * time.Hour
)

// cycle is the state of one Run. It is discarded when Run returns.
type cycle struct {
	builder *Builder
	cfg     *config.Config
	opts    Options
	res     *Result

	primary  *docset.Docset
	fallback *docset.Docset
	input    *docset.Input
	files    *docset.FileSet
	tocs     *toc.Map

	redirections map[string]string
	sink         output.Sink
	dir          *output.Dir

	git   *gitinfo.Provider
	users *remotecache.Cache[string]
	xrefs *remotecache.Cache[string]

	// stopped is set when a recognized failure ended the cycle early.
	stopped bool
}

// prepare loads the configuration, resolves the docsets, opens side-channel
// state and computes the file set. A nil cycle means nothing was opened.
func (b *Builder) prepare(ctx context.Context, docsetPath string, opts Options, res *Result) (*cycle, error) {
	ctx = observability.WithStage(ctx, "resolve")
	cfg, err := config.Load(docsetPath)
	if err != nil {
		return nil, recognized(ctx, res.Log, err)
	}
	rules, err := cfg.ErrorRules()
	if err != nil {
		res.Log.Force(diag.ConfigInvalid("", err.Error()))
		return nil, fmt.Errorf("error rules: %w", err)
	}
	res.Log = diag.NewLog(cfg.MaxErrors, rules)

	primary, fallback, err := localization.NewResolver(cfg.Localization).ResolvePrimaryAndFallback(docsetPath)
	if err != nil {
		return nil, recognized(ctx, res.Log, err)
	}
	res.Root = primary.Path

	c := &cycle{builder: b, cfg: cfg, opts: opts, res: res, primary: primary, fallback: fallback}
	cacheDir := underRoot(primary.Path, cfg.Cache.Dir)
	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = underRoot(primary.Path, cfg.Output.Path)
	}

	c.openSideChannels(ctx, cacheDir)

	ctx = observability.WithStage(ctx, "discover")
	if err := c.discover(outputDir, cacheDir); err != nil {
		observability.WarnContext(ctx, "Docset discovery failed", logfields.Error(err))
		return c, err
	}

	c.sink = output.Discard{}
	if !opts.DryRun {
		dir, err := output.NewDir(outputDir)
		if err != nil {
			res.Log.Force(diag.WriteFailed(outputDir, err))
			c.stopped = true
			return c, nil
		}
		c.sink, c.dir = dir, dir
	}
	observability.DebugContext(ctx, "File set ready", logfields.Count(c.files.Len()))
	return c, nil
}

func (c *cycle) openSideChannels(ctx context.Context, cacheDir string) {
	provider, err := gitinfo.Open(c.primary.Path, cacheDir)
	if err != nil {
		observability.WarnContext(ctx, "Repository metadata unavailable", logfields.Error(err))
	} else {
		c.git = provider
		repo := provider.Repository()
		c.primary.Repository = &repo
	}

	mirror := c.builder.mirrorFor(ctx, c.cfg.Cache)
	cacheOpts := func(ttl time.Duration) []remotecache.Option {
		opts := []remotecache.Option{remotecache.WithTTL(ttl)}
		if mirror != nil {
			opts = append(opts, remotecache.WithMirror(mirror))
		}
		return opts
	}
	c.users = remotecache.Open[string](usersCacheName, cacheDir, cacheOpts(usersTTL)...)
	c.xrefs = remotecache.Open[string](xref.CacheName, cacheDir, cacheOpts(xrefTTL)...)
}

func (c *cycle) discover(outputDir, cacheDir string) error {
	exclude := append(slices.Clone(c.cfg.Exclude), config.FileNames...)
	primaryFiles, err := c.builder.discover(c.primary.Path, docset.DiscoverOptions{
		Exclude:  exclude,
		SkipDirs: relativeDirs(c.primary.Path, outputDir, cacheDir),
	})
	if err != nil {
		c.res.Log.Force(diag.DiscoverFailed(c.primary.Path, err))
		return foundationerrors.FileSystemError("discover docset files").WithCause(err).WithContext("docset", c.primary.Path).Build()
	}

	overlay := c.opts.Overlay
	if overlay == nil {
		overlay = docset.NewOverlay()
	}
	primaryFiles = append(primaryFiles, overlay.Paths()...)

	var fallbackFiles []string
	if c.fallback != nil {
		fallbackFiles, err = c.builder.discover(c.fallback.Path, docset.DiscoverOptions{
			Exclude:  exclude,
			SkipDirs: relativeDirs(c.fallback.Path, underRoot(c.fallback.Path, c.cfg.Output.Path), underRoot(c.fallback.Path, c.cfg.Cache.Dir)),
		})
		if err != nil {
			c.res.Log.Force(diag.DiscoverFailed(c.fallback.Path, err))
			return foundationerrors.FileSystemError("discover fallback files").WithCause(err).WithContext("docset", c.fallback.Path).Build()
		}
	}

	c.redirections = make(map[string]string, len(c.cfg.Redirections))
	sources := make([]string, 0, len(c.cfg.Redirections))
	for source, target := range c.cfg.Redirections {
		source = docset.NormalizePath(strings.TrimPrefix(source, "/"))
		c.redirections[source] = target
		sources = append(sources, source)
	}

	c.files = docset.NewFileSet(primaryFiles, fallbackFiles, sources)
	c.input = &docset.Input{Docset: c.primary, Fallback: c.fallback, Overlay: overlay}
	c.tocs = toc.Build(c.files.All(), c.input.Read, c.files.Lookup)
	for _, p := range c.tocs.Unrooted() {
		c.res.Log.Add(p, diag.TocUnrooted(p))
	}
	c.res.Files = c.files
	return nil
}

// run drains the queue, validates and emits the artifacts.
func (c *cycle) run(ctx context.Context) error {
	if c.stopped {
		return nil
	}
	log, state := c.res.Log, c.res.Publish

	sc := &steps.Context{
		Input:        c.input,
		Files:        c.files,
		Tocs:         c.tocs,
		State:        state,
		Sink:         c.sink,
		OutputType:   c.cfg.Output.Type,
		Redirections: c.redirections,
		Users:        c.users,
	}
	if c.git != nil {
		sc.Git = c.git
	}

	table := sc.Steps()
	if c.builder.wrapSteps != nil {
		table = c.builder.wrapSteps(table)
	}
	dispatcher := queue.NewDispatcher(table, policy.NewFallback(c.tocs), log, state,
		queue.WithWorkers(c.cfg.Build.Workers),
		queue.WithProgress(c.opts.Progress),
		queue.WithRecorder(c.builder.recorder),
	)
	if err := dispatcher.Drain(observability.WithStage(ctx, "drain"), c.files.All()); err != nil {
		var fatal *queue.FatalError
		if errors.As(err, &fatal) {
			return fmt.Errorf("%w: %w", ErrCycleAborted, err)
		}
		return err
	}

	ctx = observability.WithStage(ctx, "validate")
	log.Add("", validation.Default().Validate(ctx, validation.Context{
		State: state,
		Xref:  xref.NewClient(c.cfg.Xref, c.xrefs),
	})...)

	if c.opts.DryRun {
		return nil
	}

	ctx = observability.WithStage(ctx, "emit")
	arts := manifest.Build(c.res.ID, c.builder.now(), manifest.Info(c.cfg.Name, c.primary), state)
	c.res.Artifacts = &arts
	if err := arts.Write(c.sink); err != nil {
		log.Add("", diag.WriteFailed(manifest.PublishFile, err))
	}
	if c.opts.Legacy || c.cfg.Output.Legacy {
		c.writeLegacy(ctx, arts)
	}
	return nil
}

// writeLegacy converts the manifest for json output, or copies the template
// for html output.
func (c *cycle) writeLegacy(ctx context.Context, arts manifest.Artifacts) {
	var err error
	name := manifest.LegacyManifestFile
	switch {
	case c.cfg.Output.Type == config.OutputJSON:
		err = c.sink.WriteArtifact(manifest.ToLegacy(arts.Publish), name)
	case c.cfg.Output.Template != "":
		name = c.cfg.Output.Template
		err = c.dir.CopyDir(underRoot(c.primary.Path, c.cfg.Output.Template), "")
	default:
		observability.DebugContext(ctx, "No template configured; skipping legacy output")
		return
	}
	if err != nil {
		c.res.Log.Add("", diag.WriteFailed(name, err))
	}
}

// persist saves side-channel state. It runs however the cycle ended.
func (c *cycle) persist(ctx context.Context) {
	ctx = observability.WithStage(context.WithoutCancel(ctx), "persist")
	var errs []diag.Error
	if c.git != nil {
		if err := c.git.SaveCommits(ctx); err != nil {
			errs = append(errs, diag.PersistFailed("commit cache", err))
		}
		if err := c.git.SaveContributions(); err != nil {
			errs = append(errs, diag.PersistFailed("contribution metadata", err))
		}
		if err := c.git.Close(); err != nil {
			observability.DebugContext(ctx, "Closing repository metadata failed", logfields.Error(err))
		}
	}
	for _, cache := range []*remotecache.Cache[string]{c.users, c.xrefs} {
		if cache == nil {
			continue
		}
		if err := cache.Save(ctx); err != nil {
			errs = append(errs, diag.PersistFailed(cache.Name()+" cache", err))
		}
	}
	c.res.Log.Add("", errs...)
}

// underRoot resolves p against root unless it is absolute.
func underRoot(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, filepath.FromSlash(p))
}

// relativeDirs returns the dirs that lie inside root, relative to it.
func relativeDirs(root string, dirs ...string) []string {
	var out []string
	for _, d := range dirs {
		if d == "" {
			continue
		}
		rel, err := filepath.Rel(root, d)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}
