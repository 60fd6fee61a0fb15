package commands

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/docsetbuilder/internal/build"
	"git.home.luguber.info/inful/docsetbuilder/internal/config"
	"git.home.luguber.info/inful/docsetbuilder/internal/logfields"
	"git.home.luguber.info/inful/docsetbuilder/internal/rebuild"
	"git.home.luguber.info/inful/docsetbuilder/internal/watch"
)

// startupSource is the signal that runs the first cycle of watch mode.
const startupSource = "startup"

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Docset string `arg:"" optional:"" type:"path" default:"." help:"Docset directory to watch"`
	DryRun bool   `name:"dry-run" help:"Build and validate without writing output"`
	Output string `short:"o" type:"path" help:"Output directory, overriding output.path"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(w.Docset)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	builder := build.NewBuilder(build.WithRecorder(startMetrics(ctx, root.MetricsAddr)))
	defer func() { _ = builder.Close() }()
	return w.run(ctx, builder, cfg)
}

func (w *WatchCmd) run(ctx context.Context, service build.Service, cfg *config.Config) error {
	trigger, err := rebuild.New(service, rebuild.Config{
		Root:   w.Docset,
		Window: cfg.Watch.DebounceWindow(),
		Build:  build.Options{DryRun: w.DryRun, OutputDir: w.Output},
	})
	if err != nil {
		return err
	}
	watcher, err := watch.New(trigger.Root(), trigger, skipDirs(trigger.Root(), cfg, w.Output)...)
	if err != nil {
		return err
	}

	if interval := cfg.Watch.RefreshInterval(); interval > 0 {
		scheduler, err := watch.NewScheduler()
		if err != nil {
			_ = watcher.Close()
			return err
		}
		if _, err := scheduler.Every(interval, trigger); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("schedule refresh: %w", err)
		}
		scheduler.Start()
		defer func() {
			if err := scheduler.Stop(); err != nil {
				slog.Warn("Stopping scheduler failed", logfields.Error(err))
			}
		}()
	}

	trigger.Notify(startupSource)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return trigger.Run(gctx) })
	g.Go(func() error { return watcher.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		return watcher.Close()
	})
	return g.Wait()
}
