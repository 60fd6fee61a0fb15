package commands

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"git.home.luguber.info/inful/docsetbuilder/internal/build"
	"git.home.luguber.info/inful/docsetbuilder/internal/docset"
	foundationerrors "git.home.luguber.info/inful/docsetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/docsetbuilder/internal/logfields"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Docsets []string `arg:"" optional:"" type:"path" default:"." help:"Docset directories to build"`
	DryRun  bool     `name:"dry-run" help:"Build and validate without writing output"`
	Legacy  bool     `help:"Also write the legacy output shape"`
	Output  string   `short:"o" type:"path" help:"Output directory, overriding output.path (single docset only)"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	if b.Output != "" && len(b.Docsets) > 1 {
		return foundationerrors.ValidationError("--output requires exactly one docset").Build()
	}
	ctx, cancel := signalContext()
	defer cancel()

	builder := build.NewBuilder(build.WithRecorder(startMetrics(ctx, root.MetricsAddr)))
	defer func() { _ = builder.Close() }()
	return b.run(ctx, builder)
}

// run builds every docset in turn. It fails if any docset failed.
func (b *BuildCmd) run(ctx context.Context, service build.Service) error {
	failed := 0
	for _, ds := range b.Docsets {
		var built atomic.Int64
		res, err := service.Run(ctx, ds, build.Options{
			DryRun:    b.DryRun,
			Legacy:    b.Legacy,
			OutputDir: b.Output,
			Progress:  func(docset.FileRef) { built.Add(1) },
		})
		switch {
		case errors.Is(err, context.Canceled):
			return err
		case err != nil:
			slog.Error("Build cycle aborted", logfields.Docset(ds), logfields.Error(err))
			failed++
		case !res.Success():
			failed++
		default:
			slog.Debug("Docset built", logfields.Docset(ds), logfields.Count(int(built.Load())))
		}
	}
	if failed > 0 {
		return foundationerrors.ErrBuildFailed
	}
	return nil
}
