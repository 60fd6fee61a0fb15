package commands

import (
	"log/slog"
	"os"

	"git.home.luguber.info/inful/docsetbuilder/internal/build"
	"git.home.luguber.info/inful/docsetbuilder/internal/config"
	"git.home.luguber.info/inful/docsetbuilder/internal/editor"
	"git.home.luguber.info/inful/docsetbuilder/internal/logfields"
	"git.home.luguber.info/inful/docsetbuilder/internal/rebuild"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Docset string `arg:"" optional:"" type:"path" default:"." help:"Docset directory to serve"`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	// An invalid configuration is reported to the editor by the cycles
	// themselves, so only the debounce window depends on it here.
	window := rebuild.DefaultWindow
	if cfg, err := config.Load(s.Docset); err == nil {
		window = cfg.Watch.DebounceWindow()
	} else {
		slog.Warn("Using default debounce window", logfields.Error(err))
	}

	ctx, cancel := signalContext()
	defer cancel()

	recorder := startMetrics(ctx, root.MetricsAddr)
	builder := build.NewBuilder(build.WithRecorder(recorder), build.WithSummaryWriter(nil))
	defer func() { _ = builder.Close() }()

	srv, err := editor.NewServer(os.Stdin, os.Stdout, builder, editor.Options{
		Root:     s.Docset,
		Window:   window,
		Recorder: recorder,
	})
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
