// Package commands implements the docsetbuilder command line.
package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docsetbuilder/internal/config"
	"git.home.luguber.info/inful/docsetbuilder/internal/metrics"
)

// logLevelEnv overrides the log level selected by --verbose.
const logLevelEnv = "DOCSETBUILDER_LOG_LEVEL"

// Global carries state shared by all subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Verbose     bool             `short:"v" help:"Enable verbose logging"`
	MetricsAddr string           `name:"metrics-addr" help:"Serve Prometheus metrics on this address (watch and serve only)" placeholder:"HOST:PORT"`
	Version     kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd `cmd:"" help:"Build one or more docsets"`
	Watch WatchCmd `cmd:"" help:"Rebuild a docset whenever its files change"`
	Serve ServeCmd `cmd:"" help:"Serve diagnostics to an editor over stdio"`
	Init  InitCmd  `cmd:"" help:"Write a default configuration file"`
}

// AfterApply runs after flag parsing; setup logging once. Logs always go to
// stderr because serve owns stdout.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)}))
	slog.SetDefault(logger)
	return nil
}

func parseLogLevel(verbose bool) slog.Level {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	if env := strings.TrimSpace(os.Getenv(logLevelEnv)); env != "" {
		var parsed slog.Level
		if err := parsed.UnmarshalText([]byte(env)); err == nil {
			level = parsed
		}
	}
	return level
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// startMetrics serves a Prometheus registry on addr until ctx is done. An
// empty addr yields a recorder that discards everything.
func startMetrics(ctx context.Context, addr string) metrics.Recorder {
	if addr == "" {
		return metrics.NoopRecorder{}
	}
	reg := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(reg)
	metrics.Serve(ctx, addr, reg)
	return recorder
}

// skipDirs returns the output and cache directories of cfg that lie inside
// root, relative to it.
func skipDirs(root string, cfg *config.Config, outputOverride string) []string {
	output := outputOverride
	if output == "" {
		output = cfg.Output.Path
	}
	var out []string
	for _, d := range []string{output, cfg.Cache.Dir} {
		if d == "" {
			continue
		}
		if !filepath.IsAbs(d) {
			d = filepath.Join(root, d)
		}
		rel, err := filepath.Rel(root, d)
		if err != nil || !filepath.IsLocal(rel) {
			continue
		}
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}
