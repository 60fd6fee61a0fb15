package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docsetbuilder/cmd/docsetbuilder/commands"
	foundationerrors "git.home.luguber.info/inful/docsetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/docsetbuilder/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("docsetbuilder"),
		kong.Description("Build documentation sets and report their diagnostics."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)
	err := parser.Run(&commands.Global{Logger: slog.Default()}, cli)
	foundationerrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
