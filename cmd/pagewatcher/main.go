package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/pagewatcher/cmd/pagewatcher/commands"
	ferrors "git.home.luguber.info/inful/pagewatcher/internal/foundation/errors"
	"git.home.luguber.info/inful/pagewatcher/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("pagewatcher"),
		kong.Description("Watch web pages for reservation availability changes and notify."),
		kong.Vars{"version": version.String()},
		kong.UsageOnError(),
	)

	global := &commands.Global{Logger: slog.Default()}
	if err := parser.Run(global, cli); err != nil {
		os.Exit(ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).Handle(err))
	}
}
