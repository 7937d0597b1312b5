package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"github.com/bookforge/bookforge/cmd/bookforge/commands"
	"github.com/bookforge/bookforge/internal/errors"
	"github.com/bookforge/bookforge/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("bookforge"),
		kong.Description("Build a Markdown book into JSON, PDF, HTML and EPUB outputs with pandoc."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)

	err := ctx.Run(&commands.Global{Logger: slog.Default()}, &cli)
	errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
