// Package main is the entry of the application.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/depotworks/depot/pkg/cmdhelper"
	"github.com/depotworks/depot/pkg/commands"
	"github.com/depotworks/depot/pkg/commands/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := cli.Command{
		Name:            "depotd",
		Usage:           "depotd serves the package registry",
		Suggest:         true,
		HideVersion:     true,
		HideHelpCommand: true,
		Commands: []*cli.Command{
			commands.NewVersionCommand().ToCLI(),
			server.New().ToCLI(),
		},
		// a bare config path starts the server, matching `depotd config.yml`
		DefaultCommand: "server",
		ExitErrHandler: func(ctx context.Context, c *cli.Command, err error) {
			cli.HandleExitCoder(err)
			cmdhelper.Fprintf(c.ErrWriter, "Error: %v\n", err)
			os.Exit(1)
		},
	}
	//nolint:errcheck // already checked in root command ExitErrHandler
	_ = app.Run(ctx, os.Args)
}
