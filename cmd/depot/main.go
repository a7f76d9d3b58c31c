// Package main is the entry of the application.
package main

import (
	"context"
	"errors"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/depotworks/depot/pkg/cmdhelper"
	"github.com/depotworks/depot/pkg/commands"
	"github.com/depotworks/depot/pkg/errdefs"
)

func main() {
	app := cli.Command{
		Name:                  "depot",
		Usage:                 "depot publishes and fetches packages from a package registry",
		Suggest:               true,
		EnableShellCompletion: true,
		HideVersion:           true,
		HideHelpCommand:       true,
		Commands: []*cli.Command{
			commands.NewVersionCommand().ToCLI(),
			commands.NewPublishCommand().ToCLI(),
			commands.NewFetchCommand().ToCLI(),
			commands.NewYankCommand().ToCLI(),
			commands.NewOwnerCommand().ToCLI(),
			commands.NewTokenCommand().ToCLI(),
		},
		ExitErrHandler: func(ctx context.Context, c *cli.Command, err error) {
			cli.HandleExitCoder(err)
			cmdhelper.Fprintf(c.ErrWriter, "Error: %v\n", err)
			os.Exit(exitCode(err))
		},
	}
	//nolint:errcheck // already checked in root command ExitErrHandler
	_ = app.Run(context.Background(), os.Args)
}

// exitCode maps infrastructural failures to 2 and everything the user can
// fix to 1.
func exitCode(err error) int {
	if errors.Is(err, errdefs.ErrSystem) || errors.Is(err, errdefs.ErrUnavailable) {
		return 2
	}
	return 1
}
