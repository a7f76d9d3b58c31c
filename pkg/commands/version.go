// Package commands implements the subcommands of the depot CLI.
package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/depotworks/depot/pkg/appinfo"
)

// NewVersionCommand returns a command with default values.
func NewVersionCommand() *VersionCommand {
	return &VersionCommand{Format: "text"}
}

// VersionCommand prints the client build information.
type VersionCommand struct {
	Format string
}

// ToCLI transforms to a *cli.Command.
func (c *VersionCommand) ToCLI() *cli.Command {
	return &cli.Command{
		Name:   "version",
		Usage:  "Show the depot version information",
		Flags:  c.Flags(),
		Action: c.Run,
	}
}

// Flags defines the flags related to the current command.
func (c *VersionCommand) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "output format, one of text, json or yaml",
			Value:       c.Format,
			Destination: &c.Format,
		},
	}
}

// Run is the main function for the current command.
func (c *VersionCommand) Run(_ context.Context, cmd *cli.Command) error {
	return appinfo.GetVersion().Write(cmd.Writer, c.Format)
}
