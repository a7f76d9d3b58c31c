package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/depotworks/depot/pkg/cmdhelper"
	"github.com/depotworks/depot/pkg/commands/internal/options"
)

// NewYankCommand returns a command with default values.
func NewYankCommand() *YankCommand {
	return &YankCommand{Common: options.NewCommon()}
}

// YankCommand hides or restores a published version.
type YankCommand struct {
	Common *options.Common
	Undo   bool
}

// ToCLI transforms to a *cli.Command.
func (c *YankCommand) ToCLI() *cli.Command {
	return &cli.Command{
		Name:  "yank",
		Usage: "Yank a published version so requirement queries skip it",
		UsageText: `depot yank [OPTIONS] NAME VERSION

# Yank a version
$ depot yank my-package 1.0.3

# Restore it
$ depot yank --undo my-package 1.0.3
`,
		ArgsUsage: "NAME VERSION",
		Flags:     c.Flags(),
		Before:    cli.BeforeFunc(cmdhelper.ExactArgs(2)),
		Action:    c.Run,
	}
}

// Flags defines the flags related to the current command.
func (c *YankCommand) Flags() []cli.Flag {
	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "undo",
			Usage:       "restore a previously yanked version",
			Destination: &c.Undo,
		},
	}
	return append(flags, c.Common.Flags()...)
}

// Run is the main function for the current command.
func (c *YankCommand) Run(ctx context.Context, cmd *cli.Command) error {
	api, _, err := c.Common.NewClient()
	if err != nil {
		return err
	}
	name, version := cmd.Args().Get(0), cmd.Args().Get(1)
	row, err := api.Yank(ctx, name, version, !c.Undo)
	if err != nil {
		return err
	}
	if row.IsYanked {
		cmdhelper.Fprintf(cmd.Writer, "Yanked %s %s", name, row.Version)
	} else {
		cmdhelper.Fprintf(cmd.Writer, "Restored %s %s", name, row.Version)
	}
	return nil
}
