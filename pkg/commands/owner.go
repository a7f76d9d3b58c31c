package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/depotworks/depot/pkg/cmdhelper"
	"github.com/depotworks/depot/pkg/commands/internal/options"
)

// NewOwnerCommand returns a command with default values.
func NewOwnerCommand() *OwnerCommand {
	return &OwnerCommand{}
}

// OwnerCommand groups the package ownership subcommands.
type OwnerCommand struct{}

// ToCLI transforms to a *cli.Command.
func (c *OwnerCommand) ToCLI() *cli.Command {
	return &cli.Command{
		Name:  "owner",
		Usage: "Manage the owners of a package",
		Commands: []*cli.Command{
			NewOwnerListCommand().ToCLI(),
			NewOwnerAddCommand().ToCLI(),
			NewOwnerRemoveCommand().ToCLI(),
		},
	}
}

// NewOwnerListCommand returns a command with default values.
func NewOwnerListCommand() *OwnerListCommand {
	return &OwnerListCommand{Common: options.NewCommon()}
}

// OwnerListCommand lists the owners of a package.
type OwnerListCommand struct {
	Common *options.Common
}

// ToCLI transforms to a *cli.Command.
func (c *OwnerListCommand) ToCLI() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Usage:     "List the owners of a package",
		ArgsUsage: "NAME",
		Flags:     c.Common.Flags(),
		Before:    cli.BeforeFunc(cmdhelper.ExactArgs(1)),
		Action:    c.Run,
	}
}

// Run is the main function for the current command.
func (c *OwnerListCommand) Run(ctx context.Context, cmd *cli.Command) error {
	api, _, err := c.Common.NewClient()
	if err != nil {
		return err
	}
	owners, err := api.ListOwners(ctx, cmd.Args().First())
	if err != nil {
		return err
	}
	for _, owner := range owners {
		cmdhelper.Fprintf(cmd.Writer, "%s", owner.Email)
	}
	return nil
}

// NewOwnerAddCommand returns a command with default values.
func NewOwnerAddCommand() *OwnerAddCommand {
	return &OwnerAddCommand{Common: options.NewCommon()}
}

// OwnerAddCommand grants ownership of a package.
type OwnerAddCommand struct {
	Common *options.Common
}

// ToCLI transforms to a *cli.Command.
func (c *OwnerAddCommand) ToCLI() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Add an owner to a package",
		ArgsUsage: "NAME EMAIL",
		Flags:     c.Common.Flags(),
		Before:    cli.BeforeFunc(cmdhelper.ExactArgs(2)),
		Action:    c.Run,
	}
}

// Run is the main function for the current command.
func (c *OwnerAddCommand) Run(ctx context.Context, cmd *cli.Command) error {
	api, _, err := c.Common.NewClient()
	if err != nil {
		return err
	}
	owner, err := api.AddOwner(ctx, cmd.Args().Get(0), cmd.Args().Get(1))
	if err != nil {
		return err
	}
	cmdhelper.Fprintf(cmd.Writer, "Added %s as an owner of %s", owner.Email, cmd.Args().Get(0))
	return nil
}

// NewOwnerRemoveCommand returns a command with default values.
func NewOwnerRemoveCommand() *OwnerRemoveCommand {
	return &OwnerRemoveCommand{Common: options.NewCommon()}
}

// OwnerRemoveCommand revokes ownership of a package.
type OwnerRemoveCommand struct {
	Common *options.Common
}

// ToCLI transforms to a *cli.Command.
func (c *OwnerRemoveCommand) ToCLI() *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Usage:     "Remove an owner from a package",
		ArgsUsage: "NAME EMAIL",
		Flags:     c.Common.Flags(),
		Before:    cli.BeforeFunc(cmdhelper.ExactArgs(2)),
		Action:    c.Run,
	}
}

// Run is the main function for the current command.
func (c *OwnerRemoveCommand) Run(ctx context.Context, cmd *cli.Command) error {
	api, _, err := c.Common.NewClient()
	if err != nil {
		return err
	}
	if err := api.RemoveOwner(ctx, cmd.Args().Get(0), cmd.Args().Get(1)); err != nil {
		return err
	}
	cmdhelper.Fprintf(cmd.Writer, "Removed %s from the owners of %s", cmd.Args().Get(1), cmd.Args().Get(0))
	return nil
}
