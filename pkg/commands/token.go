package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/depotworks/depot/pkg/cmdhelper"
	"github.com/depotworks/depot/pkg/commands/internal/options"
)

// NewTokenCommand returns a command with default values.
func NewTokenCommand() *TokenCommand {
	return &TokenCommand{}
}

// TokenCommand groups the API token subcommands.
type TokenCommand struct{}

// ToCLI transforms to a *cli.Command.
func (c *TokenCommand) ToCLI() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Manage API tokens",
		Commands: []*cli.Command{
			NewTokenCreateCommand().ToCLI(),
			NewTokenListCommand().ToCLI(),
		},
	}
}

// NewTokenCreateCommand returns a command with default values.
func NewTokenCreateCommand() *TokenCreateCommand {
	return &TokenCreateCommand{Common: options.NewCommon()}
}

// TokenCreateCommand mints a new API token and optionally stores it for
// the selected registry.
type TokenCreateCommand struct {
	Common *options.Common
	Save   bool
}

// ToCLI transforms to a *cli.Command.
func (c *TokenCreateCommand) ToCLI() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create a new API token",
		UsageText: `depot token create [OPTIONS] NAME

# Mint a token and print it once
$ depot token create ci

# Mint a token and store it for the selected registry
$ depot token create --save ci
`,
		ArgsUsage: "NAME",
		Flags:     c.Flags(),
		Before:    cli.BeforeFunc(cmdhelper.ExactArgs(1)),
		Action:    c.Run,
	}
}

// Flags defines the flags related to the current command.
func (c *TokenCreateCommand) Flags() []cli.Flag {
	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "save",
			Usage:       "store the minted token for the selected registry",
			Destination: &c.Save,
		},
	}
	return append(flags, c.Common.Flags()...)
}

// Run is the main function for the current command.
func (c *TokenCreateCommand) Run(ctx context.Context, cmd *cli.Command) error {
	api, _, err := c.Common.NewClient()
	if err != nil {
		return err
	}
	row, err := api.CreateToken(ctx, cmd.Args().First())
	if err != nil {
		return err
	}
	if c.Save {
		store, err := c.Common.TokenStore()
		if err != nil {
			return err
		}
		store.Set(c.Common.Registry, row.Token)
		if err := store.Save(); err != nil {
			return err
		}
		cmdhelper.Fprintf(cmd.Writer, "Token %s created and stored for registry %s", row.Name, c.Common.Registry)
		return nil
	}
	// the bearer string is only revealed here
	cmdhelper.Fprintf(cmd.Writer, "%s", row.Token)
	return nil
}

// NewTokenListCommand returns a command with default values.
func NewTokenListCommand() *TokenListCommand {
	return &TokenListCommand{Common: options.NewCommon()}
}

// TokenListCommand lists the live tokens of the authenticated user.
type TokenListCommand struct {
	Common *options.Common
}

// ToCLI transforms to a *cli.Command.
func (c *TokenListCommand) ToCLI() *cli.Command {
	return &cli.Command{
		Name:   "list",
		Usage:  "List your API tokens",
		Flags:  c.Common.Flags(),
		Before: cli.BeforeFunc(cmdhelper.NoArgs()),
		Action: c.Run,
	}
}

// Run is the main function for the current command.
func (c *TokenListCommand) Run(ctx context.Context, cmd *cli.Command) error {
	api, _, err := c.Common.NewClient()
	if err != nil {
		return err
	}
	rows, err := api.ListTokens(ctx)
	if err != nil {
		return err
	}
	for _, row := range rows {
		cmdhelper.Fprintf(cmd.Writer, "%s\t%s", row.Name, row.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}
