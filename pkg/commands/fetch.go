package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/depotworks/depot/pkg/client"
	"github.com/depotworks/depot/pkg/cmdhelper"
	"github.com/depotworks/depot/pkg/commands/internal/options"
	"github.com/depotworks/depot/pkg/errdefs"
)

// NewFetchCommand returns a command with default values.
func NewFetchCommand() *FetchCommand {
	return &FetchCommand{
		Common:      options.NewCommon(),
		Requirement: "*",
		Unpack:      string(client.LevelRegular),
	}
}

// FetchCommand downloads a package version into the download path.
type FetchCommand struct {
	Common      *options.Common
	Requirement string
	Unpack      string
}

// ToCLI transforms to a *cli.Command.
func (c *FetchCommand) ToCLI() *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Download the latest package version matching a requirement",
		UsageText: `depot fetch [OPTIONS] NAME

# Fetch the latest version of a package
$ depot fetch my-package

# Fetch the newest 1.x release without unpacking
$ depot fetch --requirement "^1" --unpack raw my-package
`,
		ArgsUsage: "NAME",
		Flags:     c.Flags(),
		Before:    cli.BeforeFunc(cmdhelper.ExactArgs(1)),
		Action:    c.Run,
	}
}

// Flags defines the flags related to the current command.
func (c *FetchCommand) Flags() []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "requirement",
			Aliases:     []string{"q"},
			Usage:       "version requirement expression, e.g. \"*\", \"^1.2\" or \">=2\"",
			Value:       c.Requirement,
			Destination: &c.Requirement,
		},
		&cli.StringFlag{
			Name:        "unpack",
			Aliases:     []string{"u"},
			Usage:       "unpack level, one of raw, uncompressed or regular",
			Value:       c.Unpack,
			Destination: &c.Unpack,
		},
	}
	return append(flags, c.Common.Flags()...)
}

// Run is the main function for the current command.
func (c *FetchCommand) Run(ctx context.Context, cmd *cli.Command) error {
	level, err := client.ParseUnpackLevel(c.Unpack)
	if err != nil {
		return err
	}
	api, cfg, err := c.Common.NewClient()
	if err != nil {
		return err
	}
	if cfg.Package.DownloadPath == "" {
		return errdefs.Newf(errdefs.ErrInvalidParameter,
			"package.download_path is not set in the client configuration")
	}
	dest, err := client.Fetch(ctx, api, cfg.Package.DownloadPath, cmd.Args().First(), c.Requirement, level)
	if err != nil {
		return err
	}
	cmdhelper.Fprintf(cmd.Writer, "Fetched %s to %s", cmd.Args().First(), dest)
	return nil
}
