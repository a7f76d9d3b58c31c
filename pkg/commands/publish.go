package commands

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/depotworks/depot/pkg/client"
	"github.com/depotworks/depot/pkg/cmdhelper"
	"github.com/depotworks/depot/pkg/commands/internal/options"
)

// NewPublishCommand returns a command with default values.
func NewPublishCommand() *PublishCommand {
	return &PublishCommand{Common: options.NewCommon()}
}

// PublishCommand builds and uploads the package in or above the working
// directory.
type PublishCommand struct {
	Common *options.Common
}

// ToCLI transforms to a *cli.Command.
func (c *PublishCommand) ToCLI() *cli.Command {
	return &cli.Command{
		Name:  "publish",
		Usage: "Build and upload the package of the current project",
		UsageText: `depot publish [OPTIONS] [PATH]

# Publish the project in the working directory
$ depot publish

# Publish a project elsewhere
$ depot publish ~/projects/my-package
`,
		ArgsUsage: "[PATH]",
		Flags:     c.Flags(),
		Action:    c.Run,
	}
}

// Flags defines the flags related to the current command.
func (c *PublishCommand) Flags() []cli.Flag {
	return c.Common.Flags()
}

// Run is the main function for the current command.
func (c *PublishCommand) Run(ctx context.Context, cmd *cli.Command) error {
	start := cmd.Args().First()
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		start = wd
	}
	api, _, err := c.Common.NewClient()
	if err != nil {
		return err
	}
	metadata, err := client.Publish(ctx, api, start)
	if err != nil {
		return err
	}
	cmdhelper.Fprintf(cmd.Writer, "Published %s %s (%d bytes, sha256 %s)",
		metadata.Name, metadata.Version, metadata.Size, metadata.Checksum)
	return nil
}
