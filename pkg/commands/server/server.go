// Package server implements the depotd server command.
package server

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/depotworks/depot/pkg/cmdhelper"
	"github.com/depotworks/depot/pkg/database"
	"github.com/depotworks/depot/pkg/database/postgres"
	"github.com/depotworks/depot/pkg/registry"
	"github.com/depotworks/depot/pkg/storage"
	"github.com/depotworks/depot/pkg/xlog"
)

// New creates a new Command.
func New() *Command {
	return NewCommand()
}

// NewCommand returns a command with default values.
func NewCommand() *Command {
	return &Command{}
}

// Command starts the registry server from a YAML configuration file.
type Command struct {
	Debug bool
}

// ToCLI transforms to a *cli.Command.
func (c *Command) ToCLI() *cli.Command {
	return &cli.Command{
		Name:    "server",
		Aliases: []string{"srv"},
		Usage:   "Start the registry server",
		UsageText: `depotd server [OPTIONS] CONFIG

# Start the registry with a configuration file
$ depotd server /etc/depot/config.yml
`,
		ArgsUsage: "CONFIG",
		Flags:     c.Flags(),
		Before:    cli.BeforeFunc(cmdhelper.ExactArgs(1)),
		Action:    c.Run,
	}
}

// Flags defines the flags related to the current command.
func (c *Command) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging",
			Destination: &c.Debug,
		},
	}
}

// Run is the main function for the current command.
func (c *Command) Run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := registry.LoadConfig(cmd.Args().First())
	if err != nil {
		return err
	}

	logConfig := xlog.NewConfig()
	if c.Debug {
		logConfig.Level = slog.LevelDebug
	}
	logConfig.Path = cfg.LogPath
	xlog.SetDefault(xlog.New(logConfig))

	var store database.Store
	if cfg.DatabaseURL == "" {
		xlog.C(ctx).Warn("database_url is empty, using the in-memory store; state is lost on restart")
		store = database.NewMemStore()
	} else {
		pg, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		store = pg
	}
	defer store.Close(context.Background())

	server, err := registry.New(cfg, store, storage.New(cfg.PackageFolder))
	if err != nil {
		return err
	}
	cmdhelper.Fprintf(cmd.Writer, "Registry listening at http://%s", cfg.Hostname)
	return server.Run(ctx)
}
