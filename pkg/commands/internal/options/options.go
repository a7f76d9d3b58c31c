// Package options defines flag groups shared by the depot commands.
package options

import (
	"github.com/urfave/cli/v3"

	"github.com/depotworks/depot/pkg/client"
)

// NewCommon returns Common with default values.
func NewCommon() *Common {
	return &Common{Registry: "default"}
}

// Common carries the flags every registry-facing command needs.
type Common struct {
	// Registry is the alias of the target registry in the client
	// configuration.
	Registry string
}

// Flags defines the flags related to the current options.
func (o *Common) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "registry",
			Aliases:     []string{"r"},
			Usage:       "registry alias from the client configuration",
			Value:       o.Registry,
			Destination: &o.Registry,
		},
	}
}

// NewClient resolves the configured endpoint and stored token of the
// selected registry into an API client.
func (o *Common) NewClient() (*client.Client, *client.Config, error) {
	cfg, path, err := client.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	reg, err := cfg.Registry(o.Registry)
	if err != nil {
		return nil, nil, err
	}
	tokens, err := client.LoadTokenStore(path)
	if err != nil {
		return nil, nil, err
	}
	c, err := client.New(reg.API, tokens.Get(o.Registry))
	if err != nil {
		return nil, nil, err
	}
	return c, cfg, nil
}

// TokenStore loads the token store beside the client configuration.
func (o *Common) TokenStore() (*client.TokenStore, error) {
	path, err := client.ConfigPath()
	if err != nil {
		return nil, err
	}
	return client.LoadTokenStore(path)
}
