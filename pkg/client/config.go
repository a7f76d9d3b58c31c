// Package client implements the registry API consumer behind the depot CLI:
// configuration, token storage, the HTTP client and the publish and fetch
// workflows.
package client

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/depotworks/depot/pkg/errdefs"
)

// ConfigEnv names the environment variable locating the client
// configuration file.
const ConfigEnv = "DEPOT_CONFIG"

// Config is the client configuration, TOML-encoded at the path named by
// ConfigEnv.
type Config struct {
	// Registries maps a registry alias to its endpoint.
	Registries map[string]Registry `toml:"registries"`
	// Package holds the local package settings.
	Package PackageConfig `toml:"package"`
}

// Registry is one configured registry endpoint.
type Registry struct {
	// API is the base URL of the registry, e.g. "http://localhost:8080".
	API string `toml:"api"`
}

// PackageConfig holds the local download settings.
type PackageConfig struct {
	// DownloadPath is the directory fetched packages are placed under.
	DownloadPath string `toml:"download_path"`
}

// ConfigPath resolves the configuration file location from the environment.
func ConfigPath() (string, error) {
	path := os.Getenv(ConfigEnv)
	if path == "" {
		return "", errdefs.Newf(errdefs.ErrInvalidParameter,
			"%s is not set, point it at the client configuration file", ConfigEnv)
	}
	return path, nil
}

// LoadConfig reads the configuration file named by ConfigEnv and returns it
// together with its path.
func LoadConfig() (*Config, string, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, "", err
	}
	cfg, err := LoadConfigFile(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// LoadConfigFile reads and parses the configuration at path.
func LoadConfigFile(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, errdefs.Newf(errdefs.ErrInvalidParameter, "read client config %s: %v", path, err)
	}
	return cfg, nil
}

// Registry resolves a configured registry by alias.
func (c *Config) Registry(alias string) (Registry, error) {
	reg, ok := c.Registries[alias]
	if !ok {
		return Registry{}, errdefs.Newf(errdefs.ErrNotFound, "registry %q is not configured", alias)
	}
	if reg.API == "" {
		return Registry{}, errdefs.Newf(errdefs.ErrInvalidParameter, "registry %q has no api url", alias)
	}
	return reg, nil
}
