// Package registry implements the HTTP surface of the package registry:
// the streaming upload pipeline, downloads, version queries, ownership and
// token management.
package registry

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/depotworks/depot/pkg/errdefs"
)

// Config is the server configuration, read once at boot from the YAML file
// passed as the first argument of depotd.
type Config struct {
	// Hostname is the host:port the server listens on.
	Hostname string `yaml:"hostname"`
	// PackageFolder is the storage root for archives and auxiliary files.
	PackageFolder string `yaml:"package_folder"`
	// DatabaseURL is the PostgreSQL connection string. When empty the
	// server runs on the in-memory store, which is only useful for
	// development and tests.
	DatabaseURL string `yaml:"database_url"`
	// Keycloak carries the verification material for signed bearer tokens.
	Keycloak KeycloakConfig `yaml:"keycloak"`
	// LogPath enables JSON file logging when non-empty.
	LogPath string `yaml:"log_path,omitempty"`
}

// KeycloakConfig holds the PEM-encoded RSA public key used to verify RS256
// identity tokens. When empty, only local API tokens authenticate.
type KeycloakConfig struct {
	PEMContent string `yaml:"pem_content"`
}

// LoadConfig reads and parses the YAML config at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errdefs.NewE(errdefs.ErrInvalidParameter, err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errdefs.Newf(errdefs.ErrInvalidParameter, "parse config %s: %v", path, err)
	}
	if cfg.Hostname == "" {
		cfg.Hostname = "127.0.0.1:8080"
	}
	if cfg.PackageFolder == "" {
		cfg.PackageFolder = "packages"
	}
	return cfg, nil
}

// PublicKey parses the configured PEM content, returning nil when no key is
// configured.
func (c *Config) PublicKey() (*rsa.PublicKey, error) {
	if c.Keycloak.PEMContent == "" {
		return nil, nil
	}
	block, _ := pem.Decode([]byte(c.Keycloak.PEMContent))
	if block == nil {
		return nil, errdefs.Newf(errdefs.ErrInvalidParameter, "keycloak.pem_content is not PEM")
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, errdefs.Newf(errdefs.ErrInvalidParameter, "parse keycloak public key: %v", err)
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, errdefs.Newf(errdefs.ErrInvalidParameter, "keycloak public key is not RSA")
	}
	return key, nil
}
