package client

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/depotworks/depot/pkg/errdefs"
)

// TokenFilename is the name of the bearer-token store, kept beside the
// client configuration file.
const TokenFilename = "tokens.store"

// TokenStore maps registry aliases to their bearer tokens. The file is kept
// owner-readable only.
type TokenStore struct {
	path string

	Tokens map[string]string `toml:"tokens"`
}

// LoadTokenStore reads the token store living beside the configuration file
// at configPath. A missing store file yields an empty store.
func LoadTokenStore(configPath string) (*TokenStore, error) {
	path := filepath.Join(filepath.Dir(configPath), TokenFilename)
	store := &TokenStore{path: path, Tokens: map[string]string{}}
	if _, err := toml.DecodeFile(path, store); err != nil {
		if os.IsNotExist(err) {
			return store, nil
		}
		return nil, errdefs.Newf(errdefs.ErrInvalidParameter, "read token store %s: %v", path, err)
	}
	if store.Tokens == nil {
		store.Tokens = map[string]string{}
	}
	return store, nil
}

// Get returns the stored token for a registry alias, or "".
func (s *TokenStore) Get(alias string) string {
	return s.Tokens[alias]
}

// Set records a token for a registry alias. Save persists it.
func (s *TokenStore) Set(alias, token string) {
	s.Tokens[alias] = token
}

// Save writes the store back to disk with owner-only permissions.
func (s *TokenStore) Save() error {
	buf := &bytes.Buffer{}
	if err := toml.NewEncoder(buf).Encode(s); err != nil {
		return errdefs.NewE(errdefs.ErrSystem, err)
	}
	if err := os.WriteFile(s.path, buf.Bytes(), 0o600); err != nil {
		return errdefs.NewE(errdefs.ErrSystem, err)
	}
	return nil
}
