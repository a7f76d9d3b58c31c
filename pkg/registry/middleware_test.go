package registry_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/depotworks/depot/pkg/database"
	"github.com/depotworks/depot/pkg/registry"
)

func newSignedServer(t *testing.T) (*testServer, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pemContent := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))

	ts := newTestServer(t, &registry.Config{
		Hostname: "127.0.0.1:0",
		Keycloak: registry.KeycloakConfig{PEMContent: pemContent},
	})
	return ts, key
}

func signIdentity(t *testing.T, key *rsa.PrivateKey, sub, name, email string) string {
	t.Helper()
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.RS256, Key: key}, nil)
	require.NoError(t, err)
	raw, err := jwt.Signed(signer).Claims(map[string]any{
		"sub":   sub,
		"name":  name,
		"email": email,
	}).Serialize()
	require.NoError(t, err)
	return raw
}

func TestSignedTokenAuthentication(t *testing.T) {
	ts, key := newSignedServer(t)
	token := signIdentity(t, key, "user-1", "Alice", "Alice@Example.SE")

	w := ts.upload(t, token, "x", "1.0.0", []byte("bytes"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// the claimed email, lowercased, became the initial owner
	w = ts.do(t, http.MethodGet, "/api/v1/package/x/owner", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var owners []database.Owner
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &owners))
	require.Len(t, owners, 1)
	assert.Equal(t, "alice@example.se", owners[0].Email)
}

func TestSignedTokenWrongKeyRejected(t *testing.T) {
	ts, _ := newSignedServer(t)
	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	token := signIdentity(t, otherKey, "user-1", "Mallory", "m@example.se")

	w := ts.upload(t, token, "x", "1.0.0", []byte("bytes"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token validation failed")
}

func TestSignedServerStillAcceptsLocalTokens(t *testing.T) {
	ts, _ := newSignedServer(t)
	token := ts.mintToken(t, "u1", "a@b.se")

	w := ts.upload(t, token, "x", "1.0.0", []byte("bytes"))
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestMissingAuthorizationHeader(t *testing.T) {
	ts := newTestServer(t, nil)
	w := ts.do(t, http.MethodGet, "/api/v1/token", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token missing")
}

func TestNonBearerAuthorizationHeader(t *testing.T) {
	ts := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/token", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	w := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "bearer")
}
