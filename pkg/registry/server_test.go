package registry_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/depotworks/depot/pkg/database"
	"github.com/depotworks/depot/pkg/registry"
	"github.com/depotworks/depot/pkg/storage"
	"github.com/depotworks/depot/pkg/wire"
)

type testServer struct {
	server *registry.Server
	store  *database.MemStore
}

func newTestServer(t *testing.T, cfg *registry.Config) *testServer {
	t.Helper()
	if cfg == nil {
		cfg = &registry.Config{Hostname: "127.0.0.1:0"}
	}
	store := database.NewMemStore()
	st := storage.NewWithFs(afero.NewMemMapFs(), "/var/depot")
	server, err := registry.New(cfg, store, st)
	require.NoError(t, err)
	return &testServer{server: server, store: store}
}

func (ts *testServer) mintToken(t *testing.T, userID, email string) string {
	t.Helper()
	row, err := ts.store.CreateToken(context.Background(), "test", userID, email)
	require.NoError(t, err)
	return row.Token
}

func (ts *testServer) do(t *testing.T, method, path, token string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(w, req)
	return w
}

func manifestText(name, version string) []byte {
	return []byte(fmt.Sprintf("[package]\nname = %q\nversion = %q\nlicense = \"MIT\"\n\n[content]\ntype = \"vm\"\n", name, version))
}

func sha256hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// frameUpload builds a complete framed upload body.
func frameUpload(t *testing.T, metadata *wire.PackageMetadata, manifest, readme, archive []byte) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	enc := wire.NewEncoder(buf)
	require.NoError(t, enc.WriteMetadata(metadata))
	require.NoError(t, enc.WriteFileBytes(manifest))
	require.NoError(t, enc.WriteFileBytes(readme))
	require.NoError(t, enc.WriteFileBytes(archive))
	return buf
}

// upload publishes a version built from synthetic archive bytes and returns
// the response.
func (ts *testServer) upload(t *testing.T, token, name, version string, archive []byte) *httptest.ResponseRecorder {
	t.Helper()
	body := frameUpload(t, &wire.PackageMetadata{
		Name:     name,
		Version:  version,
		Checksum: sha256hex(archive),
		Size:     uint64(len(archive)),
	}, manifestText(name, version), []byte("# readme"), archive)
	return ts.do(t, http.MethodPut, "/api/v1/package", token, body)
}

func TestStatusAndVersionRoutes(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodGet, "/api/v1/status", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/version", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Body.String())
}

func TestListPackagesPagination(t *testing.T) {
	ts := newTestServer(t, nil)
	token := ts.mintToken(t, "u1", "a@b.se")
	for _, name := range []string{"alpha", "bravo", "charlie"} {
		w := ts.upload(t, token, name, "1.0.0", []byte(name))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := ts.do(t, http.MethodGet, "/api/v1/package?page=1&per_page=2", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var page struct {
		Packages   []database.Package `json:"packages"`
		TotalPages int                `json:"total_pages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Len(t, page.Packages, 2)
	assert.Equal(t, 2, page.TotalPages)

	w = ts.do(t, http.MethodGet, "/api/v1/package?page=zero", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequirementListingSkipsYanked(t *testing.T) {
	ts := newTestServer(t, nil)
	token := ts.mintToken(t, "u1", "a@b.se")
	require.Equal(t, http.StatusOK, ts.upload(t, token, "x", "1.0.0", []byte("one")).Code)
	require.Equal(t, http.StatusOK, ts.upload(t, token, "x", "1.1.0", []byte("two")).Code)

	w := ts.do(t, http.MethodPut, "/api/v1/package/x/1.1.0/yank/true", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(t, http.MethodGet, "/api/v1/package/x?version_requirement=*", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var row database.Version
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &row))
	assert.Equal(t, "1.0.0", row.Version)

	// un-yank restores the later version
	w = ts.do(t, http.MethodPut, "/api/v1/package/x/1.1.0/yank/false", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = ts.do(t, http.MethodGet, "/api/v1/package/x?version_requirement=*", "", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &row))
	assert.Equal(t, "1.1.0", row.Version)
}

func TestRequirementWithNoMatch(t *testing.T) {
	ts := newTestServer(t, nil)
	token := ts.mintToken(t, "u1", "a@b.se")
	require.Equal(t, http.StatusOK, ts.upload(t, token, "x", "1.0.0", []byte("one")).Code)

	w := ts.do(t, http.MethodGet, "/api/v1/package/x?version_requirement=%3E%3D2", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVersionListingExcludesYanked(t *testing.T) {
	ts := newTestServer(t, nil)
	token := ts.mintToken(t, "u1", "a@b.se")
	require.Equal(t, http.StatusOK, ts.upload(t, token, "x", "1.0.0", []byte("one")).Code)
	require.Equal(t, http.StatusOK, ts.upload(t, token, "x", "1.1.0", []byte("two")).Code)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPut, "/api/v1/package/x/1.0.0/yank/true", token, nil).Code)

	w := ts.do(t, http.MethodGet, "/api/v1/package/x", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rows []database.Version
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "1.1.0", rows[0].Version)
}

func TestVersionDetail(t *testing.T) {
	ts := newTestServer(t, nil)
	token := ts.mintToken(t, "u1", "a@b.se")
	archive := []byte("detail-bytes")
	require.Equal(t, http.StatusOK, ts.upload(t, token, "x", "1.0.0", archive).Code)

	w := ts.do(t, http.MethodGet, "/api/v1/package/x/1.0.0", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var row database.Version
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &row))
	assert.Equal(t, sha256hex(archive), row.Checksum)
	assert.Equal(t, uint64(len(archive)), row.Size)

	w = ts.do(t, http.MethodGet, "/api/v1/package/x/9.9.9", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnauthenticatedYank(t *testing.T) {
	ts := newTestServer(t, nil)
	token := ts.mintToken(t, "u1", "a@b.se")
	require.Equal(t, http.StatusOK, ts.upload(t, token, "x", "1.0.0", []byte("one")).Code)

	w := ts.do(t, http.MethodPut, "/api/v1/package/x/1.0.0/yank/true", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestYankRequiresOwnership(t *testing.T) {
	ts := newTestServer(t, nil)
	owner := ts.mintToken(t, "u1", "a@b.se")
	stranger := ts.mintToken(t, "u2", "c@d.se")
	require.Equal(t, http.StatusOK, ts.upload(t, owner, "x", "1.0.0", []byte("one")).Code)

	w := ts.do(t, http.MethodPut, "/api/v1/package/x/1.0.0/yank/true", stranger, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "not an owner")
}

func TestOwnerLifecycle(t *testing.T) {
	ts := newTestServer(t, nil)
	token := ts.mintToken(t, "u1", "a@b.se")
	require.Equal(t, http.StatusOK, ts.upload(t, token, "x", "1.0.0", []byte("one")).Code)

	// uploader became the initial owner; the listing is public
	w := ts.do(t, http.MethodGet, "/api/v1/package/x/owner", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var owners []database.Owner
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &owners))
	require.Len(t, owners, 1)
	assert.Equal(t, "a@b.se", owners[0].Email)

	// removing the sole owner is refused
	w = ts.do(t, http.MethodDelete, "/api/v1/package/x/owner/a@b.se", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "last owner")

	w = ts.do(t, http.MethodPost, "/api/v1/package/x/owner?email=C@D.se", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(t, http.MethodGet, "/api/v1/package/x/owner", "", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &owners))
	assert.Len(t, owners, 2)

	w = ts.do(t, http.MethodDelete, "/api/v1/package/x/owner/a@b.se", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(t, http.MethodGet, "/api/v1/package/x/owner", "", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &owners))
	require.Len(t, owners, 1)
	assert.Equal(t, "c@d.se", owners[0].Email)
}

func TestAddOwnerRequiresEmail(t *testing.T) {
	ts := newTestServer(t, nil)
	token := ts.mintToken(t, "u1", "a@b.se")
	require.Equal(t, http.StatusOK, ts.upload(t, token, "x", "1.0.0", []byte("one")).Code)

	w := ts.do(t, http.MethodPost, "/api/v1/package/x/owner", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTokenRoutes(t *testing.T) {
	ts := newTestServer(t, nil)
	token := ts.mintToken(t, "u1", "a@b.se")

	w := ts.do(t, http.MethodPost, "/api/v1/token", token, strings.NewReader(`{"name":"ci"}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var created database.ApiToken
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "ci", created.Name)
	assert.NotEmpty(t, created.Token)

	// the minted token authenticates
	w = ts.do(t, http.MethodGet, "/api/v1/token", created.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []database.ApiToken
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 2)
	for _, row := range listed {
		assert.Empty(t, row.Token)
	}

	w = ts.do(t, http.MethodPost, "/api/v1/token", token, strings.NewReader(`{}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/token", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
