package registry_test

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/depotworks/depot/pkg/wire"
)

func TestUploadDownloadRoundTrip(t *testing.T) {
	ts := newTestServer(t, nil)
	token := ts.mintToken(t, "u1", "a@b.se")
	archive := []byte("the archive payload of some-package-name")

	w := ts.upload(t, token, "some-package-name", "0.1.0", archive)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(t, http.MethodGet, "/api/v1/package/some-package-name/0.1.0/download", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/octet-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, sha256hex(archive), sha256hex(w.Body.Bytes()))
}

func TestUploadRequiresToken(t *testing.T) {
	ts := newTestServer(t, nil)
	w := ts.upload(t, "", "x", "1.0.0", []byte("bytes"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token missing")

	w = ts.upload(t, "not-a-known-token", "x", "1.0.0", []byte("bytes"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUploadDuplicateVersionConflicts(t *testing.T) {
	ts := newTestServer(t, nil)
	token := ts.mintToken(t, "u1", "a@b.se")
	require.Equal(t, http.StatusOK, ts.upload(t, token, "x", "1.0.0", []byte("one")).Code)

	w := ts.upload(t, token, "x", "1.0.0", []byte("one"))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "1.0.0")
}

func TestUploadMustBeStrictlyGreater(t *testing.T) {
	ts := newTestServer(t, nil)
	token := ts.mintToken(t, "u1", "a@b.se")
	require.Equal(t, http.StatusOK, ts.upload(t, token, "x", "2.0.0", []byte("two")).Code)

	w := ts.upload(t, token, "x", "1.5.0", []byte("older"))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "2.0.0")
}

func TestUploadYankedVersionStillBlocks(t *testing.T) {
	ts := newTestServer(t, nil)
	token := ts.mintToken(t, "u1", "a@b.se")
	require.Equal(t, http.StatusOK, ts.upload(t, token, "x", "1.0.0", []byte("one")).Code)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPut, "/api/v1/package/x/1.0.0/yank/true", token, nil).Code)

	w := ts.upload(t, token, "x", "1.0.0", []byte("replay"))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUploadRejectsInvalidMetadata(t *testing.T) {
	ts := newTestServer(t, nil)
	token := ts.mintToken(t, "u1", "a@b.se")

	body := frameUpload(t, &wire.PackageMetadata{
		Name: "bad name!", Version: "1.0.0", Checksum: sha256hex(nil), Size: 0,
	}, manifestText("bad name!", "1.0.0"), nil, nil)
	w := ts.do(t, http.MethodPut, "/api/v1/package", token, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body = frameUpload(t, &wire.PackageMetadata{
		Name: "x", Version: "not-semver", Checksum: sha256hex(nil), Size: 0,
	}, manifestText("x", "not-semver"), nil, nil)
	w = ts.do(t, http.MethodPut, "/api/v1/package", token, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "semantic versioning")
}

func TestUploadRejectsManifestWithoutRequiredAssets(t *testing.T) {
	ts := newTestServer(t, nil)
	token := ts.mintToken(t, "u1", "a@b.se")
	archive := []byte("bytes")
	manifest := []byte("[package]\nname = \"x\"\nversion = \"1.0.0\"\nlicense = \"MIT\"\n\n[content]\ntype = \"feature\"\n")

	body := frameUpload(t, &wire.PackageMetadata{
		Name: "x", Version: "1.0.0", Checksum: sha256hex(archive), Size: uint64(len(archive)),
	}, manifest, nil, archive)
	w := ts.do(t, http.MethodPut, "/api/v1/package", token, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Assets are required")
}

func TestUploadRejectsMetadataManifestMismatch(t *testing.T) {
	ts := newTestServer(t, nil)
	token := ts.mintToken(t, "u1", "a@b.se")
	archive := []byte("bytes")

	body := frameUpload(t, &wire.PackageMetadata{
		Name: "x", Version: "1.0.0", Checksum: sha256hex(archive), Size: uint64(len(archive)),
	}, manifestText("y", "1.0.0"), nil, archive)
	w := ts.do(t, http.MethodPut, "/api/v1/package", token, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadRejectsChecksumMismatch(t *testing.T) {
	ts := newTestServer(t, nil)
	token := ts.mintToken(t, "u1", "a@b.se")
	archive := []byte("bytes")

	body := frameUpload(t, &wire.PackageMetadata{
		Name: "x", Version: "1.0.0", Checksum: sha256hex([]byte("other")), Size: uint64(len(archive)),
	}, manifestText("x", "1.0.0"), nil, archive)
	w := ts.do(t, http.MethodPut, "/api/v1/package", token, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "checksum mismatch")

	// nothing was committed
	w = ts.do(t, http.MethodGet, "/api/v1/package/x/1.0.0/download", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadRejectsTruncatedBody(t *testing.T) {
	ts := newTestServer(t, nil)
	token := ts.mintToken(t, "u1", "a@b.se")
	archive := []byte("the full archive bytes")

	full := frameUpload(t, &wire.PackageMetadata{
		Name: "x", Version: "1.0.0", Checksum: sha256hex(archive), Size: uint64(len(archive)),
	}, manifestText("x", "1.0.0"), nil, archive)
	truncated := bytes.NewReader(full.Bytes()[:full.Len()-5])

	w := ts.do(t, http.MethodPut, "/api/v1/package", token, truncated)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadWithoutReadme(t *testing.T) {
	ts := newTestServer(t, nil)
	token := ts.mintToken(t, "u1", "a@b.se")
	archive := []byte("bytes")

	body := frameUpload(t, &wire.PackageMetadata{
		Name: "x", Version: "1.0.0", Checksum: sha256hex(archive), Size: uint64(len(archive)),
	}, manifestText("x", "1.0.0"), nil, archive)
	w := ts.do(t, http.MethodPut, "/api/v1/package", token, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestDownloadUnknownVersion(t *testing.T) {
	ts := newTestServer(t, nil)
	w := ts.do(t, http.MethodGet, "/api/v1/package/ghost/1.0.0/download", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
