package registry

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/opencontainers/go-digest"
	"github.com/samber/lo"

	"github.com/depotworks/depot/pkg/database"
	"github.com/depotworks/depot/pkg/errdefs"
	"github.com/depotworks/depot/pkg/manifest"
	"github.com/depotworks/depot/pkg/version"
	"github.com/depotworks/depot/pkg/wire"
	"github.com/depotworks/depot/pkg/xlog"
)

// uploadPackage processes the framed upload body. The frame order is
// metadata, manifest, README, archive; any failure after the first read
// drains the remainder so the connection survives the error response.
func (s *Server) uploadPackage(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		writeError(c, errdefs.Newf(errdefs.ErrUnauthorized, "no identity in request state"))
		return
	}
	ctx := c.Request.Context()
	decoder := wire.NewDecoder(c.Request.Body)

	metadata, err := decoder.NextMetadata()
	if err != nil {
		abortUpload(c, decoder, err)
		return
	}
	if err := manifest.ValidateName(metadata.Name); err != nil {
		abortUpload(c, decoder, err)
		return
	}
	if _, err := version.Parse(metadata.Version); err != nil {
		abortUpload(c, decoder, err)
		return
	}

	existing, err := s.store.GetVersionsByPackageName(ctx, metadata.Name)
	if err != nil {
		abortUpload(c, decoder, err)
		return
	}
	known := lo.Map(existing, func(v database.Version, _ int) string { return v.Version })
	blocking, err := version.StrictlyGreater(metadata.Version, known)
	if err != nil {
		abortUpload(c, decoder, err)
		return
	}
	if blocking != "" {
		abortUpload(c, decoder, errdefs.Newf(errdefs.ErrConflict,
			"version %s of package %s is not greater than the existing version %s",
			metadata.Version, metadata.Name, blocking))
		return
	}

	manifestLength, err := decoder.NextUint64()
	if err != nil {
		abortUpload(c, decoder, err)
		return
	}
	manifestBytes, err := decoder.NextFileBytes(manifestLength)
	if err != nil {
		abortUpload(c, decoder, err)
		return
	}
	m, err := manifest.Parse(manifestBytes)
	if err != nil {
		abortUpload(c, decoder, err)
		return
	}
	if m.Package.Name != metadata.Name || m.Package.Version != metadata.Version {
		abortUpload(c, decoder, errdefs.Newf(errdefs.ErrInvalidParameter,
			"manifest declares %s/%s but the upload metadata names %s/%s",
			m.Package.Name, m.Package.Version, metadata.Name, metadata.Version))
		return
	}

	readmeLength, err := decoder.NextUint64()
	if err != nil {
		abortUpload(c, decoder, err)
		return
	}
	var readme []byte
	if readmeLength > 0 {
		readme, err = decoder.NextFileBytes(readmeLength)
		if err != nil {
			abortUpload(c, decoder, err)
			return
		}
	}

	archiveLength, err := decoder.NextUint64()
	if err != nil {
		abortUpload(c, decoder, err)
		return
	}
	temp, err := s.storage.TempFile()
	if err != nil {
		abortUpload(c, decoder, err)
		return
	}
	digester := digest.SHA256.Digester()
	if err := decoder.NextFile(archiveLength, io.MultiWriter(temp, digester.Hash())); err != nil {
		temp.Close()
		s.discardTemp(c, temp.Name())
		abortUpload(c, decoder, err)
		return
	}
	if err := s.storage.SealTemp(temp); err != nil {
		s.discardTemp(c, temp.Name())
		abortUpload(c, decoder, err)
		return
	}

	checksum := digester.Digest().Encoded()
	if checksum != metadata.Checksum {
		s.discardTemp(c, temp.Name())
		abortUpload(c, decoder, errdefs.Newf(errdefs.ErrInvalidParameter,
			"archive checksum mismatch: metadata declares %s but the streamed bytes hash to %s",
			metadata.Checksum, checksum))
		return
	}
	if archiveLength != metadata.Size {
		s.discardTemp(c, temp.Name())
		abortUpload(c, decoder, errdefs.Newf(errdefs.ErrInvalidParameter,
			"archive size mismatch: metadata declares %d bytes but the frame carried %d",
			metadata.Size, archiveLength))
		return
	}

	if err := s.storage.CommitVersion(metadata.Name, metadata.Version, temp.Name(), manifestBytes, readme); err != nil {
		s.discardTemp(c, temp.Name())
		writeError(c, err)
		return
	}

	created, err := s.store.CreateVersion(ctx, metadata.Name, database.NewVersion{
		Version:  metadata.Version,
		License:  m.Package.License,
		Readme:   string(readme),
		Checksum: checksum,
		Size:     archiveLength,
	}, strings.ToLower(identity.Email))
	if err != nil {
		if removeErr := s.storage.RemoveVersion(metadata.Name, metadata.Version); removeErr != nil {
			xlog.C(ctx).Error("rollback of stored files failed",
				"package", metadata.Name, "version", metadata.Version, "error", removeErr)
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, created)
}

// abortUpload drains the remaining body before answering so the connection
// can be reused.
func abortUpload(c *gin.Context, decoder *wire.Decoder, err error) {
	if drainErr := decoder.Drain(); drainErr != nil {
		xlog.C(c.Request.Context()).Warn("drain after upload failure", "error", drainErr)
	}
	writeError(c, err)
}

func (s *Server) discardTemp(c *gin.Context, path string) {
	if err := s.storage.Discard(path); err != nil {
		xlog.C(c.Request.Context()).Warn("discard temp file", "path", path, "error", err)
	}
}
