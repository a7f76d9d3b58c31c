package registry

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/depotworks/depot/pkg/appinfo"
	"github.com/depotworks/depot/pkg/database"
	"github.com/depotworks/depot/pkg/errdefs"
	"github.com/depotworks/depot/pkg/manifest"
	"github.com/depotworks/depot/pkg/version"
)

const (
	defaultPage    = 1
	defaultPerPage = 25
)

func (s *Server) getStatus(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

func (s *Server) getVersion(c *gin.Context) {
	c.String(http.StatusOK, appinfo.ShortVersion())
}

// listPackages answers one page of the package index.
func (s *Server) listPackages(c *gin.Context) {
	page, err := queryInt(c, "page", defaultPage)
	if err != nil {
		writeError(c, err)
		return
	}
	perPage, err := queryInt(c, "per_page", defaultPerPage)
	if err != nil {
		writeError(c, err)
		return
	}
	packages, totalPages, err := s.store.GetPackages(c.Request.Context(), page, perPage)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"packages":    packages,
		"total_pages": totalPages,
	})
}

// getPackage returns the non-yanked versions of a package, or with a
// version_requirement query the single latest version satisfying it.
func (s *Server) getPackage(c *gin.Context) {
	name := c.Param("name")
	if err := manifest.ValidateName(name); err != nil {
		writeError(c, err)
		return
	}
	versions, err := s.store.GetVersionsByPackageName(c.Request.Context(), name)
	if err != nil {
		writeError(c, err)
		return
	}
	live := lo.Filter(versions, func(v database.Version, _ int) bool { return !v.IsYanked })

	requirement := c.Query("version_requirement")
	if requirement == "" {
		c.JSON(http.StatusOK, live)
		return
	}

	known := lo.Map(live, func(v database.Version, _ int) string { return v.Version })
	match, err := version.MatchRequirement(known, requirement)
	if err != nil {
		writeError(c, err)
		return
	}
	if match == "" {
		writeError(c, errdefs.Newf(errdefs.ErrNotFound,
			"no version of package %s matches the requirement %q", name, requirement))
		return
	}
	row, _ := lo.Find(live, func(v database.Version) bool { return v.Version == match })
	c.JSON(http.StatusOK, row)
}

// getVersionOrOwners serves both the version-detail route and the owner
// listing. The literal segment "owner" can never collide with a version
// because versions are strict SemVer.
func (s *Server) getVersionOrOwners(c *gin.Context) {
	if c.Param("version") == "owner" {
		s.listOwners(c)
		return
	}
	name := c.Param("name")
	if err := manifest.ValidateName(name); err != nil {
		writeError(c, err)
		return
	}
	if _, err := version.Parse(c.Param("version")); err != nil {
		writeError(c, err)
		return
	}
	row, err := s.store.GetVersionByNameAndVersion(c.Request.Context(), name, c.Param("version"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

// downloadVersion streams the stored archive bytes.
func (s *Server) downloadVersion(c *gin.Context) {
	name := c.Param("name")
	if err := manifest.ValidateName(name); err != nil {
		writeError(c, err)
		return
	}
	if _, err := version.Parse(c.Param("version")); err != nil {
		writeError(c, err)
		return
	}
	f, size, err := s.storage.OpenArchive(name, c.Param("version"))
	if err != nil {
		writeError(c, err)
		return
	}
	defer f.Close()
	c.DataFromReader(http.StatusOK, size, "application/octet-stream", f, nil)
}

// yankVersion toggles the yank flag of a version.
func (s *Server) yankVersion(c *gin.Context) {
	flag := c.Param("flag")
	if flag != "true" && flag != "false" {
		writeError(c, errdefs.Newf(errdefs.ErrInvalidParameter,
			"yank flag must be true or false, got %q", flag))
		return
	}
	if _, err := version.Parse(c.Param("version")); err != nil {
		writeError(c, err)
		return
	}
	row, err := s.store.SetYank(c.Request.Context(), c.Param("name"), c.Param("version"), flag == "true")
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return 0, errdefs.Newf(errdefs.ErrInvalidParameter,
			"query parameter %s must be a positive integer, got %q", key, raw)
	}
	return value, nil
}
