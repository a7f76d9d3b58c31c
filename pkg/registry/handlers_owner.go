package registry

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/depotworks/depot/pkg/errdefs"
	"github.com/depotworks/depot/pkg/manifest"
)

// listOwners answers the public owner listing of a package.
func (s *Server) listOwners(c *gin.Context) {
	name := c.Param("name")
	if err := manifest.ValidateName(name); err != nil {
		writeError(c, err)
		return
	}
	owners, err := s.store.ListOwners(c.Request.Context(), name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, owners)
}

// addOwner grants ownership to the email in the query string.
func (s *Server) addOwner(c *gin.Context) {
	email := strings.ToLower(c.Query("email"))
	if email == "" {
		writeError(c, errdefs.Newf(errdefs.ErrInvalidParameter, "email query parameter is required"))
		return
	}
	owner, err := s.store.AddOwner(c.Request.Context(), c.Param("name"), email)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, owner)
}

// removeOwner revokes ownership, refusing to remove the last owner.
func (s *Server) removeOwner(c *gin.Context) {
	email := strings.ToLower(c.Param("email"))
	removed, err := s.store.RemoveOwner(c.Request.Context(), c.Param("name"), email)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"email": removed})
}
