package registry

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/depotworks/depot/pkg/errdefs"
)

type createTokenRequest struct {
	Name string `json:"name"`
}

// createToken mints a local API token for the authenticated user. The
// bearer string is only ever returned here.
func (s *Server) createToken(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		writeError(c, errdefs.Newf(errdefs.ErrUnauthorized, "no identity in request state"))
		return
	}
	req := createTokenRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errdefs.Newf(errdefs.ErrInvalidParameter, "parse token request: %v", err))
		return
	}
	if req.Name == "" {
		writeError(c, errdefs.Newf(errdefs.ErrInvalidParameter, "token name is required"))
		return
	}
	token, err := s.store.CreateToken(c.Request.Context(), req.Name, identity.Subject, identity.Email)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

// listTokens returns the live tokens of the authenticated user, with the
// bearer strings blanked.
func (s *Server) listTokens(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		writeError(c, errdefs.Newf(errdefs.ErrUnauthorized, "no identity in request state"))
		return
	}
	tokens, err := s.store.ListTokensByUser(c.Request.Context(), identity.Subject)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}
