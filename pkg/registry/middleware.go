package registry

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	jose "github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/samber/lo"

	"github.com/depotworks/depot/pkg/database"
	"github.com/depotworks/depot/pkg/errdefs"
	"github.com/depotworks/depot/pkg/xlog"
)

const identityKey = "depot.identity"

// Identity is the authenticated caller, resolved either from a signed
// identity token or from a local API token.
type Identity struct {
	Subject string
	Name    string
	Email   string
}

// identityClaims are the token claims the registry consumes.
type identityClaims struct {
	Subject string `json:"sub"`
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
}

// authenticate resolves the Authorization bearer into an Identity. The
// signed-token strategy runs first when a public key is configured; the
// local-token lookup is the fallback.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			writeError(c, errdefs.Newf(errdefs.ErrUnauthorized, "token missing"))
			return
		}
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			writeError(c, errdefs.Newf(errdefs.ErrUnauthorized, "authorization header is not a bearer token"))
			return
		}

		if s.publicKey != nil {
			if identity, err := s.verifySigned(raw); err == nil {
				c.Set(identityKey, identity)
				c.Next()
				return
			}
		}

		row, err := s.store.GetTokenByString(c.Request.Context(), raw)
		if err != nil {
			writeError(c, err)
			return
		}
		if row == nil {
			if s.publicKey != nil {
				writeError(c, errdefs.Newf(errdefs.ErrUnauthorized, "token validation failed"))
			} else {
				writeError(c, errdefs.Newf(errdefs.ErrUnauthorized, "token missing"))
			}
			return
		}
		c.Set(identityKey, Identity{Subject: row.UserID, Name: row.Name, Email: row.Email})
		c.Next()
	}
}

// verifySigned decodes an RS256 identity token against the configured
// public key.
func (s *Server) verifySigned(raw string) (Identity, error) {
	token, err := jwt.ParseSigned(raw, []jose.SignatureAlgorithm{jose.RS256})
	if err != nil {
		return Identity{}, errdefs.NewE(errdefs.ErrUnauthorized, err)
	}
	claims := identityClaims{}
	if err := token.Claims(s.publicKey, &claims); err != nil {
		return Identity{}, errdefs.NewE(errdefs.ErrUnauthorized, err)
	}
	if claims.Subject == "" {
		return Identity{}, errdefs.Newf(errdefs.ErrUnauthorized, "token has no subject")
	}
	return Identity{
		Subject: claims.Subject,
		Name:    claims.Name,
		Email:   strings.ToLower(claims.Email),
	}, nil
}

// requireOwner gates owner-mutating and version-mutating routes: the
// authenticated email must appear in the package's owner list.
func (s *Server) requireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := currentIdentity(c)
		if !ok {
			writeError(c, errdefs.Newf(errdefs.ErrUnauthorized, "no identity in request state"))
			return
		}
		name := c.Param("name")
		owners, err := s.store.ListOwners(c.Request.Context(), name)
		if err != nil {
			writeError(c, err)
			return
		}
		email := strings.ToLower(identity.Email)
		if !lo.ContainsBy(owners, func(o database.Owner) bool { return o.Email == email }) {
			writeError(c, errdefs.Newf(errdefs.ErrForbidden,
				"%s is not an owner of package %s", identity.Email, name))
			return
		}
		c.Next()
	}
}

// currentIdentity retrieves the request-scoped identity set by
// authenticate.
func currentIdentity(c *gin.Context) (Identity, bool) {
	value, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	identity, ok := value.(Identity)
	return identity, ok
}

// requestLogger records one line per request with method, path, status and
// duration.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		xlog.C(c.Request.Context()).Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}
