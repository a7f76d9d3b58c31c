package registry

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/depotworks/depot/pkg/errdefs"
	"github.com/depotworks/depot/pkg/xlog"
)

// writeError maps an error category to its HTTP status. Validation and
// conflict failures carry their message to the caller; everything else is
// logged and answered with a non-revealing 500.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errdefs.ErrInvalidParameter), errors.Is(err, errdefs.ErrUnprocessable):
		c.String(http.StatusBadRequest, err.Error())
	case errors.Is(err, errdefs.ErrNotFound):
		c.String(http.StatusNotFound, err.Error())
	case errors.Is(err, errdefs.ErrAlreadyExists), errors.Is(err, errdefs.ErrConflict):
		c.String(http.StatusConflict, err.Error())
	case errors.Is(err, errdefs.ErrUnauthorized):
		c.String(http.StatusUnauthorized, err.Error())
	case errors.Is(err, errdefs.ErrForbidden):
		c.String(http.StatusForbidden, err.Error())
	default:
		xlog.C(c.Request.Context()).Error("internal server error",
			"method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
		c.String(http.StatusInternalServerError, "internal server error")
	}
	c.Abort()
}
