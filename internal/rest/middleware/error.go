package middleware

import (
	"github.com/funduq/funduq/internal/config"
	ierr "github.com/funduq/funduq/internal/errors"
	"github.com/gin-gonic/gin"
)

// ErrorHandler renders the last error a handler attached with c.Error. Raw
// error text is only exposed in debug mode.
func ErrorHandler(cfg *config.Configuration) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		c.JSON(ierr.HTTPStatusFromErr(err), ierr.NewErrorResponse(err, cfg.Server.Debug))
	}
}
