// Package middleware provides the gin middleware of the v1 API.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
	"github.com/Colossus92/eazy-recycling-sub004/pkg/logger"
)

// Recovery turns a handler panic into a 500 INTERNAL_ERROR. The stack
// goes to the log only. It runs outside ErrorHandler, so it renders the
// response itself.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			ctx := c.Request.Context()
			logger.Error(ctx, "panic recovered",
				"panic", r,
				"method", c.Request.Method,
				"route", c.FullPath(),
				"stack", string(debug.Stack()))

			appErr := apperror.NewInternal(fmt.Errorf("panic in %s %s: %v", c.Request.Method, c.FullPath(), r))
			_ = c.Error(appErr.WithDetail("request_id", c.GetString(KeyRequestID)))
			c.Abort()
			renderError(c)
		}()
		c.Next()
	}
}
