package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "github.com/Colossus92/eazy-recycling-sub004/internal/core/context"
)

const (
	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"
)

// UserContext attaches the identity forwarded by the gateway in front of
// the API. Requests without it run as the system actor.
func UserContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		if uid := c.GetHeader(HeaderUserID); uid != "" {
			ctx := appctx.WithUser(c.Request.Context(), &appctx.UserContext{
				UserID: uid,
				Email:  c.GetHeader(HeaderUserEmail),
			})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}
