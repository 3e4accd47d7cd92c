package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/http/v1/dto"
	"github.com/Colossus92/eazy-recycling-sub004/pkg/logger"
)

// ErrorHandler middleware transforms errors into consistent JSON responses.
// Hides internal errors from clients while logging full details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		renderError(c)
	}
}

func renderError(c *gin.Context) {
	if len(c.Errors) == 0 || c.Writer.Written() {
		return
	}
	status, body := errorBody(c, c.Errors.Last().Err)
	c.JSON(status, body)
}

func errorBody(c *gin.Context, err error) (int, dto.ErrorResponse) {
	if appErr, ok := apperror.AsAppError(err); ok {
		if appErr.Err != nil {
			logger.Error(c.Request.Context(), "request error",
				"code", appErr.Code,
				"cause", appErr.Err,
			)
		}
		return appErr.HTTPStatus, dto.ErrorResponse{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		}
	}

	logger.Error(c.Request.Context(), "unhandled error", "error", err)
	return http.StatusInternalServerError, dto.ErrorResponse{
		Code:    apperror.CodeInternal,
		Message: "Internal server error",
		Details: map[string]any{"request_id": c.GetString(KeyRequestID)},
	}
}
