package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"herdbook/internal/core/apperror"
	"herdbook/internal/infrastructure/http/v1/dto"
	"herdbook/pkg/logger"
)

// ErrorHandler renders the last gin error as a dto.ErrorResponse. Causes are
// logged, never written to the client.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		writeError(c)
	}
}

// writeError renders the last error on c unless a response was already written.
func writeError(c *gin.Context) {
	if len(c.Errors) == 0 || c.Writer.Written() {
		return
	}
	err := c.Errors.Last().Err
	ctx := c.Request.Context()

	if appErr, ok := apperror.AsAppError(err); ok {
		if appErr.Err != nil {
			logger.Error(ctx, "request error",
				"code", appErr.Code,
				"cause", appErr.Err,
			)
		}
		c.JSON(apperror.GetHTTPStatus(appErr), dto.ErrorResponse{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		})
		return
	}

	logger.Error(ctx, "unhandled error", "error", err)
	c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
		Code:    apperror.CodeInternal,
		Message: "internal server error",
		Details: map[string]any{"request_id": c.GetString("request_id")},
	})
}
