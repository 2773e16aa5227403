// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"herdbook/internal/core/apperror"
	"herdbook/pkg/logger"
)

// Recovery turns a panic in a handler into a 500 response. The stack goes to
// the log and the request span, never to the client. Tag generation recovers
// its own panics, so this only fires for bugs outside the engine.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			ctx := c.Request.Context()
			err := fmt.Errorf("panic: %v", r)

			logger.Error(ctx, "panic recovered",
				"route", c.FullPath(),
				"farm_id", c.Param("farmId"),
				"error", err,
				"stack", string(debug.Stack()),
			)
			span := trace.SpanFromContext(ctx)
			span.RecordError(err)
			span.SetStatus(codes.Error, "panic")

			_ = c.Error(apperror.NewInternal(err).WithDetail("request_id", c.GetString("request_id")))
			c.Abort()
			writeError(c)
		}()
		c.Next()
	}
}
