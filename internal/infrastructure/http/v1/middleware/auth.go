package middleware

import (
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"herdbook/internal/core/apperror"
	appctx "herdbook/internal/core/context"
)

// JWTValidator turns a bearer token into the caller's user context.
type JWTValidator interface {
	ValidateToken(tokenString string) (*appctx.UserContext, error)
}

// Auth requires "Authorization: Bearer <token>" and stores the validated
// user on the request context.
func Auth(validator JWTValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		user, err := validator.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			_ = c.Error(apperror.NewUnauthorized("invalid token").WithCause(err))
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(appctx.WithUser(c.Request.Context(), user))
		c.Next()
	}
}

// FarmAccess rejects requests whose :farmId path parameter is not the
// token's farm. Admin tokens may act on any farm. Must run after Auth.
func FarmAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		farmID := c.Param("farmId")
		if farmID == "" {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		if appctx.GetUser(ctx) == nil {
			abortUnauthorized(c, "authentication required")
			return
		}
		if !appctx.CanAccessFarm(ctx, farmID) {
			_ = c.Error(
				apperror.NewForbidden("farm mismatch").
					WithDetail("path_farm_id", farmID).
					WithDetail("token_farm_id", appctx.GetFarmID(ctx)),
			)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRole lets through admins and users holding any of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		user := appctx.GetUser(ctx)
		if user == nil {
			abortUnauthorized(c, "authentication required")
			return
		}
		if user.IsAdmin || slices.ContainsFunc(roles, func(r string) bool { return appctx.HasRole(ctx, r) }) {
			c.Next()
			return
		}
		_ = c.Error(
			apperror.NewForbidden("insufficient permissions").
				WithDetail("required_roles", roles),
		)
		c.Abort()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
