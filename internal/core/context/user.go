// Package context carries the authenticated farm user and request
// correlation ids through context.Context.
package context

import (
	"context"
	"slices"
)

// UserContext is the caller as described by a validated token. FarmID is the
// only farm a non-admin may generate tags for.
type UserContext struct {
	UserID  string
	FarmID  string
	Email   string
	Roles   []string
	IsAdmin bool
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetFarmID returns farm ID from context or empty string.
func GetFarmID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.FarmID
	}
	return ""
}

// HasRole checks if user has specific role.
func HasRole(ctx context.Context, role string) bool {
	u := GetUser(ctx)
	if u == nil {
		return false
	}
	return slices.Contains(u.Roles, role)
}

// CanAccessFarm reports whether the user may act on farmID.
func CanAccessFarm(ctx context.Context, farmID string) bool {
	u := GetUser(ctx)
	if u == nil {
		return false
	}
	return u.IsAdmin || u.FarmID == farmID
}
