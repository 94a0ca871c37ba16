// Package context provides request-scoped values extraction.
package context

import (
	"context"

	"foodchain/internal/core/id"
)

// Role values carried by an authenticated principal.
const (
	RoleAdmin        = "ADMIN"
	RoleManufacturer = "MANUFACTURER"
	RoleRetailer     = "RETAILER"
)

// UserContext contains the authenticated principal.
// For manufacturers and retailers UserID is also the owner key of their inventory and documents.
type UserContext struct {
	UserID    id.ID
	Email     string
	Role      string
	SessionID string
}

// IsAdmin reports whether the principal has the ADMIN role.
func (u *UserContext) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
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

// GetUserID returns user ID from context or the nil UUID.
func GetUserID(ctx context.Context) id.ID {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return id.Nil()
}

// HasRole checks if user has specific role.
func HasRole(ctx context.Context, role string) bool {
	u := GetUser(ctx)
	return u != nil && u.Role == role
}
