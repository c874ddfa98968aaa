package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Roles recognised by the curriculum API.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// Identity is the authenticated caller of a request.
type Identity struct {
	ID   string
	Role string
}

// Staff reports whether the caller may manage module activation.
func (i Identity) Staff() bool {
	return i.Role == RoleAdmin || i.Role == RoleTeacher
}

// HasRole reports whether the caller holds one of roles.
func (i Identity) HasRole(roles ...string) bool {
	for _, role := range roles {
		if normalizeRole(role) == i.Role {
			return true
		}
	}
	return false
}

type identityKey struct{}

// WithIdentity binds the caller to the request locals and its user context.
func WithIdentity(c *fiber.Ctx, identity Identity) {
	identity.ID = strings.TrimSpace(identity.ID)
	identity.Role = normalizeRole(identity.Role)
	c.Locals(identityKey{}, identity)
	c.SetUserContext(context.WithValue(c.UserContext(), identityKey{}, identity))
}

// IdentityFrom returns the caller bound by Authenticate.
func IdentityFrom(c *fiber.Ctx) (Identity, bool) {
	if c == nil {
		return Identity{}, false
	}
	identity, ok := c.Locals(identityKey{}).(Identity)
	if !ok || identity.ID == "" {
		return Identity{}, false
	}
	return identity, true
}

// IdentityFromContext returns the caller carried by a request context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	identity, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || identity.ID == "" {
		return Identity{}, false
	}
	return identity, true
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
