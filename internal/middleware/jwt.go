package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/gema-curriculum-api/internal/utils"
)

// curriculumClaims is the token payload issued by the platform's auth service.
// Older tokens carry the subject as user_id and a roles list instead of role.
type curriculumClaims struct {
	jwt.RegisteredClaims
	UserID string   `json:"user_id,omitempty"`
	Role   string   `json:"role,omitempty"`
	Roles  []string `json:"roles,omitempty"`
}

func (c curriculumClaims) identity() Identity {
	id := strings.TrimSpace(c.Subject)
	if id == "" {
		id = strings.TrimSpace(c.UserID)
	}

	role := normalizeRole(c.Role)
	for _, candidate := range c.Roles {
		if role != "" {
			break
		}
		role = normalizeRole(candidate)
	}
	return Identity{ID: id, Role: role}
}

// Authenticate validates HMAC-signed bearer tokens and binds the caller's Identity.
func Authenticate(secret string) fiber.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	key := []byte(secret)

	return func(c *fiber.Ctx) error {
		raw, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "bearer token required")
		}

		var claims curriculumClaims
		if _, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
			return key, nil
		}); err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		identity := claims.identity()
		if identity.ID == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "token has no subject")
		}
		WithIdentity(c, identity)
		return c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
