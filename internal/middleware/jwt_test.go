package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "curriculum-secret"

func signToken(t *testing.T, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func authenticatedApp(seen *Identity) *fiber.App {
	app := fiber.New()
	app.Use(Authenticate(testSecret))
	app.Get("/", func(c *fiber.Ctx) error {
		identity, _ := IdentityFrom(c)
		fromCtx, _ := IdentityFromContext(c.UserContext())
		if identity != fromCtx {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		*seen = identity
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestAuthenticateBindsIdentity(t *testing.T) {
	cases := []struct {
		name   string
		claims jwt.MapClaims
		want   Identity
	}{
		{
			name:   "subject and role",
			claims: jwt.MapClaims{"sub": "tch-9", "role": " Teacher "},
			want:   Identity{ID: "tch-9", Role: RoleTeacher},
		},
		{
			name:   "legacy user id and roles list",
			claims: jwt.MapClaims{"user_id": "42", "roles": []string{"", "Admin", "teacher"}},
			want:   Identity{ID: "42", Role: RoleAdmin},
		},
		{
			name:   "no role",
			claims: jwt.MapClaims{"sub": "stu-3", "exp": time.Now().Add(time.Hour).Unix()},
			want:   Identity{ID: "stu-3"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var seen Identity
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "bearer "+signToken(t, jwt.SigningMethodHS256, tc.claims))

			resp, err := authenticatedApp(&seen).Test(req)
			require.NoError(t, err)
			require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
			require.Equal(t, tc.want, seen)
		})
	}
}

func TestAuthenticateRejectsInvalidTokens(t *testing.T) {
	expired := signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "7", "exp": time.Now().Add(-time.Hour).Unix()})
	anonymous := signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{"role": "admin"})
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "7"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := map[string]string{
		"missing":    "",
		"no bearer":  "Token abc",
		"empty":      "Bearer   ",
		"garbage":    "Bearer not-a-token",
		"expired":    "Bearer " + expired,
		"no subject": "Bearer " + anonymous,
		"alg none":   "Bearer " + unsigned,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			var seen Identity
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			resp, err := authenticatedApp(&seen).Test(req)
			require.NoError(t, err)
			require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
			require.Zero(t, seen)
		})
	}
}
