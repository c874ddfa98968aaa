package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestRateLimitBudgetsPerOperator(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		WithIdentity(c, Identity{ID: c.Get("X-Operator"), Role: RoleAdmin})
		return c.Next()
	})
	app.Post("/provision", RateLimit("provisioning", 2, time.Minute), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusAccepted)
	})

	send := func(operator string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/provision", nil)
		req.Header.Set("X-Operator", operator)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	for i := 0; i < 2; i++ {
		require.Equal(t, fiber.StatusAccepted, send("op-1").StatusCode)
	}

	resp := send("op-1")
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.False(t, body.Success)
	require.Equal(t, "provisioning is rate limited, retry after 1m0s", body.Message)

	require.Equal(t, fiber.StatusAccepted, send("op-2").StatusCode)
}
