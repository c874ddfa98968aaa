package handler

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-curriculum-api/internal/middleware"
	"github.com/noah-isme/gema-curriculum-api/internal/service"
)

const streamPingInterval = 30 * time.Second

// ActivationStreamHandler pushes activation changes to admin dashboards over websockets.
type ActivationStreamHandler struct {
	events service.ActivationEventBus
	logger zerolog.Logger
}

// NewActivationStreamHandler constructs the stream handler.
func NewActivationStreamHandler(events service.ActivationEventBus, logger zerolog.Logger) *ActivationStreamHandler {
	return &ActivationStreamHandler{
		events: events,
		logger: logger.With().Str("component", "activation_stream_handler").Logger(),
	}
}

// Register binds the websocket upgrade under the provided router group.
func (h *ActivationStreamHandler) Register(router fiber.Router) {
	router.Use("/stream", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("request_ctx", requestContext(c))
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	router.Get("/stream", websocket.New(h.handleConnection))
}

func (h *ActivationStreamHandler) handleConnection(conn *websocket.Conn) {
	courseID := strings.TrimSpace(conn.Query("course_id"))

	baseCtx, _ := conn.Locals("request_ctx").(context.Context)
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	identity, _ := middleware.IdentityFromContext(baseCtx)
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	logger := h.logger.With().
		Str("user_id", identity.ID).
		Str("course_id", courseID).
		Str("correlation_id", middleware.CorrelationIDFromContext(baseCtx)).
		Logger()

	events, unsubscribe := h.events.Subscribe(courseID)
	defer unsubscribe()

	// the reader only drains control frames and notices disconnects
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	logger.Info().Msg("activation stream connected")
	defer logger.Info().Msg("activation stream disconnected")

	ticker := time.NewTicker(streamPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				logger.Debug().Err(err).Msg("activation stream write failed")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}
