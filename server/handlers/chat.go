package handlers

import (
	"context"

	"droidfolio/pkg/logger"
	"droidfolio/pkg/metrics"
	"droidfolio/server/middleware/session"
	_websocket "droidfolio/server/websocket"
	"droidfolio/services/assistant"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// HandleChatUpgrade only lets websocket upgrades through
func HandleChatUpgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

// HandleChat gives every connection its own assistant session. Closing the
// connection abandons the turn in flight.
func HandleChat(projects assistant.ProjectLister, model assistant.Model, opts assistant.Options) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		sessionID, _ := conn.Locals(session.LocalsSessionID).(string)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		chat, err := assistant.NewSession(ctx, projects, model, opts)
		if err != nil {
			logger.LogAppError(err, logger.ERROR, map[string]any{"session": sessionID, "event": "chat_open"})
			conn.WriteJSON(_websocket.Frame{Type: _websocket.FrameError, Error: "Chat is unavailable right now"})
			conn.Close()
			return
		}

		metrics.IncrementChatSessions()
		defer metrics.DecrementChatSessions()

		client := _websocket.NewClient(ctx, conn, chat, sessionID, frameLimit(opts))
		client.Run(cancel)
	})
}

// frameLimit caps inbound frames at the HTTP body limit, room for one image
// data URL plus text
func frameLimit(opts assistant.Options) int64 {
	n := opts.MaxImageBytes
	if n <= 0 {
		n = assistant.DefaultMaxImageBytes
	}
	return 2 * n
}
