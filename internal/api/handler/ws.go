package handler

import (
	"devlinkr/backend/internal/chathub"
	"log/slog"

	"github.com/gin-gonic/gin"
)

// ServeWebSocket upgrades the request and hands the connection to the hub.
// The connection starts unregistered; the client identifies itself with a
// register event.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	client := chathub.NewWebSocketClient(h.Hub, conn, h.opts.SendBuffer, h.logger)
	if !h.Hub.Connect(client) {
		conn.Close()
		return
	}
	client.Run()
}
