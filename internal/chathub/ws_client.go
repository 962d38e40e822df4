package chathub

import (
	"devlinkr/backend/internal/models"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024 // code snapshots ride on codeUpdate
)

// WebSocketClient implements Client over gorilla/websocket.
type WebSocketClient struct {
	id   string
	Conn *websocket.Conn
	Hub  *ManagerService
	Send chan models.OutboundEvent

	logger    *slog.Logger
	closeOnce sync.Once
}

func NewWebSocketClient(hub *ManagerService, conn *websocket.Conn, sendBuffer int, logger *slog.Logger) *WebSocketClient {
	id := uuid.New().String()
	return &WebSocketClient{
		id:     id,
		Conn:   conn,
		Hub:    hub,
		Send:   make(chan models.OutboundEvent, sendBuffer),
		logger: logger.With(slog.String("conn", id)),
	}
}

func (c *WebSocketClient) ID() string                                  { return c.id }
func (c *WebSocketClient) GetSendChannel() chan<- models.OutboundEvent { return c.Send }

// Run starts the pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close closes Send, which stops writePump; readPump stops once the
// connection is closed.
func (c *WebSocketClient) Close() {
	c.closeOnce.Do(func() { close(c.Send) })
}
