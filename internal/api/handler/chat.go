package handler

import (
	"devlinkr/backend/internal/models"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

type sendMessageRequest struct {
	Sender   string `json:"sender" binding:"required"`
	Receiver string `json:"receiver" binding:"required"`
	Message  string `json:"message" binding:"required"`
}

// SendMessage persists a message with status "sent". Realtime delivery is a
// separate sendMessage event carrying the returned id.
func (h *Handler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	msg := &models.Message{
		Sender:   models.NormalizeIdentity(req.Sender),
		Receiver: models.NormalizeIdentity(req.Receiver),
		Message:  req.Message,
	}
	if err := h.Store.CreateMessage(c.Request.Context(), msg); err != nil {
		h.logger.Error("failed to save message",
			slog.String("sender", msg.Sender), slog.String("receiver", msg.Receiver), slog.Any("error", err))
		serverError(c)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *Handler) ChatHistory(c *gin.Context) {
	user1, user2 := models.NormalizeIdentity(c.Query("user1")), models.NormalizeIdentity(c.Query("user2"))
	if user1 == "" || user2 == "" {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "user1 and user2 are required"})
		return
	}

	history, err := h.Store.GetChatHistory(c.Request.Context(), user1, user2)
	if err != nil {
		h.logger.Error("failed to load chat history",
			slog.String("user1", user1), slog.String("user2", user2), slog.Any("error", err))
		serverError(c)
		return
	}
	if history == nil {
		history = []models.Message{}
	}
	c.JSON(http.StatusOK, history)
}

type markSeenRequest struct {
	Sender   string `json:"sender" binding:"required"`
	Receiver string `json:"receiver" binding:"required"`
}

// MarkSeen marks everything sender sent to receiver as seen and tells the
// sender over the hub.
func (h *Handler) MarkSeen(c *gin.Context) {
	var req markSeenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sender, receiver := models.NormalizeIdentity(req.Sender), models.NormalizeIdentity(req.Receiver)

	n, err := h.Store.MarkSeen(c.Request.Context(), sender, receiver)
	if err != nil {
		h.logger.Error("failed to mark messages seen",
			slog.String("sender", sender), slog.String("receiver", receiver), slog.Any("error", err))
		serverError(c)
		return
	}

	h.Hub.NotifySeen(sender, receiver)
	c.JSON(http.StatusOK, gin.H{"updated": n})
}
