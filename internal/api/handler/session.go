package handler

import (
	"devlinkr/backend/internal/storage"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

type saveSessionRequest struct {
	Room     string `json:"room" binding:"required"`
	Code     string `json:"code"`
	Language string `json:"language"`
}

func (h *Handler) SaveSession(c *gin.Context) {
	var req saveSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	session, err := h.Sessions.Save(c.Request.Context(), req.Room, req.Code, req.Language)
	if err != nil {
		h.logger.Error("failed to save session", slog.String("room", req.Room), slog.Any("error", err))
		serverError(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": session.Room, "code": session.Code, "language": session.Language})
}

func (h *Handler) LoadSession(c *gin.Context) {
	room := c.Query("room")
	if room == "" {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "room is required"})
		return
	}

	session, err := h.Sessions.Load(c.Request.Context(), room)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"msg": "not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to load session", slog.String("room", room), slog.Any("error", err))
		serverError(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": session.Room, "code": session.Code, "language": session.Language})
}
