package handler

import (
	"devlinkr/backend/internal/chathub"
	"devlinkr/backend/internal/models"
	"devlinkr/backend/internal/storage"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.Store.ListUsers(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list users", slog.Any("error", err))
		serverError(c)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	c.JSON(http.StatusOK, users)
}

// OnlineUsers lists the identities registered on the realtime hub right now.
func (h *Handler) OnlineUsers(c *gin.Context) {
	users := h.Hub.OnlineUsers()
	if users == nil {
		users = []string{}
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) GetProfile(c *gin.Context) {
	email := models.NormalizeIdentity(c.Query("email"))
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "email is required"})
		return
	}

	user, err := h.Store.GetUserByEmail(c.Request.Context(), email)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"msg": "User not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to load profile", slog.String("email", email), slog.Any("error", err))
		serverError(c)
		return
	}
	c.JSON(http.StatusOK, user)
}

// profileUpdate fields left out of the body are not touched.
type profileUpdate struct {
	Name         *string   `json:"name"`
	Bio          *string   `json:"bio"`
	TechStack    *[]string `json:"techStack"`
	Interests    *[]string `json:"interests"`
	Availability *string   `json:"availability"`
}

// UpdateProfile edits the profile of the authenticated user.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req profileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	email := c.GetString(ctxEmailKey)
	ctx := c.Request.Context()

	user, err := h.Store.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"msg": "User not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to load profile", slog.String("email", email), slog.Any("error", err))
		serverError(c)
		return
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.TechStack != nil {
		user.TechStack = *req.TechStack
	}
	if req.Interests != nil {
		user.Interests = *req.Interests
	}
	if req.Availability != nil {
		user.Availability = *req.Availability
	}

	if err := h.Store.UpdateUser(ctx, user); err != nil {
		h.logger.Error("failed to update profile", slog.String("email", email), slog.Any("error", err))
		serverError(c)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) Match(c *gin.Context) {
	email := models.NormalizeIdentity(c.Query("email"))

	user, err := h.Matcher.BestMatch(c.Request.Context(), email)
	if errors.Is(err, chathub.ErrNoCandidates) {
		c.JSON(http.StatusNotFound, gin.H{"msg": "No other users available"})
		return
	}
	if err != nil {
		h.logger.Error("failed to find match", slog.String("email", email), slog.Any("error", err))
		serverError(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": user.Name, "email": user.Email})
}

type connectionRequest struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

func (h *Handler) ConnectRequest(c *gin.Context) {
	var req connectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	from, to := models.NormalizeIdentity(req.From), models.NormalizeIdentity(req.To)
	if from == to {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "Cannot connect to yourself"})
		return
	}
	ctx := c.Request.Context()

	created, err := h.Store.CreateConnectionRequest(ctx, from, to)
	if errors.Is(err, storage.ErrAlreadyExists) {
		c.JSON(http.StatusConflict, gin.H{"msg": "Request already exists"})
		return
	}
	if err != nil {
		h.logger.Error("failed to create connection request",
			slog.String("from", from), slog.String("to", to), slog.Any("error", err))
		serverError(c)
		return
	}

	h.publish(c, models.Notification{
		Type: models.NotificationConnectionRequest,
		To:   to,
		From: from,
		Name: h.displayName(c, from),
	})
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) AcceptRequest(c *gin.Context) {
	var req connectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	from, to := models.NormalizeIdentity(req.From), models.NormalizeIdentity(req.To)

	err := h.Store.AcceptConnectionRequest(c.Request.Context(), from, to)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"msg": "Request not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to accept connection request",
			slog.String("from", from), slog.String("to", to), slog.Any("error", err))
		serverError(c)
		return
	}

	h.publish(c, models.Notification{
		Type: models.NotificationRequestAccepted,
		To:   from,
		From: to,
		Name: h.displayName(c, to),
	})
	c.JSON(http.StatusOK, gin.H{"msg": "Request accepted"})
}

type pendingRequest struct {
	From string `json:"from"`
	Name string `json:"name"`
}

type connectionSummary struct {
	Email          string `json:"email"`
	Name           string `json:"name"`
	UnseenMessages int64  `json:"unseenMessages"`
}

// Notifications lists pending requests to the user and their connections
// with unseen message counts.
func (h *Handler) Notifications(c *gin.Context) {
	email := models.NormalizeIdentity(c.Query("email"))
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "email is required"})
		return
	}
	ctx := c.Request.Context()

	pending, err := h.Store.ListPendingRequests(ctx, email)
	if err != nil {
		h.logger.Error("failed to list requests", slog.String("email", email), slog.Any("error", err))
		serverError(c)
		return
	}
	connections, err := h.Store.ListConnections(ctx, email)
	if err != nil {
		h.logger.Error("failed to list connections", slog.String("email", email), slog.Any("error", err))
		serverError(c)
		return
	}

	requests := make([]pendingRequest, 0, len(pending))
	for _, r := range pending {
		requests = append(requests, pendingRequest{From: r.From, Name: h.displayName(c, r.From)})
	}

	summaries := make([]connectionSummary, 0, len(connections))
	for _, other := range connections {
		unseen, err := h.Store.CountUnseen(ctx, other, email)
		if err != nil {
			h.logger.Warn("failed to count unseen messages", slog.String("from", other), slog.Any("error", err))
		}
		summaries = append(summaries, connectionSummary{Email: other, Name: h.displayName(c, other), UnseenMessages: unseen})
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests, "connections": summaries})
}

// displayName falls back to the email when the user cannot be loaded.
func (h *Handler) displayName(c *gin.Context, email string) string {
	user, err := h.Store.GetUserByEmail(c.Request.Context(), email)
	if err != nil || user.Name == "" {
		return email
	}
	return user.Name
}

// publish is best effort: the request already succeeded.
func (h *Handler) publish(c *gin.Context, n models.Notification) {
	if err := h.Store.PublishNotification(c.Request.Context(), n); err != nil {
		h.logger.Warn("failed to publish notification",
			slog.String("type", n.Type), slog.String("to", n.To), slog.Any("error", err))
	}
}
