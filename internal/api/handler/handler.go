package handler

import (
	"devlinkr/backend/internal/chathub"
	"devlinkr/backend/internal/storage"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Options carries the settings the HTTP layer needs from config.
type Options struct {
	JWTSecret      []byte
	TokenTTL       time.Duration
	OTPTTL         time.Duration
	OTPLength      int
	OTPRequired    bool
	SendBuffer     int
	AllowedOrigins []string
}

// Handler holds the REST and WebSocket endpoints.
type Handler struct {
	Hub      *chathub.ManagerService
	Store    storage.Storage
	Sessions *chathub.SessionService
	Matcher  *chathub.MatcherService
	Mailer   Mailer

	opts     Options
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewHandler(hub *chathub.ManagerService, store storage.Storage, mailer Mailer, opts Options, logger *slog.Logger) *Handler {
	h := &Handler{
		Hub:      hub,
		Store:    store,
		Sessions: chathub.NewSessionService(store),
		Matcher:  chathub.NewMatcherService(store),
		Mailer:   mailer,
		opts:     opts,
		logger:   logger.With(slog.String("component", "api")),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.originAllowed,
	}
	return h
}

// RegisterRoutes mounts every endpoint on r.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.Use(RequestLogger(h.logger), CORS(h.opts.AllowedOrigins))

	r.GET("/", h.Health)
	r.GET("/ws", h.ServeWebSocket)

	api := r.Group("/api/auth")
	{
		api.POST("/send-otp", h.SendOTP)
		api.POST("/verify-otp", h.VerifyOTP)
		api.POST("/signup", h.Signup)
		api.POST("/login", h.Login)

		api.GET("/users", h.ListUsers)
		api.GET("/online", h.OnlineUsers)
		api.GET("/profile", h.GetProfile)
		api.PUT("/profile", AuthRequired(h.opts.JWTSecret), h.UpdateProfile)
		api.GET("/match", h.Match)

		api.POST("/connect-request", h.ConnectRequest)
		api.POST("/accept-request", h.AcceptRequest)
		api.GET("/notifications", h.Notifications)

		api.POST("/send-message", h.SendMessage)
		api.GET("/chat-history", h.ChatHistory)
		api.POST("/mark-seen", h.MarkSeen)

		api.POST("/save-session", h.SaveSession)
		api.GET("/load-session", h.LoadSession)
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.String(http.StatusOK, "DevLinkr backend is running")
}

// originAllowed accepts requests without an Origin header (non-browser
// clients), any origin when "*" is configured, and the configured list.
func (h *Handler) originAllowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return slices.Contains(h.opts.AllowedOrigins, "*") || slices.Contains(h.opts.AllowedOrigins, origin)
}

func serverError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, gin.H{"msg": "Server error"})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"msg": "Invalid request", "error": err.Error()})
}
