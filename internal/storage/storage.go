package storage

import (
	"context"
	"devlinkr/backend/internal/models"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidOTP    = errors.New("invalid or expired otp")
)

// MessageStore persists direct messages and their delivery status.
type MessageStore interface {
	CreateMessage(ctx context.Context, msg *models.Message) error
	// MarkDelivered moves the referenced message from sent to delivered.
	// It never touches a message that is already delivered or seen.
	MarkDelivered(ctx context.Context, ref models.MessageRef) (int64, error)
	// MarkSeen moves every sender->receiver message that is not seen yet to seen.
	MarkSeen(ctx context.Context, sender, receiver string) (int64, error)
	GetChatHistory(ctx context.Context, user1, user2 string) ([]models.Message, error)
	CountUnseen(ctx context.Context, sender, receiver string) (int64, error)
}

// SessionStore persists pair-programming snapshots keyed by room.
type SessionStore interface {
	SaveSession(ctx context.Context, session *models.CodeSession) error
	LoadSession(ctx context.Context, room string) (*models.CodeSession, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	ListUsers(ctx context.Context) ([]models.User, error)
}

type ConnectionStore interface {
	CreateConnectionRequest(ctx context.Context, from, to string) (*models.ConnectionRequest, error)
	AcceptConnectionRequest(ctx context.Context, from, to string) error
	ListPendingRequests(ctx context.Context, to string) ([]models.ConnectionRequest, error)
	ListConnections(ctx context.Context, email string) ([]string, error)
}

// OTPStore keeps short-lived verification codes.
type OTPStore interface {
	SaveOTP(ctx context.Context, email, code string, ttl time.Duration) error
	VerifyOTP(ctx context.Context, email, code string, ttl time.Duration) error
	IsEmailVerified(ctx context.Context, email string) (bool, error)
	ClearVerification(ctx context.Context, email string) error
}

type Notifier interface {
	PublishNotification(ctx context.Context, n models.Notification) error
	SubscribeNotifications(ctx context.Context) (<-chan models.Notification, func() error)
}

type Storage interface {
	MessageStore
	SessionStore
	UserStore
	ConnectionStore
	OTPStore
	Notifier
}

// Service implements Storage on PostgreSQL (gorm) and Redis.
type Service struct {
	DB     *gorm.DB
	Redis  *redis.Client
	logger *slog.Logger
}

// compile-time check to ensure Service implements Storage.
var _ Storage = (*Service)(nil)

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client, logger *slog.Logger) *Service {
	return &Service{
		DB:     db,
		Redis:  rdb,
		logger: logger.With(slog.String("component", "storage")),
	}
}

// Migrate creates or updates every table the service uses.
func (s *Service) Migrate() error {
	return s.DB.AutoMigrate(
		&models.User{},
		&models.Message{},
		&models.CodeSession{},
		&models.ConnectionRequest{},
	)
}
