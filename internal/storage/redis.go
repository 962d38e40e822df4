package storage

import (
	"context"
	"devlinkr/backend/internal/models"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// NotificationChannel is the Redis Pub/Sub channel carrying models.Notification.
const NotificationChannel = "devlinkr:notifications"

func otpKey(email string) string      { return "otp:" + email }
func verifiedKey(email string) string { return "otp:verified:" + email }

func (s *Service) SaveOTP(ctx context.Context, email, code string, ttl time.Duration) error {
	return s.Redis.Set(ctx, otpKey(email), code, ttl).Err()
}

// VerifyOTP consumes the code and marks the email as verified for ttl.
func (s *Service) VerifyOTP(ctx context.Context, email, code string, ttl time.Duration) error {
	stored, err := s.Redis.Get(ctx, otpKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrInvalidOTP
	}
	if err != nil {
		return err
	}
	if stored != code {
		return ErrInvalidOTP
	}

	pipe := s.Redis.TxPipeline()
	pipe.Del(ctx, otpKey(email))
	pipe.Set(ctx, verifiedKey(email), "1", ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Service) IsEmailVerified(ctx context.Context, email string) (bool, error) {
	n, err := s.Redis.Exists(ctx, verifiedKey(email)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Service) ClearVerification(ctx context.Context, email string) error {
	return s.Redis.Del(ctx, verifiedKey(email)).Err()
}

// PublishNotification fans a notification out to every subscribed hub.
func (s *Service) PublishNotification(ctx context.Context, n models.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return s.Redis.Publish(ctx, NotificationChannel, payload).Err()
}

// SubscribeNotifications decodes the notification channel until ctx is done
// or the returned close func is called.
func (s *Service) SubscribeNotifications(ctx context.Context) (<-chan models.Notification, func() error) {
	pubsub := s.Redis.Subscribe(ctx, NotificationChannel)
	out := make(chan models.Notification)

	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var n models.Notification
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				s.logger.Warn("failed to decode notification", slog.Any("error", err))
				continue
			}
			select {
			case out <- n:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, pubsub.Close
}
