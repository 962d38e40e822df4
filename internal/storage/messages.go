package storage

import (
	"context"
	"devlinkr/backend/internal/models"
	"log/slog"

	"github.com/google/uuid"
)

// CreateMessage saves a new message with status "sent" and fills in its ID.
func (s *Service) CreateMessage(ctx context.Context, msg *models.Message) error {
	msg.Status = models.StatusSent
	if err := s.DB.WithContext(ctx).Create(msg).Error; err != nil {
		s.logger.Error("failed to save message",
			slog.String("sender", msg.Sender), slog.String("receiver", msg.Receiver), slog.Any("error", err))
		return err
	}
	return nil
}

// MarkDelivered moves one sent message to delivered. A malformed id is
// treated like a missing one.
func (s *Service) MarkDelivered(ctx context.Context, ref models.MessageRef) (int64, error) {
	db := s.DB.WithContext(ctx)

	if ref.ID != "" {
		if _, err := uuid.Parse(ref.ID); err != nil {
			s.logger.Debug("ignoring malformed message id", slog.String("id", ref.ID))
			ref.ID = ""
		}
	}

	from := models.StatusesBefore(models.StatusDelivered)
	var target any = ref.ID
	if ref.ID == "" {
		// No id from the client: match on content and take the newest undelivered copy.
		target = db.Model(&models.Message{}).
			Select("id").
			Where("sender = ? AND receiver = ? AND message = ? AND status IN ?",
				ref.Sender, ref.Receiver, ref.Message, from).
			Order("created_at desc").
			Limit(1)
	}

	res := db.Model(&models.Message{}).
		Where("id = (?) AND status IN ?", target, from).
		Update("status", models.StatusDelivered)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (s *Service) MarkSeen(ctx context.Context, sender, receiver string) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&models.Message{}).
		Where("sender = ? AND receiver = ? AND status IN ?", sender, receiver, models.StatusesBefore(models.StatusSeen)).
		Update("status", models.StatusSeen)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// GetChatHistory returns the conversation between two users in both directions, oldest first.
func (s *Service) GetChatHistory(ctx context.Context, user1, user2 string) ([]models.Message, error) {
	var history []models.Message
	err := s.DB.WithContext(ctx).
		Where("(sender = ? AND receiver = ?) OR (sender = ? AND receiver = ?)", user1, user2, user2, user1).
		Order("created_at asc").
		Find(&history).Error
	if err != nil {
		s.logger.Error("failed to get chat history",
			slog.String("user1", user1), slog.String("user2", user2), slog.Any("error", err))
		return nil, err
	}
	return history, nil
}

func (s *Service) CountUnseen(ctx context.Context, sender, receiver string) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&models.Message{}).
		Where("sender = ? AND receiver = ? AND status <> ?", sender, receiver, models.StatusSeen).
		Count(&n).Error
	return n, err
}
