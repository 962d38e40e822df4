package storage

import (
	"context"
	"devlinkr/backend/internal/models"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"
)

func (s *Service) CreateUser(ctx context.Context, user *models.User) error {
	err := s.DB.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("user %s: %w", user.Email, ErrAlreadyExists)
	}
	if err != nil {
		return err
	}
	s.logger.Info("new user saved", slog.String("id", user.ID), slog.String("email", user.Email))
	return nil
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Service) UpdateUser(ctx context.Context, user *models.User) error {
	return s.DB.WithContext(ctx).Save(user).Error
}

func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.DB.WithContext(ctx).Order("created_at asc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// CreateConnectionRequest fails with ErrAlreadyExists when the two users are
// already connected or a request between them is pending in either direction.
func (s *Service) CreateConnectionRequest(ctx context.Context, from, to string) (*models.ConnectionRequest, error) {
	var req *models.ConnectionRequest
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		err := tx.Model(&models.ConnectionRequest{}).
			Where("(from_email = ? AND to_email = ?) OR (from_email = ? AND to_email = ?)", from, to, to, from).
			Count(&n).Error
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("request %s -> %s: %w", from, to, ErrAlreadyExists)
		}
		req = &models.ConnectionRequest{From: from, To: to, Status: models.RequestPending}
		return tx.Create(req).Error
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (s *Service) AcceptConnectionRequest(ctx context.Context, from, to string) error {
	res := s.DB.WithContext(ctx).Model(&models.ConnectionRequest{}).
		Where("from_email = ? AND to_email = ? AND status = ?", from, to, models.RequestPending).
		Update("status", models.RequestAccepted)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("pending request %s -> %s: %w", from, to, ErrNotFound)
	}
	return nil
}

func (s *Service) ListPendingRequests(ctx context.Context, to string) ([]models.ConnectionRequest, error) {
	var reqs []models.ConnectionRequest
	err := s.DB.WithContext(ctx).
		Where("to_email = ? AND status = ?", to, models.RequestPending).
		Order("created_at asc").
		Find(&reqs).Error
	return reqs, err
}

// ListConnections returns the emails of everyone with an accepted request to or from email.
func (s *Service) ListConnections(ctx context.Context, email string) ([]string, error) {
	var reqs []models.ConnectionRequest
	err := s.DB.WithContext(ctx).
		Where("(from_email = ? OR to_email = ?) AND status = ?", email, email, models.RequestAccepted).
		Order("updated_at asc").
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}

	emails := make([]string, 0, len(reqs))
	for _, r := range reqs {
		if r.From == email {
			emails = append(emails, r.To)
		} else {
			emails = append(emails, r.From)
		}
	}
	return emails, nil
}
