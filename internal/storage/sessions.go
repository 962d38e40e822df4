package storage

import (
	"context"
	"devlinkr/backend/internal/models"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaveSession creates the room snapshot or overwrites code and language.
func (s *Service) SaveSession(ctx context.Context, session *models.CodeSession) error {
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room"}},
		DoUpdates: clause.AssignmentColumns([]string{"code", "language", "updated_at"}),
	}).Create(session).Error
}

// LoadSession returns ErrNotFound for a room that was never saved.
func (s *Service) LoadSession(ctx context.Context, room string) (*models.CodeSession, error) {
	var session models.CodeSession
	err := s.DB.WithContext(ctx).Where("room = ?", room).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// DeleteSession drops a room snapshot. Used by the admin tool only.
func (s *Service) DeleteSession(ctx context.Context, room string) error {
	res := s.DB.WithContext(ctx).Where("room = ?", room).Delete(&models.CodeSession{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
