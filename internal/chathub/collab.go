package chathub

import (
	"context"
	"devlinkr/backend/internal/models"
	"devlinkr/backend/internal/storage"
	"errors"
	"fmt"
)

// Room relays. The hub keeps no copy of the code: whatever arrives last is
// what the other members display.

func (m *ManagerService) handleJoinRoom(c Client, e models.JoinRoomEvent) {
	members := m.Rooms.Join(e.Room, e.Name, c)
	m.broadcastRoom(e.Room, nil, models.OutboundEvent{Event: models.EventJoinedUsers, Payload: members})
}

func (m *ManagerService) handleRoomTyping(c Client, e models.RoomTypingEvent) {
	if !m.Rooms.InRoom(c, e.Room) {
		return
	}
	m.broadcastRoom(e.Room, c, models.OutboundEvent{Event: models.EventUserTyping, Payload: e.Name})
}

func (m *ManagerService) handleCodeUpdate(c Client, e models.CodeUpdateEvent) {
	if !m.Rooms.InRoom(c, e.Room) {
		return
	}
	m.broadcastRoom(e.Room, c, models.OutboundEvent{Event: models.EventCodeUpdate, Payload: e})
}

func (m *ManagerService) handleCursorMove(c Client, e models.CursorMoveEvent) {
	if !m.Rooms.InRoom(c, e.Room) {
		return
	}
	m.broadcastRoom(e.Room, c, models.OutboundEvent{
		Event:   models.EventCursorMove,
		Payload: models.CursorPayload{Position: e.Position},
	})
}

func (m *ManagerService) handleRoomMessage(c Client, e models.RoomMessageEvent) {
	m.broadcastRoom(e.Room, c, models.OutboundEvent{Event: models.EventNewMessage, Payload: e.Raw})
}

// SessionService saves and restores room snapshots. It is independent of the
// live relay: clients save explicitly or on an autosave timer.
type SessionService struct {
	Storage storage.SessionStore
}

func NewSessionService(s storage.SessionStore) *SessionService {
	return &SessionService{Storage: s}
}

// Save upserts the room snapshot. An empty language falls back to the default.
func (s *SessionService) Save(ctx context.Context, room, code, language string) (*models.CodeSession, error) {
	if room == "" {
		return nil, errors.New("room is required")
	}
	if language == "" {
		language = models.DefaultLanguage
	}
	session := &models.CodeSession{Room: room, Code: code, Language: language}
	if err := s.Storage.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session %s: %w", room, err)
	}
	return session, nil
}

// Load returns storage.ErrNotFound for a fresh room.
func (s *SessionService) Load(ctx context.Context, room string) (*models.CodeSession, error) {
	session, err := s.Storage.LoadSession(ctx, room)
	if err != nil {
		return nil, err
	}
	if session.Language == "" {
		session.Language = models.DefaultLanguage
	}
	return session, nil
}
