package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MessageStatus is the delivery state of a direct message.
// A message only ever moves forward: sent -> delivered -> seen.
type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusSeen      MessageStatus = "seen"
)

func (s MessageStatus) rank() int {
	switch s {
	case StatusSent:
		return 1
	case StatusDelivered:
		return 2
	case StatusSeen:
		return 3
	default:
		return 0
	}
}

// Valid reports whether s is one of the known statuses.
func (s MessageStatus) Valid() bool {
	return s.rank() > 0
}

// CanAdvanceTo reports whether moving from s to next is a forward transition.
// "seen" is absorbing.
func (s MessageStatus) CanAdvanceTo(next MessageStatus) bool {
	return next.Valid() && next.rank() > s.rank()
}

// StatusesBefore lists the statuses a message may be in for an update to
// next to be applied. Store updates filter on it so a status never moves back.
func StatusesBefore(next MessageStatus) []MessageStatus {
	var from []MessageStatus
	for _, s := range []MessageStatus{StatusSent, StatusDelivered, StatusSeen} {
		if s.CanAdvanceTo(next) {
			from = append(from, s)
		}
	}
	return from
}

// Message is a persisted direct message between two users.
// Sender and Receiver are user emails.
type Message struct {
	ID string `gorm:"primaryKey;type:uuid" json:"id"`
	// Sender is the email of the author.
	Sender string `gorm:"type:text;not null;index:idx_msg_pair" json:"sender"`
	// Receiver is the email of the single recipient.
	Receiver string `gorm:"type:text;not null;index:idx_msg_pair" json:"receiver"`
	// Message is the body: plain text or a file URL.
	Message string        `gorm:"type:text;not null" json:"message"`
	Status  MessageStatus `gorm:"type:text;not null;default:sent;index" json:"status"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate assigns an id and the initial status.
func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.Status == "" {
		m.Status = StatusSent
	}
	return
}

// MessageRef identifies the stored message a realtime send refers to.
// When ID is empty the store falls back to matching on content.
type MessageRef struct {
	ID       string
	Sender   string
	Receiver string
	Message  string
}
