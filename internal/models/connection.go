package models

import "time"

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
)

// ConnectionRequest links two users once accepted.
type ConnectionRequest struct {
	ID     uint          `gorm:"primaryKey" json:"id"`
	From   string        `gorm:"column:from_email;type:text;not null;index" json:"from"`
	To     string        `gorm:"column:to_email;type:text;not null;index" json:"to"`
	Status RequestStatus `gorm:"type:text;not null;default:pending" json:"status"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

const (
	NotificationConnectionRequest = "connectionRequest"
	NotificationRequestAccepted   = "requestAccepted"
)

// Notification is pushed to an online user when something happens to
// their connections.
type Notification struct {
	Type string `json:"type"`
	To   string `json:"to"`
	From string `json:"from"`
	Name string `json:"name,omitempty"`
}
