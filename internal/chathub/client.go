package chathub

import "devlinkr/backend/internal/models"

// Client is one live realtime connection (the connection handle).
// Identity and room membership are tracked by the hub's registries, not by
// the client itself.
type Client interface {
	// ID returns the unique connection id, used for logging only.
	ID() string

	// GetSendChannel returns the channel the ManagerService writes outbound
	// events to. The hub never sends on it after calling Close.
	GetSendChannel() chan<- models.OutboundEvent

	// Run starts the client's read and write pumps.
	Run()
	// Close shuts the connection down. Called once, by the hub.
	Close()
}
