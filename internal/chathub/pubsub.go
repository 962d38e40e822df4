package chathub

import (
	"context"
	"devlinkr/backend/internal/models"
)

// ListenNotifications forwards notifications (from Redis Pub/Sub in
// production) into the hub until src closes or ctx is done.
func (m *ManagerService) ListenNotifications(ctx context.Context, src <-chan models.Notification) {
	m.logger.Info("notification listener started")
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-src:
			if !ok {
				m.logger.Info("notification source closed")
				return
			}
			select {
			case m.NotifyCh <- n:
			case <-m.done:
				return
			}
		}
	}
}
