package chathub

import (
	"context"
	"devlinkr/backend/internal/models"
	"log/slog"
)

// deliveryKey groups the pushes one connection sends to one receiver. Pushes
// under a key leave in the order their sendMessage events arrived, however the
// store calls behind them finish.
type deliveryKey struct {
	from Client
	to   string
}

type pendingDelivery struct {
	done bool
	push func()
}

// handleSendMessage pushes a stored message to its receiver if they are
// online right now. The store is updated to "delivered" first; the push only
// happens if that succeeded and the receiver's connection is still alive.
// An offline receiver is the normal case: the message simply stays "sent".
func (m *ManagerService) handleSendMessage(from Client, e models.SendMessageEvent) {
	receiver, online := m.Presence.Lookup(e.To)
	if !online {
		m.logger.Debug("recipient offline, message stays sent", slog.String("to", e.To))
		return
	}

	key := deliveryKey{from: from, to: e.To}
	pending := &pendingDelivery{}
	m.deliveries[key] = append(m.deliveries[key], pending)

	ref := e.Ref()
	m.goStore(func(ctx context.Context) {
		n, err := m.Storage.MarkDelivered(ctx, ref)
		if err != nil {
			m.logger.Error("failed to mark message delivered",
				slog.String("sender", ref.Sender), slog.String("receiver", ref.Receiver), slog.Any("error", err))
			m.post(func() {
				pending.done = true
				m.flushDeliveries(key)
			})
			return
		}
		if n == 0 {
			m.logger.Debug("no sent message matched delivery update",
				slog.String("id", ref.ID), slog.String("sender", ref.Sender))
		}

		m.post(func() {
			pending.done = true
			pending.push = func() {
				if _, live := m.clients[receiver]; !live {
					return
				}
				m.send(receiver, models.OutboundEvent{
					Event:   models.EventNewMessage,
					Payload: e.WithStatus(models.StatusDelivered),
				})
			}
			m.flushDeliveries(key)
		})
	})
}

// flushDeliveries pushes the finished head of key's queue and stops at the
// first delivery still waiting on the store.
func (m *ManagerService) flushDeliveries(key deliveryKey) {
	queue := m.deliveries[key]
	for len(queue) > 0 && queue[0].done {
		if queue[0].push != nil {
			queue[0].push()
		}
		queue = queue[1:]
	}
	if len(queue) == 0 {
		delete(m.deliveries, key)
		return
	}
	m.deliveries[key] = queue
}

// handleMarkSeen marks the sender->receiver conversation seen and tells the
// original sender, if online, so their ticks can update. Repeating it is
// harmless.
func (m *ManagerService) handleMarkSeen(r models.SeenReceipt) {
	m.goStore(func(ctx context.Context) {
		if _, err := m.Storage.MarkSeen(ctx, r.Sender, r.Receiver); err != nil {
			m.logger.Error("failed to mark messages seen",
				slog.String("sender", r.Sender), slog.String("receiver", r.Receiver), slog.Any("error", err))
			return
		}
		m.post(func() { m.pushStatusUpdated(r) })
	})
}

// NotifySeen is used when messages were already marked seen elsewhere (the
// REST endpoint) and only the sender needs to hear about it.
func (m *ManagerService) NotifySeen(sender, receiver string) {
	m.post(func() { m.pushStatusUpdated(models.SeenReceipt{Sender: sender, Receiver: receiver}) })
}

func (m *ManagerService) pushStatusUpdated(r models.SeenReceipt) {
	if c, ok := m.Presence.Lookup(r.Sender); ok {
		m.send(c, models.OutboundEvent{Event: models.EventStatusUpdated, Payload: r})
	}
}
