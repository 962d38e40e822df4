package chathub

import (
	"context"
	"devlinkr/backend/internal/models"
	"devlinkr/backend/internal/storage"
	"log/slog"
)

// Inbound is one event read from a client.
type Inbound struct {
	Client   Client
	Envelope models.Envelope
}

// ManagerService is the realtime dispatcher. All registry state is owned by
// the goroutine running Run; everything else talks to it through channels.
// Storage calls run in their own goroutines and post their continuation back
// onto the loop, so a slow store never stalls unrelated events.
type ManagerService struct {
	Presence *PresenceRegistry
	Rooms    *RoomRegistry
	clients  map[Client]struct{}

	deliveries map[deliveryKey][]*pendingDelivery

	// Channels
	RegisterCh   chan Client
	UnregisterCh chan Client
	IncomingCh   chan Inbound
	NotifyCh     chan models.Notification

	continuations chan func()

	Storage storage.MessageStore
	logger  *slog.Logger

	ctx  context.Context
	done chan struct{}
}

type Option func(*ManagerService)

func WithLogger(logger *slog.Logger) Option {
	return func(m *ManagerService) { m.logger = logger }
}

func NewManagerService(s storage.MessageStore, opts ...Option) *ManagerService {
	m := &ManagerService{
		Presence:      NewPresenceRegistry(),
		Rooms:         NewRoomRegistry(),
		clients:       make(map[Client]struct{}),
		deliveries:    make(map[deliveryKey][]*pendingDelivery),
		RegisterCh:    make(chan Client),
		UnregisterCh:  make(chan Client),
		IncomingCh:    make(chan Inbound),
		NotifyCh:      make(chan models.Notification),
		continuations: make(chan func(), 64),
		Storage:       s,
		logger:        slog.Default(),
		ctx:           context.Background(),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(slog.String("component", "chathub"))
	return m
}

// Run is the dispatch loop. It returns when ctx is cancelled, after closing
// every live client.
func (m *ManagerService) Run(ctx context.Context) {
	m.ctx = ctx
	defer close(m.done)
	m.logger.Info("chat hub started")

	for {
		select {
		case <-ctx.Done():
			for c := range m.clients {
				c.Close()
			}
			m.clients = make(map[Client]struct{})
			m.logger.Info("chat hub stopped")
			return

		case c := <-m.RegisterCh:
			m.clients[c] = struct{}{}
			m.logger.Debug("client connected", slog.String("conn", c.ID()))

		case c := <-m.UnregisterCh:
			m.disconnect(c)

		case in := <-m.IncomingCh:
			m.handleIncoming(in)

		case n := <-m.NotifyCh:
			m.handleNotification(n)

		case fn := <-m.continuations:
			fn()
		}
	}
}

// Connect hands a new client to the hub.
func (m *ManagerService) Connect(c Client) bool {
	select {
	case m.RegisterCh <- c:
		return true
	case <-m.done:
		return false
	}
}

// Disconnect tells the hub the client's transport is gone.
func (m *ManagerService) Disconnect(c Client) {
	select {
	case m.UnregisterCh <- c:
	case <-m.done:
	}
}

// Dispatch queues one inbound frame from c.
func (m *ManagerService) Dispatch(c Client, env models.Envelope) bool {
	select {
	case m.IncomingCh <- Inbound{Client: c, Envelope: env}:
		return true
	case <-m.done:
		return false
	}
}

// Do runs fn on the dispatch loop and waits for it to finish.
func (m *ManagerService) Do(fn func()) bool {
	finished := make(chan struct{})
	if !m.post(func() {
		fn()
		close(finished)
	}) {
		return false
	}
	select {
	case <-finished:
		return true
	case <-m.done:
		return false
	}
}

// OnlineUsers returns a snapshot of the registered identities.
func (m *ManagerService) OnlineUsers() []string {
	var users []string
	m.Do(func() { users = m.Presence.Identities() })
	return users
}

func (m *ManagerService) post(fn func()) bool {
	select {
	case m.continuations <- fn:
		return true
	case <-m.done:
		return false
	}
}

// goStore runs a storage call off the loop.
func (m *ManagerService) goStore(fn func(ctx context.Context)) {
	ctx := m.ctx
	go fn(ctx)
}

func (m *ManagerService) disconnect(c Client) {
	if _, ok := m.clients[c]; !ok {
		return
	}
	delete(m.clients, c)

	identity, changed := m.Presence.Unregister(c)
	affected := m.Rooms.Leave(c)
	c.Close()

	m.logger.Debug("client disconnected",
		slog.String("conn", c.ID()), slog.String("identity", identity), slog.Int("online", m.Presence.Len()))

	if changed {
		m.broadcastOnlineUsers()
	}
	for roomID, members := range affected {
		m.broadcastRoom(roomID, nil, models.OutboundEvent{Event: models.EventJoinedUsers, Payload: members})
	}
}

func (m *ManagerService) handleIncoming(in Inbound) {
	if _, ok := m.clients[in.Client]; !ok {
		m.logger.Warn("event from unknown connection dropped", slog.String("event", in.Envelope.Event))
		return
	}

	ev, err := models.DecodeEvent(in.Envelope)
	if err != nil {
		m.logger.Warn("malformed event dropped",
			slog.String("conn", in.Client.ID()), slog.String("event", in.Envelope.Event), slog.Any("error", err))
		return
	}

	switch e := ev.(type) {
	case models.RegisterEvent:
		m.Presence.Register(e.Identity, in.Client)
		m.logger.Debug("user registered",
			slog.String("conn", in.Client.ID()), slog.String("identity", e.Identity), slog.Int("online", m.Presence.Len()))
		m.broadcastOnlineUsers()
	case models.DirectTypingEvent:
		m.handleDirectTyping(in.Client, e)
	case models.SendMessageEvent:
		m.handleSendMessage(in.Client, e)
	case models.SeenReceipt:
		m.handleMarkSeen(e)
	case models.JoinRoomEvent:
		m.handleJoinRoom(in.Client, e)
	case models.RoomTypingEvent:
		m.handleRoomTyping(in.Client, e)
	case models.CodeUpdateEvent:
		m.handleCodeUpdate(in.Client, e)
	case models.CursorMoveEvent:
		m.handleCursorMove(in.Client, e)
	case models.RoomMessageEvent:
		m.handleRoomMessage(in.Client, e)
	}
}

func (m *ManagerService) handleDirectTyping(c Client, e models.DirectTypingEvent) {
	from, ok := m.Presence.IdentityOf(c)
	if !ok {
		return
	}
	if to, online := m.Presence.Lookup(e.To); online {
		m.send(to, models.OutboundEvent{Event: models.EventTyping, Payload: models.TypingPayload{From: from}})
	}
}

func (m *ManagerService) handleNotification(n models.Notification) {
	c, ok := m.Presence.Lookup(n.To)
	if !ok {
		return
	}
	m.send(c, models.OutboundEvent{Event: models.EventNotification, Payload: n})
}

func (m *ManagerService) broadcastOnlineUsers() {
	ev := models.OutboundEvent{Event: models.EventOnlineUsers, Payload: m.Presence.Identities()}
	for c := range m.clients {
		m.send(c, ev)
	}
}

// broadcastRoom sends ev to every client in the room except except (may be nil).
func (m *ManagerService) broadcastRoom(roomID string, except Client, ev models.OutboundEvent) {
	for _, c := range m.Rooms.Others(roomID, except) {
		m.send(c, ev)
	}
}

// send never blocks the loop: a client whose buffer is full misses the event.
func (m *ManagerService) send(c Client, ev models.OutboundEvent) {
	select {
	case c.GetSendChannel() <- ev:
	default:
		m.logger.Warn("client send buffer full, event dropped",
			slog.String("conn", c.ID()), slog.String("event", ev.Event))
	}
}
