package chathub_test

import (
	"context"
	"devlinkr/backend/internal/chathub"
	"devlinkr/backend/internal/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quiet = 100 * time.Millisecond

func TestManager_RegisterBroadcastsOnlineUsers(t *testing.T) {
	hub := startHub(t, &MockStorage{})
	a := connect(t, hub, "conn-a")
	b := connect(t, hub, "conn-b")

	emit(t, hub, a, models.EventRegister, "a@x.com")

	assert.Equal(t, []string{"a@x.com"}, a.Await(t, models.EventOnlineUsers).Payload)
	assert.Equal(t, []string{"a@x.com"}, b.Await(t, models.EventOnlineUsers).Payload)

	emit(t, hub, b, models.EventRegister, "b@x.com")

	assert.Equal(t, []string{"a@x.com", "b@x.com"}, a.Await(t, models.EventOnlineUsers).Payload)
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, hub.OnlineUsers())
}

func TestManager_ReRegisterKeepsLatestHandle(t *testing.T) {
	hub := startHub(t, &MockStorage{})
	first := register(t, hub, "a@x.com")
	second := connect(t, hub, "conn-a-2")

	emit(t, hub, second, models.EventRegister, "a@x.com")
	settle(t, hub)

	var got chathub.Client
	hub.Do(func() { got, _ = hub.Presence.Lookup("a@x.com") })
	assert.Equal(t, second, got)

	// The superseded connection closing leaves a@x.com online.
	hub.Disconnect(first)
	settle(t, hub)
	assert.True(t, first.Closed())
	assert.Equal(t, []string{"a@x.com"}, hub.OnlineUsers())
}

func TestManager_DisconnectRebroadcasts(t *testing.T) {
	hub := startHub(t, &MockStorage{})
	a := register(t, hub, "a@x.com")
	b := register(t, hub, "b@x.com")
	a.Drain()

	hub.Disconnect(b)

	assert.Equal(t, []string{"a@x.com"}, a.Await(t, models.EventOnlineUsers).Payload)
	assert.True(t, b.Closed())
	assert.Equal(t, []string{"a@x.com"}, hub.OnlineUsers())
}

func TestManager_AnonymousDisconnectIsSilent(t *testing.T) {
	hub := startHub(t, &MockStorage{})
	a := register(t, hub, "a@x.com")
	anon := connect(t, hub, "anon")

	hub.Disconnect(anon)
	settle(t, hub)

	assert.True(t, anon.Closed())
	a.AssertNone(t, models.EventOnlineUsers, quiet)
}

func TestManager_DoubleDisconnect(t *testing.T) {
	hub := startHub(t, &MockStorage{})
	a := register(t, hub, "a@x.com")
	b := register(t, hub, "b@x.com")
	a.Drain()

	hub.Disconnect(b)
	a.Await(t, models.EventOnlineUsers)
	hub.Disconnect(b)
	settle(t, hub)

	a.AssertNone(t, models.EventOnlineUsers, quiet)
}

func TestManager_DirectTyping(t *testing.T) {
	hub := startHub(t, &MockStorage{})
	a := register(t, hub, "a@x.com")
	b := register(t, hub, "b@x.com")
	a.Drain()

	emit(t, hub, a, models.EventTyping, "b@x.com")

	ev := b.Await(t, models.EventTyping)
	assert.Equal(t, models.TypingPayload{From: "a@x.com"}, ev.Payload)
	a.AssertNone(t, models.EventTyping, quiet)
}

func TestManager_DirectTypingRequiresRegistration(t *testing.T) {
	hub := startHub(t, &MockStorage{})
	b := register(t, hub, "b@x.com")
	anon := connect(t, hub, "anon")

	emit(t, hub, anon, models.EventTyping, "b@x.com")
	// Typing to someone offline is a no-op too.
	emit(t, hub, b, models.EventTyping, "ghost@x.com")
	settle(t, hub)

	b.AssertNone(t, models.EventTyping, quiet)
}

func TestManager_MalformedEventsDropped(t *testing.T) {
	hub := startHub(t, &MockStorage{})
	a := register(t, hub, "a@x.com")
	b := register(t, hub, "b@x.com")
	emit(t, hub, a, models.EventJoinRoom, models.JoinRoomEvent{Room: "room1", Name: "A"})
	emit(t, hub, b, models.EventJoinRoom, models.JoinRoomEvent{Room: "room1", Name: "B"})
	settle(t, hub)
	b.Drain()

	tests := []models.Envelope{
		{Event: models.EventCodeUpdate, Payload: []byte(`{"code":"x=1"}`)},
		{Event: models.EventCodeUpdate, Payload: []byte(`not json`)},
		{Event: models.EventRegister, Payload: nil},
		{Event: "teleport", Payload: []byte(`{}`)},
	}
	for _, env := range tests {
		require.True(t, hub.Dispatch(a, env))
	}
	settle(t, hub)

	assert.Empty(t, b.Drain())
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, hub.OnlineUsers())
}

func TestManager_EventsFromUnknownConnectionDropped(t *testing.T) {
	hub := startHub(t, &MockStorage{})
	a := register(t, hub, "a@x.com")
	stranger := newMockClient("stranger")

	emit(t, hub, stranger, models.EventRegister, "evil@x.com")
	settle(t, hub)

	assert.Equal(t, []string{"a@x.com"}, hub.OnlineUsers())
	assert.Empty(t, a.Drain())
}

func TestManager_Notification(t *testing.T) {
	hub := startHub(t, &MockStorage{})
	b := register(t, hub, "b@x.com")
	n := models.Notification{Type: models.NotificationConnectionRequest, To: "b@x.com", From: "a@x.com", Name: "Ann"}

	hub.NotifyCh <- n
	hub.NotifyCh <- models.Notification{Type: models.NotificationConnectionRequest, To: "offline@x.com"}

	assert.Equal(t, n, b.Await(t, models.EventNotification).Payload)
	b.AssertNone(t, models.EventNotification, quiet)
}

func TestManager_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	hub := startHub(t, &MockStorage{})
	slow := &MockClient{id: "slow", send: make(chan models.OutboundEvent)}
	require.True(t, hub.Connect(slow))

	emit(t, hub, slow, models.EventRegister, "slow@x.com")
	settle(t, hub)

	assert.Equal(t, []string{"slow@x.com"}, hub.OnlineUsers())
}

func TestManager_ShutdownClosesClients(t *testing.T) {
	hub := chathub.NewManagerService(&MockStorage{}, chathub.WithLogger(discardLogger()))
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	a := connect(t, hub, "a")

	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	assert.True(t, a.Closed())
	assert.False(t, hub.Connect(newMockClient("late")))
	assert.False(t, hub.Dispatch(a, models.Envelope{Event: models.EventRegister}))
}
