package chathub_test

import (
	"context"
	"devlinkr/backend/internal/chathub"
	"devlinkr/backend/internal/models"
	"devlinkr/backend/internal/storage"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStorage is a testify mock of the stores the hub and its services use.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) CreateMessage(ctx context.Context, msg *models.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockStorage) MarkDelivered(ctx context.Context, ref models.MessageRef) (int64, error) {
	args := m.Called(ctx, ref)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStorage) MarkSeen(ctx context.Context, sender, receiver string) (int64, error) {
	args := m.Called(ctx, sender, receiver)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStorage) GetChatHistory(ctx context.Context, user1, user2 string) ([]models.Message, error) {
	args := m.Called(ctx, user1, user2)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockStorage) CountUnseen(ctx context.Context, sender, receiver string) (int64, error) {
	args := m.Called(ctx, sender, receiver)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStorage) SaveSession(ctx context.Context, session *models.CodeSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockStorage) LoadSession(ctx context.Context, room string) (*models.CodeSession, error) {
	args := m.Called(ctx, room)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CodeSession), args.Error(1)
}

func (m *MockStorage) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) UpdateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockStorage) ListUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

var (
	_ storage.MessageStore = (*MockStorage)(nil)
	_ storage.SessionStore = (*MockStorage)(nil)
	_ storage.UserStore    = (*MockStorage)(nil)
)

// memSessions is a tiny in-memory SessionStore with real upsert semantics.
type memSessions struct {
	mu       sync.Mutex
	sessions map[string]models.CodeSession
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: make(map[string]models.CodeSession)}
}

func (s *memSessions) SaveSession(_ context.Context, session *models.CodeSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Room] = *session
	return nil
}

func (s *memSessions) LoadSession(_ context.Context, room string) (*models.CodeSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[room]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &session, nil
}

// MockClient is a test double for chathub.Client. Outbound events land in a
// buffered channel the test reads from.
type MockClient struct {
	id     string
	send   chan models.OutboundEvent
	closed atomic.Bool
}

func newMockClient(id string) *MockClient {
	return &MockClient{
		id:   id,
		send: make(chan models.OutboundEvent, 64), // Buffered to prevent blocking in tests
	}
}

func (c *MockClient) ID() string                                  { return c.id }
func (c *MockClient) GetSendChannel() chan<- models.OutboundEvent { return c.send }
func (c *MockClient) Run()                                        {}
func (c *MockClient) Close()                                      { c.closed.Store(true) }
func (c *MockClient) Closed() bool                                { return c.closed.Load() }

// Drain returns everything queued so far.
func (c *MockClient) Drain() []models.OutboundEvent {
	var events []models.OutboundEvent
	for {
		select {
		case ev := <-c.send:
			events = append(events, ev)
		default:
			return events
		}
	}
}

// Await waits for the next event with the given name, skipping others.
func (c *MockClient) Await(t *testing.T, event string) models.OutboundEvent {
	t.Helper()
	timeout := time.After(time.Second)
	for {
		select {
		case ev := <-c.send:
			if ev.Event == event {
				return ev
			}
		case <-timeout:
			t.Fatalf("client %s: no %q event within 1s", c.id, event)
			return models.OutboundEvent{}
		}
	}
}

// AssertNone fails if an event with the given name arrives within d.
func (c *MockClient) AssertNone(t *testing.T, event string, d time.Duration) {
	t.Helper()
	timeout := time.After(d)
	for {
		select {
		case ev := <-c.send:
			if ev.Event == event {
				t.Fatalf("client %s: unexpected %q event: %+v", c.id, event, ev.Payload)
			}
		case <-timeout:
			return
		}
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startHub(t *testing.T, s storage.MessageStore) *chathub.ManagerService {
	t.Helper()
	hub := chathub.NewManagerService(s, chathub.WithLogger(discardLogger()))
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub
}

func connect(t *testing.T, hub *chathub.ManagerService, id string) *MockClient {
	t.Helper()
	c := newMockClient(id)
	require.True(t, hub.Connect(c))
	return c
}

func emit(t *testing.T, hub *chathub.ManagerService, c chathub.Client, event string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.True(t, hub.Dispatch(c, models.Envelope{Event: event, Payload: data}))
}

// settle waits until the hub has processed everything sent to it so far.
func settle(t *testing.T, hub *chathub.ManagerService) {
	t.Helper()
	require.True(t, hub.Do(func() {}))
}

// register connects a client and registers identity on it, then clears its inbox.
func register(t *testing.T, hub *chathub.ManagerService, identity string) *MockClient {
	t.Helper()
	c := connect(t, hub, identity)
	emit(t, hub, c, models.EventRegister, identity)
	settle(t, hub)
	c.Drain()
	return c
}
