package handler_test

import (
	"context"
	"devlinkr/backend/internal/models"
	"devlinkr/backend/internal/storage"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockStore is a testify mock of storage.Storage.
type MockStore struct {
	mock.Mock
}

var _ storage.Storage = (*MockStore)(nil)

func (m *MockStore) CreateMessage(ctx context.Context, msg *models.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *MockStore) MarkDelivered(ctx context.Context, ref models.MessageRef) (int64, error) {
	args := m.Called(ctx, ref)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) MarkSeen(ctx context.Context, sender, receiver string) (int64, error) {
	args := m.Called(ctx, sender, receiver)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) GetChatHistory(ctx context.Context, user1, user2 string) ([]models.Message, error) {
	args := m.Called(ctx, user1, user2)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockStore) CountUnseen(ctx context.Context, sender, receiver string) (int64, error) {
	args := m.Called(ctx, sender, receiver)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) SaveSession(ctx context.Context, session *models.CodeSession) error {
	return m.Called(ctx, session).Error(0)
}

func (m *MockStore) LoadSession(ctx context.Context, room string) (*models.CodeSession, error) {
	args := m.Called(ctx, room)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CodeSession), args.Error(1)
}

func (m *MockStore) CreateUser(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStore) UpdateUser(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockStore) ListUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockStore) CreateConnectionRequest(ctx context.Context, from, to string) (*models.ConnectionRequest, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ConnectionRequest), args.Error(1)
}

func (m *MockStore) AcceptConnectionRequest(ctx context.Context, from, to string) error {
	return m.Called(ctx, from, to).Error(0)
}

func (m *MockStore) ListPendingRequests(ctx context.Context, to string) ([]models.ConnectionRequest, error) {
	args := m.Called(ctx, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ConnectionRequest), args.Error(1)
}

func (m *MockStore) ListConnections(ctx context.Context, email string) ([]string, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStore) SaveOTP(ctx context.Context, email, code string, ttl time.Duration) error {
	return m.Called(ctx, email, code, ttl).Error(0)
}

func (m *MockStore) VerifyOTP(ctx context.Context, email, code string, ttl time.Duration) error {
	return m.Called(ctx, email, code, ttl).Error(0)
}

func (m *MockStore) IsEmailVerified(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) ClearVerification(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockStore) PublishNotification(ctx context.Context, n models.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *MockStore) SubscribeNotifications(ctx context.Context) (<-chan models.Notification, func() error) {
	args := m.Called(ctx)
	return args.Get(0).(<-chan models.Notification), args.Get(1).(func() error)
}

// captureMailer records the last code it was asked to send.
type captureMailer struct {
	mu    sync.Mutex
	email string
	code  string
}

func (m *captureMailer) SendOTP(_ context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.email, m.code = email, code
	return nil
}

func (m *captureMailer) last() (string, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.email, m.code
}

// fakeClient is a hub connection that never touches the network.
type fakeClient struct {
	id   string
	send chan models.OutboundEvent
}

func newFakeClient(id string) *fakeClient {
	return &fakeClient{id: id, send: make(chan models.OutboundEvent, 16)}
}

func (c *fakeClient) ID() string                                  { return c.id }
func (c *fakeClient) GetSendChannel() chan<- models.OutboundEvent { return c.send }
func (c *fakeClient) Run()                                        {}
func (c *fakeClient) Close()                                      {}
