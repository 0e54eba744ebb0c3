package service

import (
	"context"
	"sync"
	"time"

	"dareduel/internal/microservices/http-api/models"
	"dareduel/internal/shared"
	"dareduel/pkg/realtime"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository mocks the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByUsername(username string) (*models.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByFriendCode(code string) (*models.User, error) {
	args := m.Called(code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByIDs(ids []string) ([]models.User, error) {
	args := m.Called(ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) Search(query string, excludeIDs []string, limit, offset int) ([]models.User, int64, error) {
	args := m.Called(query, excludeIDs, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) Update(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) SetFriendCode(userID, code string) error {
	args := m.Called(userID, code)
	return args.Error(0)
}

// MockRefreshTokenRepository mocks the RefreshTokenRepository interface
type MockRefreshTokenRepository struct {
	mock.Mock
}

func (m *MockRefreshTokenRepository) Create(token *models.RefreshToken) error {
	args := m.Called(token)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) FindByToken(token string) (*models.RefreshToken, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RefreshToken), args.Error(1)
}

func (m *MockRefreshTokenRepository) Revoke(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

// MockFriendRepository mocks the FriendRepository interface
type MockFriendRepository struct {
	mock.Mock
}

func (m *MockFriendRepository) CreateRequest(ctx context.Context, request *models.FriendRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockFriendRepository) FindRequestByID(ctx context.Context, id string) (*models.FriendRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FriendRequest), args.Error(1)
}

func (m *MockFriendRepository) FindPendingBetween(ctx context.Context, userA, userB string) (*models.FriendRequest, error) {
	args := m.Called(ctx, userA, userB)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FriendRequest), args.Error(1)
}

func (m *MockFriendRepository) ListRequests(ctx context.Context, userID, direction string, limit, offset int) ([]models.FriendRequest, int64, error) {
	args := m.Called(ctx, userID, direction, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.FriendRequest), args.Get(1).(int64), args.Error(2)
}

func (m *MockFriendRepository) UpdateRequest(ctx context.Context, request *models.FriendRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockFriendRepository) CreateFriendship(ctx context.Context, userA, userB, requestID string) error {
	args := m.Called(ctx, userA, userB, requestID)
	return args.Error(0)
}

func (m *MockFriendRepository) DeleteFriendship(ctx context.Context, userA, userB string) error {
	args := m.Called(ctx, userA, userB)
	return args.Error(0)
}

func (m *MockFriendRepository) AreFriends(ctx context.Context, userA, userB string) (bool, error) {
	args := m.Called(ctx, userA, userB)
	return args.Bool(0), args.Error(1)
}

func (m *MockFriendRepository) FriendIDs(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockFriendRepository) ListFriends(ctx context.Context, userID string, limit, offset int) ([]models.Friendship, int64, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Friendship), args.Get(1).(int64), args.Error(2)
}

func (m *MockFriendRepository) Block(ctx context.Context, block *models.BlockedUser) error {
	args := m.Called(ctx, block)
	return args.Error(0)
}

func (m *MockFriendRepository) Unblock(ctx context.Context, blockerID, blockedID string) error {
	args := m.Called(ctx, blockerID, blockedID)
	return args.Error(0)
}

func (m *MockFriendRepository) IsBlockedEitherWay(ctx context.Context, userA, userB string) (bool, error) {
	args := m.Called(ctx, userA, userB)
	return args.Bool(0), args.Error(1)
}

func (m *MockFriendRepository) BlockedIDs(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockChallengeRepository mocks the ChallengeRepository interface
type MockChallengeRepository struct {
	mock.Mock
}

func (m *MockChallengeRepository) Create(ctx context.Context, challenge *models.Challenge) error {
	args := m.Called(ctx, challenge)
	return args.Error(0)
}

func (m *MockChallengeRepository) FindByID(ctx context.Context, id string) (*models.Challenge, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Challenge), args.Error(1)
}

func (m *MockChallengeRepository) Update(ctx context.Context, challenge *models.Challenge) error {
	args := m.Called(ctx, challenge)
	return args.Error(0)
}

func (m *MockChallengeRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockChallengeRepository) ListByUser(ctx context.Context, userID, status string, limit, offset int) ([]models.Challenge, int64, error) {
	args := m.Called(ctx, userID, status, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Challenge), args.Get(1).(int64), args.Error(2)
}

func (m *MockChallengeRepository) CountByUserAndStatus(ctx context.Context, userID string) (map[string]int64, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int64), args.Error(1)
}

func (m *MockChallengeRepository) FindStalePending(ctx context.Context, olderThan time.Time, limit int) ([]models.Challenge, error) {
	args := m.Called(ctx, olderThan, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Challenge), args.Error(1)
}

// MockNotificationRepository mocks the NotificationRepository interface
type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

func (m *MockNotificationRepository) GetUnreadByUser(ctx context.Context, userID string) ([]models.Notification, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *MockNotificationRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Notification, int64, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Notification), args.Get(1).(int64), args.Error(2)
}

func (m *MockNotificationRepository) MarkAsRead(ctx context.Context, notificationID int64) error {
	args := m.Called(ctx, notificationID)
	return args.Error(0)
}

func (m *MockNotificationRepository) MarkAllAsRead(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockStatsRepository mocks the StatsRepository interface
type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) GetByUser(ctx context.Context, userID string) (*models.GameStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GameStats), args.Error(1)
}

func (m *MockStatsRepository) Save(ctx context.Context, stats *models.GameStats) error {
	args := m.Called(ctx, stats)
	return args.Error(0)
}

// recordPublisher captures realtime messages by recipient instead of
// delivering them anywhere.
type recordPublisher struct {
	mu       sync.Mutex
	messages map[string][]*realtime.Message
}

func newRecordPublisher() *recordPublisher {
	return &recordPublisher{messages: make(map[string][]*realtime.Message)}
}

func (p *recordPublisher) Publish(userID string, msg *realtime.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages[userID] = append(p.messages[userID], msg)
}

func (p *recordPublisher) PublishAll(msg *realtime.Message, exclude ...string) {
	p.Publish("*", msg)
}

func (p *recordPublisher) sent(userID string) []*realtime.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.messages[userID]
}

// stubPresence reports a fixed set of users as online.
type stubPresence struct {
	online map[string]bool
}

func (s *stubPresence) MarkOnline(ctx context.Context, userID string) error { return nil }

func (s *stubPresence) MarkOffline(ctx context.Context, userID string) error { return nil }

func (s *stubPresence) Refresh(ctx context.Context, userID string) error { return nil }

func (s *stubPresence) IsOnline(ctx context.Context, userID string) bool {
	return s.online[userID]
}

func (s *stubPresence) Snapshot(ctx context.Context, userIDs []string) []shared.PresenceSnapshot {
	snaps := make([]shared.PresenceSnapshot, len(userIDs))
	for i, id := range userIDs {
		snaps[i] = shared.PresenceSnapshot{UserID: id, Online: s.online[id]}
	}
	return snaps
}

// stubNotifications counts pushes without touching a store.
type stubNotifications struct {
	mu     sync.Mutex
	pushed []*models.Notification
}

func (s *stubNotifications) GetUnread(ctx context.Context, userID string) ([]models.Notification, error) {
	return nil, nil
}

func (s *stubNotifications) List(ctx context.Context, userID string, limit, offset int) ([]models.Notification, int64, error) {
	return nil, 0, nil
}

func (s *stubNotifications) MarkAsRead(ctx context.Context, userID string, notificationID int64) error {
	return nil
}

func (s *stubNotifications) MarkAllAsRead(ctx context.Context, userID string) error { return nil }

func (s *stubNotifications) Push(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pushed = append(s.pushed, n)
	return nil
}

func (s *stubNotifications) pushedFor(userID string) []*models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Notification
	for _, n := range s.pushed {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}
