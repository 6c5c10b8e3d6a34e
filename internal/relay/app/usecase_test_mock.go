package app

import (
	"context"
	"time"

	"joa_realtime/internal/relay/domain"

	"github.com/stretchr/testify/mock"
)

// MockRoomRepository Mock RoomRepository
type MockRoomRepository struct {
	mock.Mock
}

// CreateRoom moke create room
func (m *MockRoomRepository) CreateRoom(ctx context.Context, room *domain.ChatRoom) (bool, error) {
	args := m.Called(ctx, room)
	return args.Bool(0), args.Error(1)
}

// FindByID moke find room by room id
func (m *MockRoomRepository) FindByID(ctx context.Context, roomID int64) (*domain.ChatRoom, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.ChatRoom), args.Error(1)
	}
	return nil, args.Error(1)
}

// UpdateRoom moke update room
func (m *MockRoomRepository) UpdateRoom(ctx context.Context, room *domain.ChatRoom) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

// FindByMember moke rooms of a member
func (m *MockRoomRepository) FindByMember(ctx context.Context, memberID int64) ([]domain.ChatRoom, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.ChatRoom), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockMessageRepository Mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// AppendMessage moke append msg to the day bucket
func (m *MockMessageRepository) AppendMessage(ctx context.Context, roomID int64, date string, msg domain.ChatMessage) error {
	args := m.Called(ctx, roomID, date, msg)
	return args.Error(0)
}

// FindBucket moke find room message date by bucket
func (m *MockMessageRepository) FindBucket(ctx context.Context, roomID int64, date string) (*domain.MessageBucket, error) {
	args := m.Called(ctx, roomID, date)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.MessageBucket), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindMessages moke all messages of a room
func (m *MockMessageRepository) FindMessages(ctx context.Context, roomID int64) ([]domain.ChatMessage, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.ChatMessage), args.Error(1)
	}
	return nil, args.Error(1)
}

// MarkRoomRead moke mark peer messages read
func (m *MockMessageRepository) MarkRoomRead(ctx context.Context, roomID, memberID int64) (int64, error) {
	args := m.Called(ctx, roomID, memberID)
	return args.Get(0).(int64), args.Error(1)
}

// CountUnreadMessagesByRoom moke get count unread by member id
func (m *MockMessageRepository) CountUnreadMessagesByRoom(ctx context.Context, memberID int64) ([]domain.RoomUnreadInfo, error) {
	args := m.Called(ctx, memberID)
	return args.Get(0).([]domain.RoomUnreadInfo), args.Error(1)
}

// LastMessage moke newest message
func (m *MockMessageRepository) LastMessage(ctx context.Context, roomID int64) (*domain.ChatMessage, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.ChatMessage), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockPubSub Mock PubSub
type MockPubSub struct {
	mock.Mock
}

// Publish moke publish
func (m *MockPubSub) Publish(ctx context.Context, channel, payload string) error {
	args := m.Called(ctx, channel, payload)
	return args.Error(0)
}

// Subscribe moke subscribe
func (m *MockPubSub) Subscribe(ctx context.Context, channel string, handler func(payload string)) error {
	args := m.Called(ctx, channel, handler)
	return args.Error(0)
}

// MockSequence Mock Sequence
type MockSequence struct {
	mock.Mock
}

// Next moke next id
func (m *MockSequence) Next(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockProfileRepository Mock RedisRepository[MemberProfile]
type MockProfileRepository struct {
	mock.Mock
}

// Set moke set
func (m *MockProfileRepository) Set(ctx context.Context, key string, value domain.MemberProfile, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

// Get moke get
func (m *MockProfileRepository) Get(ctx context.Context, key string) (domain.MemberProfile, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(domain.MemberProfile), args.Error(1)
}

// Del moke del
func (m *MockProfileRepository) Del(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// GetTTL moke get ttl
func (m *MockProfileRepository) GetTTL(ctx context.Context, key string) (int, error) {
	args := m.Called(ctx, key)
	return args.Int(0), args.Error(1)
}

// ExtendTTL moke extend ttl
func (m *MockProfileRepository) ExtendTTL(ctx context.Context, key string, ttl time.Duration) error {
	args := m.Called(ctx, key, ttl)
	return args.Error(0)
}
