package app

import (
	"context"

	"joa_realtime/internal/chat/conn"
	"joa_realtime/internal/chat/domain"
	"joa_realtime/internal/chat/protocol"

	"github.com/stretchr/testify/mock"
)

// MockRoomLister Mock RoomLister
type MockRoomLister struct {
	mock.Mock
}

// ListRooms mock list rooms
func (m *MockRoomLister) ListRooms(ctx context.Context, memberID int64) ([]domain.ChatRoomSummary, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.ChatRoomSummary), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockRoomAPI Mock RoomAPI
type MockRoomAPI struct {
	mock.Mock
}

// LoadMessages mock load history
func (m *MockRoomAPI) LoadMessages(ctx context.Context, roomID, memberID int64) ([]protocol.HistoryLine, error) {
	args := m.Called(ctx, roomID, memberID)
	if args.Get(0) != nil {
		return args.Get(0).([]protocol.HistoryLine), args.Error(1)
	}
	return nil, args.Error(1)
}

// LeaveRoom mock leave room
func (m *MockRoomAPI) LeaveRoom(ctx context.Context, roomID, memberID int64) error {
	args := m.Called(ctx, roomID, memberID)
	return args.Error(0)
}

// VoteExtension mock vote extension
func (m *MockRoomAPI) VoteExtension(ctx context.Context, roomID, memberID int64, result string) (domain.VoteResult, error) {
	args := m.Called(ctx, roomID, memberID, result)
	return args.Get(0).(domain.VoteResult), args.Error(1)
}

// ExtendRoom mock extend room
func (m *MockRoomAPI) ExtendRoom(ctx context.Context, roomID int64) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

// MockConnection Mock Connection, the test feeds events through Push
type MockConnection struct {
	mock.Mock
	events chan conn.Event
}

// NewMockConnection create mock connection with a buffered event channel
func NewMockConnection() *MockConnection {
	return &MockConnection{events: make(chan conn.Event, 16)}
}

// Open mock open
func (m *MockConnection) Open(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mock close
func (m *MockConnection) Close() {
	m.Called()
}

// Send mock send
func (m *MockConnection) Send(ctx context.Context, text string) error {
	args := m.Called(ctx, text)
	return args.Error(0)
}

// Events mock events
func (m *MockConnection) Events() <-chan conn.Event {
	return m.events
}

// Push deliver one event to the use case
func (m *MockConnection) Push(ev conn.Event) {
	m.events <- ev
}
