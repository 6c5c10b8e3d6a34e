package app

import (
	"context"
	"errors"

	"joa_realtime/internal/chat/conn"
	"joa_realtime/internal/chat/domain"
	"joa_realtime/internal/chat/protocol"
)

var (
	// ErrNotStarted use case was not started yet
	ErrNotStarted = errors.New("use case not started")
	// ErrStopped use case was stopped
	ErrStopped = errors.New("use case stopped")
)

// Connection the part of conn.Manager the use cases drive
type Connection interface {
	Open(ctx context.Context) error
	Close()
	Send(ctx context.Context, text string) error
	Events() <-chan conn.Event
}

// RoomLister list the inbox through REST
type RoomLister interface {
	ListRooms(ctx context.Context, memberID int64) ([]domain.ChatRoomSummary, error)
}

// RoomAPI history, leave and extension calls of one room
type RoomAPI interface {
	LoadMessages(ctx context.Context, roomID, memberID int64) ([]protocol.HistoryLine, error)
	LeaveRoom(ctx context.Context, roomID, memberID int64) error
	VoteExtension(ctx context.Context, roomID, memberID int64, result string) (domain.VoteResult, error)
	ExtendRoom(ctx context.Context, roomID int64) error
}
