package app

import (
	"errors"
	"fmt"

	chatdomain "joa_realtime/internal/chat/domain"
)

var (
	// ErrNotRoomMember member is not part of the room
	ErrNotRoomMember = errors.New("member is not in this room")
	// ErrInvalidMembers a room needs two different members
	ErrInvalidMembers = errors.New("room needs two different members")
	// ErrAlreadyExtended room got its seven days before
	ErrAlreadyExtended = errors.New("room already extended")
	// ErrEmptyContent message has no content
	ErrEmptyContent = errors.New("message content is empty")
)

// RoomClosedError the room no longer takes messages
type RoomClosedError struct {
	RoomID int64
	Kind   chatdomain.NoticeKind
}

func (e *RoomClosedError) Error() string {
	return fmt.Sprintf("room %d closed: %s", e.RoomID, e.Kind)
}
