package app

import (
	"testing"

	"joa_realtime/internal/chat/domain"

	"github.com/stretchr/testify/assert"
)

func roomIDs(rooms []domain.ChatRoomSummary) []int64 {
	ids := make([]int64, 0, len(rooms))
	for _, r := range rooms {
		ids = append(ids, r.RoomID)
	}
	return ids
}

func TestInbox_ApplyPromotesExistingRoom(t *testing.T) {
	in := NewInbox()
	in.Replace([]domain.ChatRoomSummary{{RoomID: 1}, {RoomID: 2}, {RoomID: 3}})

	in.Apply(domain.ChatRoomSummary{RoomID: 3, PeerName: "Kim", UnreadCount: 2, LastMessage: "hi"})

	rooms := in.Rooms()
	assert.Equal(t, []int64{3, 1, 2}, roomIDs(rooms))
	assert.Equal(t, "Kim", rooms[0].PeerName)
	assert.Equal(t, 2, rooms[0].UnreadCount)
	assert.Equal(t, "hi", rooms[0].LastMessage)
}

func TestInbox_ApplyInsertsNewRoomAtFront(t *testing.T) {
	in := NewInbox()
	in.Replace([]domain.ChatRoomSummary{{RoomID: 1}, {RoomID: 2}})

	in.Apply(domain.ChatRoomSummary{RoomID: 9})

	assert.Equal(t, []int64{9, 1, 2}, roomIDs(in.Rooms()))
}

func TestInbox_ApplyFirstRoomKeepsOrder(t *testing.T) {
	in := NewInbox()
	in.Replace([]domain.ChatRoomSummary{{RoomID: 1}, {RoomID: 2}})

	in.Apply(domain.ChatRoomSummary{RoomID: 1, UnreadCount: 5})

	assert.Equal(t, []int64{1, 2}, roomIDs(in.Rooms()))
	assert.Equal(t, 5, in.Rooms()[0].UnreadCount)
}

func TestInbox_Remove(t *testing.T) {
	in := NewInbox()
	in.Replace([]domain.ChatRoomSummary{{RoomID: 1}, {RoomID: 2}})

	assert.True(t, in.Remove(1))
	assert.False(t, in.Remove(1))
	assert.Equal(t, []int64{2}, roomIDs(in.Rooms()))
}

func TestInbox_RoomsIsACopy(t *testing.T) {
	in := NewInbox()
	list := []domain.ChatRoomSummary{{RoomID: 1}}
	in.Replace(list)
	list[0].RoomID = 99

	rooms := in.Rooms()
	rooms[0].RoomID = 42
	assert.Equal(t, []int64{1}, roomIDs(in.Rooms()))
}
