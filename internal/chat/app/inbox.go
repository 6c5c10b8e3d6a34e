package app

import "joa_realtime/internal/chat/domain"

// Inbox ordered room summaries, most recently active first.
// Only the owner goroutine of InboxUseCase touches it.
type Inbox struct {
	rooms []domain.ChatRoomSummary
}

// NewInbox create an empty inbox
func NewInbox() *Inbox {
	return &Inbox{}
}

// Replace load the list from REST, order kept as returned
func (i *Inbox) Replace(list []domain.ChatRoomSummary) {
	i.rooms = append(i.rooms[:0:0], list...)
}

// Apply update the room in place and promote it, or insert it at the front
func (i *Inbox) Apply(u domain.ChatRoomSummary) {
	for idx, r := range i.rooms {
		if r.RoomID != u.RoomID {
			continue
		}
		r.PeerName = u.PeerName
		r.PeerImageRef = u.PeerImageRef
		r.UnreadCount = u.UnreadCount
		r.LastMessage = u.LastMessage
		copy(i.rooms[1:idx+1], i.rooms[:idx])
		i.rooms[0] = r
		return
	}
	i.rooms = append([]domain.ChatRoomSummary{u}, i.rooms...)
}

// Remove drop a room, e.g. after leaving it
func (i *Inbox) Remove(roomID int64) bool {
	for idx, r := range i.rooms {
		if r.RoomID == roomID {
			i.rooms = append(i.rooms[:idx], i.rooms[idx+1:]...)
			return true
		}
	}
	return false
}

// Rooms copy of the current order
func (i *Inbox) Rooms() []domain.ChatRoomSummary {
	return append([]domain.ChatRoomSummary(nil), i.rooms...)
}
