package app

import (
	"errors"
	"strings"
	"time"

	"joa_realtime/internal/chat/domain"
	"joa_realtime/internal/chat/protocol"

	"github.com/google/uuid"
)

var (
	// ErrEmptyMessage content is empty or only whitespace
	ErrEmptyMessage = errors.New("message content is empty")
	// ErrRoomClosed the server closed the room with a notice
	ErrRoomClosed = errors.New("chat room is closed")
)

// Timeline messages of one room in arrival order.
// Only the owner goroutine of RoomUseCase touches it.
type Timeline struct {
	msgs   []domain.ChatMessage
	seen   map[int64]struct{}
	closed domain.NoticeKind
	now    func() time.Time
}

// NewTimeline create an empty timeline, now stamps new entries
func NewTimeline(now func() time.Time) *Timeline {
	if now == nil {
		now = time.Now
	}
	return &Timeline{seen: map[int64]struct{}{}, now: now}
}

// LoadHistory replace the timeline with the REST history
func (t *Timeline) LoadHistory(lines []protocol.HistoryLine) {
	t.msgs = t.msgs[:0]
	t.seen = map[int64]struct{}{}
	for _, l := range lines {
		m := domain.ChatMessage{
			LocalID:         uuid.NewString(),
			Content:         l.Content,
			SenderIsSelf:    l.SenderIsSelf,
			Read:            l.Read,
			ServerMessageID: l.MessageID,
			Timestamp:       t.now(),
			Kind:            domain.KindText,
		}
		if kind, ok := domain.DetectNotice(l.Content); ok {
			m.Kind = domain.KindNotice
			t.closed = kind
		}
		t.remember(l.MessageID)
		t.msgs = append(t.msgs, m)
	}
}

// AppendLocal optimistic entry for an outgoing message
func (t *Timeline) AppendLocal(content string) (domain.ChatMessage, error) {
	if strings.TrimSpace(content) == "" {
		return domain.ChatMessage{}, ErrEmptyMessage
	}
	if t.closed != "" {
		return domain.ChatMessage{}, ErrRoomClosed
	}
	m := domain.ChatMessage{
		LocalID:      uuid.NewString(),
		Content:      content,
		SenderIsSelf: true,
		Timestamp:    t.now(),
		Kind:         domain.KindText,
	}
	t.msgs = append(t.msgs, m)
	return m, nil
}

// Apply one decoded room frame, report whether the timeline changed
func (t *Timeline) Apply(f domain.Frame) bool {
	switch v := f.(type) {
	case domain.RoomMessage:
		if t.isSeen(v.MessageID) {
			return false
		}
		t.remember(v.MessageID)
		// legacy servers echo our own sends without a client id, they show up twice
		t.msgs = append(t.msgs, domain.ChatMessage{
			LocalID:         uuid.NewString(),
			Content:         v.Content,
			ServerMessageID: v.MessageID,
			Timestamp:       t.now(),
			Kind:            domain.KindText,
		})
		return true

	case domain.SendAck:
		for i := range t.msgs {
			if t.msgs[i].LocalID == v.ClientID && t.msgs[i].Pending() {
				t.msgs[i].ServerMessageID = v.MessageID
				if t.isSeen(v.MessageID) {
					// relay 先廣播 echo 才回 ack, echo 已被當成對方訊息
					t.dropEcho(v.MessageID, t.msgs[i].LocalID)
				}
				t.remember(v.MessageID)
				return true
			}
		}
		return false

	case domain.ReadReceipt:
		return t.markRead(v)

	case domain.Notice:
		if t.closed == v.Kind {
			return false
		}
		t.closed = v.Kind
		text := v.Text
		if text == "" {
			text = domain.NoticeText(v.Kind)
		}
		t.msgs = append(t.msgs, domain.ChatMessage{
			LocalID:   uuid.NewString(),
			Content:   text,
			Timestamp: t.now(),
			Kind:      domain.KindNotice,
		})
		return true
	}
	return false
}

// markRead the legacy sentinel marks every message, sender included
func (t *Timeline) markRead(r domain.ReadReceipt) bool {
	ids := make(map[int64]struct{}, len(r.MessageIDs))
	for _, id := range r.MessageIDs {
		ids[id] = struct{}{}
	}
	changed := false
	for i := range t.msgs {
		if t.msgs[i].Read {
			continue
		}
		if !r.All {
			if _, ok := ids[t.msgs[i].ServerMessageID]; !ok || t.msgs[i].ServerMessageID == 0 {
				continue
			}
		}
		t.msgs[i].Read = true
		changed = true
	}
	return changed
}

// dropEcho remove the received copy of our own send, keep the entry keepLocalID
func (t *Timeline) dropEcho(id int64, keepLocalID string) {
	for i, m := range t.msgs {
		if m.ServerMessageID != id || m.LocalID == keepLocalID || m.SenderIsSelf || m.Kind != domain.KindText {
			continue
		}
		t.msgs = append(t.msgs[:i], t.msgs[i+1:]...)
		return
	}
}

func (t *Timeline) isSeen(id int64) bool {
	if id == 0 {
		return false
	}
	_, ok := t.seen[id]
	return ok
}

func (t *Timeline) remember(id int64) {
	if id != 0 {
		t.seen[id] = struct{}{}
	}
}

// Messages copy of the timeline
func (t *Timeline) Messages() []domain.ChatMessage {
	return append([]domain.ChatMessage(nil), t.msgs...)
}

// Closed notice kind that closed the room, if any
func (t *Timeline) Closed() (domain.NoticeKind, bool) {
	return t.closed, t.closed != ""
}
