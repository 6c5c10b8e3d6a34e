package app

import (
	"testing"
	"time"

	"joa_realtime/internal/chat/domain"
	"joa_realtime/internal/chat/protocol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

func TestTimeline_AppendLocalRejectsEmpty(t *testing.T) {
	tl := NewTimeline(fixedNow)
	_, err := tl.AppendLocal("   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Empty(t, tl.Messages())
}

func TestTimeline_SendAckReconcilesAndDedups(t *testing.T) {
	tl := NewTimeline(fixedNow)
	local, err := tl.AppendLocal("hello")
	require.NoError(t, err)
	assert.True(t, local.Pending())
	assert.True(t, local.SenderIsSelf)

	assert.True(t, tl.Apply(domain.SendAck{ClientID: local.LocalID, MessageID: 41}))
	assert.False(t, tl.Apply(domain.SendAck{ClientID: local.LocalID, MessageID: 41}))
	assert.False(t, tl.Apply(domain.RoomMessage{MessageID: 41, Content: "hello"}))

	msgs := tl.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(41), msgs[0].ServerMessageID)
	assert.False(t, msgs[0].Pending())
}

func TestTimeline_EchoBeforeAckKeepsOneEntry(t *testing.T) {
	tl := NewTimeline(fixedNow)
	_, err := tl.AppendLocal("first")
	require.NoError(t, err)
	local, err := tl.AppendLocal("hello")
	require.NoError(t, err)

	assert.True(t, tl.Apply(domain.RoomMessage{MessageID: 42, Content: "hello"}))
	assert.True(t, tl.Apply(domain.SendAck{ClientID: local.LocalID, MessageID: 42}))

	msgs := tl.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Content)
	assert.True(t, msgs[0].Pending())
	assert.Equal(t, local.LocalID, msgs[1].LocalID)
	assert.True(t, msgs[1].SenderIsSelf)
	assert.Equal(t, int64(42), msgs[1].ServerMessageID)
}

func TestTimeline_LegacyEchoShowsTwice(t *testing.T) {
	tl := NewTimeline(fixedNow)
	_, err := tl.AppendLocal("hi")
	require.NoError(t, err)

	assert.True(t, tl.Apply(domain.RoomMessage{MessageID: 7, Content: "hi"}))

	msgs := tl.Messages()
	require.Len(t, msgs, 2)
	assert.True(t, msgs[0].SenderIsSelf)
	assert.False(t, msgs[1].SenderIsSelf)
}

func TestTimeline_DuplicateServerIDIgnored(t *testing.T) {
	tl := NewTimeline(fixedNow)
	assert.True(t, tl.Apply(domain.RoomMessage{MessageID: 3, Content: "a"}))
	assert.False(t, tl.Apply(domain.RoomMessage{MessageID: 3, Content: "a"}))
	assert.True(t, tl.Apply(domain.RoomMessage{Content: "no id"}))
	assert.True(t, tl.Apply(domain.RoomMessage{Content: "no id"}))
	assert.Len(t, tl.Messages(), 3)
}

func TestTimeline_ReadAllMarksEveryMessage(t *testing.T) {
	tl := NewTimeline(fixedNow)
	_, _ = tl.AppendLocal("mine")
	tl.Apply(domain.RoomMessage{MessageID: 1, Content: "theirs"})

	assert.True(t, tl.Apply(domain.ReadReceipt{All: true}))
	for _, m := range tl.Messages() {
		assert.True(t, m.Read)
	}
	assert.False(t, tl.Apply(domain.ReadReceipt{All: true}))
}

func TestTimeline_ReadReceiptByID(t *testing.T) {
	tl := NewTimeline(fixedNow)
	tl.Apply(domain.RoomMessage{MessageID: 1, Content: "a"})
	tl.Apply(domain.RoomMessage{MessageID: 2, Content: "b"})
	_, _ = tl.AppendLocal("pending")

	assert.True(t, tl.Apply(domain.ReadReceipt{MessageIDs: []int64{2, 0}}))

	msgs := tl.Messages()
	assert.False(t, msgs[0].Read)
	assert.True(t, msgs[1].Read)
	assert.False(t, msgs[2].Read)
}

func TestTimeline_NoticeClosesRoom(t *testing.T) {
	tl := NewTimeline(fixedNow)
	assert.True(t, tl.Apply(domain.Notice{Kind: domain.NoticeExpired24h}))
	assert.False(t, tl.Apply(domain.Notice{Kind: domain.NoticeExpired24h}))

	kind, closed := tl.Closed()
	assert.True(t, closed)
	assert.Equal(t, domain.NoticeExpired24h, kind)

	msgs := tl.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.KindNotice, msgs[0].Kind)
	assert.Equal(t, domain.NoticeText(domain.NoticeExpired24h), msgs[0].Content)

	_, err := tl.AppendLocal("too late")
	assert.ErrorIs(t, err, ErrRoomClosed)
}

func TestTimeline_LoadHistory(t *testing.T) {
	tl := NewTimeline(fixedNow)
	_, _ = tl.AppendLocal("stale")

	tl.LoadHistory([]protocol.HistoryLine{
		{SenderIsSelf: true, MessageID: 1, Read: true, Content: "hi"},
		{MessageID: 2, Content: "hello back"},
	})

	msgs := tl.Messages()
	require.Len(t, msgs, 2)
	assert.True(t, msgs[0].SenderIsSelf)
	assert.True(t, msgs[0].Read)
	assert.Equal(t, "hello back", msgs[1].Content)
	assert.Equal(t, fixedNow(), msgs[1].Timestamp)
	assert.False(t, tl.Apply(domain.RoomMessage{MessageID: 2, Content: "hello back"}))

	_, closed := tl.Closed()
	assert.False(t, closed)
}

func TestTimeline_LoadHistoryWithNotice(t *testing.T) {
	tl := NewTimeline(fixedNow)
	tl.LoadHistory([]protocol.HistoryLine{{MessageID: 5, Content: domain.NoticeText(domain.NoticePeerLeft)}})

	kind, closed := tl.Closed()
	assert.True(t, closed)
	assert.Equal(t, domain.NoticePeerLeft, kind)
	assert.Equal(t, domain.KindNotice, tl.Messages()[0].Kind)
}
