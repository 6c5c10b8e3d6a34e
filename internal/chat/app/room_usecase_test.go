package app

import (
	"context"
	"testing"
	"time"

	"joa_realtime/internal/chat/conn"
	"joa_realtime/internal/chat/domain"
	"joa_realtime/internal/chat/protocol"
	errprocess "joa_realtime/pkg/err"
	"joa_realtime/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func startRoom(t *testing.T, codec protocol.Codec, history []protocol.HistoryLine, historyErr error) (*RoomUseCase, *MockConnection, *MockRoomAPI) {
	t.Helper()
	logger.SetNewNop()
	ctx := context.Background()

	api := new(MockRoomAPI)
	api.On("LoadMessages", ctx, int64(5), int64(21)).Return(history, historyErr)
	c := NewMockConnection()
	c.On("Open", mock.Anything).Return(nil)
	c.On("Close").Return()

	uc := NewRoomUseCase(testSession, 5, c, codec, api, fixedNow)
	require.NoError(t, uc.Start(ctx))
	t.Cleanup(uc.Stop)
	return uc, c, api
}

func waitView(t *testing.T, uc *RoomUseCase, cond func(RoomView) bool) RoomView {
	t.Helper()
	var view RoomView
	require.Eventually(t, func() bool {
		v, err := uc.Snapshot(context.Background())
		if err != nil {
			return false
		}
		view = v
		return cond(v)
	}, time.Second, 10*time.Millisecond)
	return view
}

func TestRoomUseCase_StartLoadsHistory(t *testing.T) {
	uc, _, _ := startRoom(t, protocol.Legacy{}, []protocol.HistoryLine{{SenderIsSelf: true, MessageID: 1, Content: "hi"}}, nil)

	view, err := uc.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, view.Messages, 1)
	assert.Equal(t, "hi", view.Messages[0].Content)
	assert.Empty(t, view.Closed)
}

func TestRoomUseCase_StartWithNoMessages(t *testing.T) {
	uc, _, _ := startRoom(t, protocol.Legacy{}, nil, errprocess.ErrNoMessages)

	view, err := uc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, view.Messages)
}

func TestRoomUseCase_StartFailsOnREST(t *testing.T) {
	ctx := context.Background()
	api := new(MockRoomAPI)
	api.On("LoadMessages", ctx, int64(5), int64(21)).Return(nil, errprocess.ErrRoomNotFound)
	c := NewMockConnection()

	uc := NewRoomUseCase(testSession, 5, c, protocol.Legacy{}, api, fixedNow)
	assert.ErrorIs(t, uc.Start(ctx), errprocess.ErrRoomNotFound)
	c.AssertNotCalled(t, "Open", mock.Anything)
}

func TestRoomUseCase_SendLegacy(t *testing.T) {
	uc, c, _ := startRoom(t, protocol.Legacy{}, nil, nil)
	c.On("Send", mock.Anything, "M 5 21 hello there").Return(nil)

	msg, err := uc.Send(context.Background(), "hello there")
	require.NoError(t, err)
	assert.True(t, msg.SenderIsSelf)
	assert.True(t, msg.Pending())

	// legacy echo 會多一筆
	c.Push(conn.Event{Kind: conn.EventText, Text: "77 hello there"})
	view := waitView(t, uc, func(v RoomView) bool { return len(v.Messages) == 2 })
	assert.Equal(t, int64(77), view.Messages[1].ServerMessageID)
}

func TestRoomUseCase_SendEnvelopeReconciles(t *testing.T) {
	uc, c, _ := startRoom(t, protocol.Envelope{}, nil, nil)
	c.On("Send", mock.Anything, mock.Anything).Return(nil)

	msg, err := uc.Send(context.Background(), "hello")
	require.NoError(t, err)

	ack, err := protocol.Envelope{}.Encode(domain.SendAck{ClientID: msg.LocalID, MessageID: 90})
	require.NoError(t, err)
	echo, err := protocol.Envelope{}.Encode(domain.RoomMessage{MessageID: 90, Content: "hello"})
	require.NoError(t, err)
	c.Push(conn.Event{Kind: conn.EventText, Text: ack})
	c.Push(conn.Event{Kind: conn.EventText, Text: echo})

	view := waitView(t, uc, func(v RoomView) bool {
		return len(v.Messages) == 1 && v.Messages[0].ServerMessageID == 90
	})
	assert.Equal(t, msg.LocalID, view.Messages[0].LocalID)

	// echo 已處理, 不應再多出訊息
	c.Push(conn.Event{Kind: conn.EventText, Text: echo})
	time.Sleep(50 * time.Millisecond)
	view, err = uc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, view.Messages, 1)
}

func TestRoomUseCase_SendFailureKeepsEntry(t *testing.T) {
	uc, c, _ := startRoom(t, protocol.Legacy{}, nil, nil)
	c.On("Send", mock.Anything, mock.Anything).Return(conn.ErrNotConnected)

	_, err := uc.Send(context.Background(), "offline")
	assert.ErrorIs(t, err, conn.ErrNotConnected)

	view, err := uc.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, view.Messages, 1)
	assert.True(t, view.Messages[0].Pending())
}

func TestRoomUseCase_SendEmpty(t *testing.T) {
	uc, c, _ := startRoom(t, protocol.Legacy{}, nil, nil)

	_, err := uc.Send(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	c.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestRoomUseCase_ReadAllSentinel(t *testing.T) {
	uc, c, _ := startRoom(t, protocol.Legacy{}, []protocol.HistoryLine{{SenderIsSelf: true, MessageID: 1, Content: "hi"}}, nil)

	c.Push(conn.Event{Kind: conn.EventText, Text: "0"})
	waitView(t, uc, func(v RoomView) bool { return v.Messages[0].Read })
}

func TestRoomUseCase_NoticeFrameClosesRoom(t *testing.T) {
	uc, c, _ := startRoom(t, protocol.Legacy{}, nil, nil)

	c.Push(conn.Event{Kind: conn.EventText, Text: domain.NoticeText(domain.NoticeReported)})
	waitView(t, uc, func(v RoomView) bool { return v.Closed == domain.NoticeReported })

	_, err := uc.Send(context.Background(), "still there?")
	assert.ErrorIs(t, err, ErrRoomClosed)
}

func TestRoomUseCase_DeliberateCloseAddsNotice(t *testing.T) {
	uc, c, _ := startRoom(t, protocol.Legacy{}, nil, nil)

	c.Push(conn.Event{Kind: conn.EventDisconnected, Deliberate: true, Code: conn.CloseCodePeerWithdrew})
	view := waitView(t, uc, func(v RoomView) bool { return v.Closed == domain.NoticePeerWithdrew })
	require.Len(t, view.Messages, 1)
	assert.Equal(t, domain.KindNotice, view.Messages[0].Kind)
}

func TestRoomUseCase_AbnormalCloseKeepsRoomOpen(t *testing.T) {
	uc, c, _ := startRoom(t, protocol.Legacy{}, nil, nil)

	c.Push(conn.Event{Kind: conn.EventDisconnected, Code: 1006})
	c.Push(conn.Event{Kind: conn.EventText, Text: "3 back again"})
	view := waitView(t, uc, func(v RoomView) bool { return len(v.Messages) == 1 })
	assert.Empty(t, view.Closed)
}

func TestRoomUseCase_Leave(t *testing.T) {
	uc, c, api := startRoom(t, protocol.Legacy{}, nil, nil)
	api.On("LeaveRoom", mock.Anything, int64(5), int64(21)).Return(nil)

	require.NoError(t, uc.Leave(context.Background()))
	c.AssertCalled(t, "Close")

	_, err := uc.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrStopped)
}

func TestRoomUseCase_LeaveError(t *testing.T) {
	uc, _, api := startRoom(t, protocol.Legacy{}, nil, nil)
	api.On("LeaveRoom", mock.Anything, int64(5), int64(21)).Return(errprocess.ErrRoomMemberNotFound)

	assert.ErrorIs(t, uc.Leave(context.Background()), errprocess.ErrRoomMemberNotFound)
	_, err := uc.Snapshot(context.Background())
	assert.NoError(t, err)
}

func TestRoomUseCase_SendEnvelopeEchoBeforeAck(t *testing.T) {
	uc, c, _ := startRoom(t, protocol.Envelope{}, nil, nil)
	c.On("Send", mock.Anything, mock.Anything).Return(nil)

	msg, err := uc.Send(context.Background(), "hello")
	require.NoError(t, err)

	// relay 先廣播再回 ack
	echo, err := protocol.Envelope{}.Encode(domain.RoomMessage{MessageID: 90, Content: "hello"})
	require.NoError(t, err)
	ack, err := protocol.Envelope{}.Encode(domain.SendAck{ClientID: msg.LocalID, MessageID: 90})
	require.NoError(t, err)
	c.Push(conn.Event{Kind: conn.EventText, Text: echo})
	c.Push(conn.Event{Kind: conn.EventText, Text: ack})

	view := waitView(t, uc, func(v RoomView) bool {
		return len(v.Messages) == 1 && v.Messages[0].ServerMessageID == 90
	})
	assert.True(t, view.Messages[0].SenderIsSelf)
	assert.Equal(t, msg.LocalID, view.Messages[0].LocalID)
}

func TestRoomUseCase_MalformedFramesIgnored(t *testing.T) {
	uc, c, _ := startRoom(t, protocol.Legacy{}, []protocol.HistoryLine{{SenderIsSelf: true, MessageID: 1, Content: "hi"}}, nil)

	before, err := uc.Snapshot(context.Background())
	require.NoError(t, err)

	c.Push(conn.Event{Kind: conn.EventText, Text: ""})
	c.Push(conn.Event{Kind: conn.EventText, Text: "abc"})
	// 確認前兩個 frame 已被處理
	c.Push(conn.Event{Kind: conn.EventText, Text: "0"})
	after := waitView(t, uc, func(v RoomView) bool { return len(v.Messages) == 1 && v.Messages[0].Read })

	assert.Equal(t, before.Messages[0].Content, after.Messages[0].Content)
	assert.Equal(t, before.Messages[0].ServerMessageID, after.Messages[0].ServerMessageID)
	assert.Empty(t, after.Closed)
}

func TestRoomUseCase_VoteExtensionExtends(t *testing.T) {
	uc, _, api := startRoom(t, protocol.Legacy{}, nil, nil)
	api.On("VoteExtension", mock.Anything, int64(5), int64(21), domain.VoteAgree).Return(domain.VoteResult{Result: domain.VoteAgree}, nil)
	api.On("ExtendRoom", mock.Anything, int64(5)).Return(nil)

	vote, err := uc.VoteExtension(context.Background())
	require.NoError(t, err)
	assert.True(t, vote.Extended())
	api.AssertCalled(t, "ExtendRoom", mock.Anything, int64(5))
}

func TestRoomUseCase_VoteExtensionWaiting(t *testing.T) {
	uc, _, api := startRoom(t, protocol.Legacy{}, nil, nil)
	api.On("VoteExtension", mock.Anything, int64(5), int64(21), domain.VoteAgree).Return(domain.VoteResult{Result: domain.VoteWaiting}, nil)

	vote, err := uc.VoteExtension(context.Background())
	require.NoError(t, err)
	assert.False(t, vote.Extended())
	api.AssertNotCalled(t, "ExtendRoom", mock.Anything, mock.Anything)
}

func TestRoomUseCase_VoteExtensionExtendFails(t *testing.T) {
	uc, _, api := startRoom(t, protocol.Legacy{}, nil, nil)
	api.On("VoteExtension", mock.Anything, int64(5), int64(21), domain.VoteAgree).Return(domain.VoteResult{Result: domain.VoteAgree}, nil)
	api.On("ExtendRoom", mock.Anything, int64(5)).Return(errprocess.ErrRoomNotFound)

	_, err := uc.VoteExtension(context.Background())
	assert.ErrorIs(t, err, errprocess.ErrRoomNotFound)
}

func TestRoomUseCase_SocketOutlivesStartContext(t *testing.T) {
	logger.SetNewNop()
	api := new(MockRoomAPI)
	api.On("LoadMessages", mock.Anything, int64(5), int64(21)).Return(nil, nil)
	c := NewMockConnection()
	var openCtx context.Context
	c.On("Open", mock.Anything).Run(func(args mock.Arguments) {
		openCtx = args.Get(0).(context.Context)
	}).Return(nil)
	c.On("Close").Return()

	uc := NewRoomUseCase(testSession, 5, c, protocol.Legacy{}, api, fixedNow)
	startCtx, cancel := context.WithCancel(context.Background())
	require.NoError(t, uc.Start(startCtx))
	cancel()

	require.NotNil(t, openCtx)
	assert.NoError(t, openCtx.Err())
	uc.Stop()
	assert.Error(t, openCtx.Err())
}
