package app

import (
	"context"
	"errors"
	"time"

	"joa_realtime/internal/chat/conn"
	"joa_realtime/internal/chat/domain"
	"joa_realtime/internal/chat/protocol"
	errprocess "joa_realtime/pkg/err"
	"joa_realtime/pkg/logger"
	"joa_realtime/pkg/session"

	"go.uber.org/zap"
)

// RoomView snapshot of one room
type RoomView struct {
	Messages []domain.ChatMessage
	Closed   domain.NoticeKind
}

// RoomUseCase keep the timeline of one open room live
type RoomUseCase struct {
	owner
	sess     session.Session
	roomID   int64
	conn     Connection
	codec    protocol.Codec
	api      RoomAPI
	timeline *Timeline
}

// NewRoomUseCase create room use case, now stamps timeline entries
func NewRoomUseCase(sess session.Session, roomID int64, c Connection, codec protocol.Codec, api RoomAPI, now func() time.Time) *RoomUseCase {
	return &RoomUseCase{
		owner:    newOwner(),
		sess:     sess,
		roomID:   roomID,
		conn:     c,
		codec:    codec,
		api:      api,
		timeline: NewTimeline(now),
	}
}

// Start load history over REST, then open the room socket
func (uc *RoomUseCase) Start(ctx context.Context) error {
	lines, err := uc.api.LoadMessages(ctx, uc.roomID, uc.sess.MemberID)
	if err != nil && !errors.Is(err, errprocess.ErrNoMessages) {
		return err
	}
	runCtx, cancel := context.WithCancel(context.Background())
	if !uc.begin(cancel) {
		cancel()
		return ErrAlreadyStarted
	}
	uc.timeline.LoadHistory(lines)
	if err := uc.conn.Open(runCtx); err != nil && !errors.Is(err, conn.ErrAlreadyOpen) {
		cancel()
		close(uc.done)
		return err
	}
	go uc.run(runCtx)
	uc.notify()
	return nil
}

// Changes signal after every change of the timeline
func (uc *RoomUseCase) Changes() <-chan struct{} {
	return uc.changes
}

// Snapshot current timeline
func (uc *RoomUseCase) Snapshot(ctx context.Context) (RoomView, error) {
	var view RoomView
	err := uc.do(ctx, func() {
		view.Messages = uc.timeline.Messages()
		view.Closed, _ = uc.timeline.Closed()
	})
	return view, err
}

// Send append the message optimistically and write it upstream.
// The entry stays in the timeline when the write fails.
func (uc *RoomUseCase) Send(ctx context.Context, content string) (domain.ChatMessage, error) {
	var (
		msg     domain.ChatMessage
		sendErr error
	)
	err := uc.do(ctx, func() {
		msg, sendErr = uc.timeline.AppendLocal(content)
		if sendErr != nil {
			return
		}
		uc.notify()
		var text string
		text, sendErr = uc.codec.Encode(domain.SendMessage{
			RoomID:   uc.roomID,
			MemberID: uc.sess.MemberID,
			Content:  content,
			ClientID: msg.LocalID,
		})
		if sendErr != nil {
			return
		}
		sendErr = uc.conn.Send(ctx, text)
	})
	if err != nil {
		return domain.ChatMessage{}, err
	}
	return msg, sendErr
}

// Leave leave the room over REST and stop
func (uc *RoomUseCase) Leave(ctx context.Context) error {
	if err := uc.api.LeaveRoom(ctx, uc.roomID, uc.sess.MemberID); err != nil {
		return err
	}
	uc.Stop()
	return nil
}

// VoteExtension agree to extend the room, the member whose vote completes
// the agreement applies the extension
func (uc *RoomUseCase) VoteExtension(ctx context.Context) (domain.VoteResult, error) {
	vote, err := uc.api.VoteExtension(ctx, uc.roomID, uc.sess.MemberID, domain.VoteAgree)
	if err != nil {
		return domain.VoteResult{}, err
	}
	if !vote.Extended() {
		return vote, nil
	}
	if err := uc.api.ExtendRoom(ctx, uc.roomID); err != nil {
		logger.Log.Error("extend room failed", zap.Int64("room_id", uc.roomID), zap.Error(err))
		return vote, err
	}
	return vote, nil
}

// Stop close the socket and stop the owner loop
func (uc *RoomUseCase) Stop() {
	uc.stop()
	uc.conn.Close()
}

func (uc *RoomUseCase) run(ctx context.Context) {
	defer close(uc.done)
	events := uc.conn.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-uc.cmds:
			fn()
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			uc.handle(ctx, ev)
		}
	}
}

func (uc *RoomUseCase) handle(ctx context.Context, ev conn.Event) {
	switch ev.Kind {
	case conn.EventText:
		frame, err := uc.codec.Decode(protocol.ScopeRoom, ev.Text)
		if err != nil {
			logger.Log.Debug("drop room frame", zap.Int64("room_id", uc.roomID), zap.String("text", ev.Text), zap.Error(err))
			return
		}
		if _, ok := frame.(domain.Ping); ok {
			replyPong(ctx, uc.conn, uc.codec)
			return
		}
		if uc.timeline.Apply(frame) {
			uc.notify()
		}
	case conn.EventDisconnected:
		if !ev.Deliberate {
			return
		}
		// 伺服器主動關閉, 顯示原因
		kind, ok := domain.DetectNotice(ev.Reason)
		if !ok && ev.Code == conn.CloseCodePeerWithdrew {
			kind, ok = domain.NoticePeerWithdrew, true
		}
		if ok && uc.timeline.Apply(domain.Notice{Kind: kind, Text: domain.NoticeText(kind)}) {
			uc.notify()
		}
	}
}
