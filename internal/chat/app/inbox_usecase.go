package app

import (
	"context"
	"errors"

	"joa_realtime/internal/chat/conn"
	"joa_realtime/internal/chat/domain"
	"joa_realtime/internal/chat/protocol"
	"joa_realtime/pkg/logger"
	"joa_realtime/pkg/session"

	"go.uber.org/zap"
)

// ErrAlreadyStarted Start called twice
var ErrAlreadyStarted = errors.New("use case already started")

// InboxUseCase keep the room list of the signed-in member live
type InboxUseCase struct {
	owner
	sess  session.Session
	conn  Connection
	codec protocol.Codec
	rooms RoomLister
	inbox *Inbox
}

// NewInboxUseCase create inbox use case
func NewInboxUseCase(sess session.Session, c Connection, codec protocol.Codec, rooms RoomLister) *InboxUseCase {
	return &InboxUseCase{
		owner: newOwner(),
		sess:  sess,
		conn:  c,
		codec: codec,
		rooms: rooms,
		inbox: NewInbox(),
	}
}

// Start load the list over REST, then open the inbox socket
func (uc *InboxUseCase) Start(ctx context.Context) error {
	list, err := uc.rooms.ListRooms(ctx, uc.sess.MemberID)
	if err != nil {
		return err
	}
	runCtx, cancel := context.WithCancel(context.Background())
	if !uc.begin(cancel) {
		cancel()
		return ErrAlreadyStarted
	}
	uc.inbox.Replace(list)
	if err := uc.conn.Open(runCtx); err != nil && !errors.Is(err, conn.ErrAlreadyOpen) {
		cancel()
		close(uc.done)
		return err
	}
	go uc.run(runCtx)
	uc.notify()
	return nil
}

// Changes signal after every change of the list
func (uc *InboxUseCase) Changes() <-chan struct{} {
	return uc.changes
}

// Snapshot current room list
func (uc *InboxUseCase) Snapshot(ctx context.Context) ([]domain.ChatRoomSummary, error) {
	var rooms []domain.ChatRoomSummary
	err := uc.do(ctx, func() { rooms = uc.inbox.Rooms() })
	return rooms, err
}

// AnnounceRoom tell the server a room with peerID was created
func (uc *InboxUseCase) AnnounceRoom(ctx context.Context, roomID, peerID int64) error {
	var sendErr error
	err := uc.do(ctx, func() {
		text, err := uc.codec.Encode(domain.RoomCreate{RoomID: roomID, MemberIDs: [2]int64{uc.sess.MemberID, peerID}})
		if err != nil {
			sendErr = err
			return
		}
		sendErr = uc.conn.Send(ctx, text)
	})
	if err != nil {
		return err
	}
	return sendErr
}

// Forget drop a room after the member left it
func (uc *InboxUseCase) Forget(ctx context.Context, roomID int64) error {
	return uc.do(ctx, func() {
		if uc.inbox.Remove(roomID) {
			uc.notify()
		}
	})
}

// Stop close the socket and stop the owner loop
func (uc *InboxUseCase) Stop() {
	uc.stop()
	uc.conn.Close()
}

func (uc *InboxUseCase) run(ctx context.Context) {
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

func (uc *InboxUseCase) handle(ctx context.Context, ev conn.Event) {
	switch ev.Kind {
	case conn.EventText:
		frame, err := uc.codec.Decode(protocol.ScopeInbox, ev.Text)
		if err != nil {
			logger.Log.Debug("drop inbox frame", zap.String("text", ev.Text), zap.Error(err))
			return
		}
		switch f := frame.(type) {
		case domain.InboxUpdate:
			uc.inbox.Apply(f.Summary)
			uc.notify()
		case domain.Ping:
			replyPong(ctx, uc.conn, uc.codec)
		}
	case conn.EventDisconnected:
		if ev.Deliberate {
			logger.Log.Info("inbox closed by server", zap.Int("code", ev.Code), zap.String("reason", ev.Reason))
		}
	}
}

// replyPong answer an envelope ping, legacy has no such frame
func replyPong(ctx context.Context, c Connection, codec protocol.Codec) {
	text, err := codec.Encode(domain.Pong{})
	if err != nil {
		return
	}
	if err := c.Send(ctx, text); err != nil {
		logger.Log.Debug("pong not sent", zap.Error(err))
	}
}
