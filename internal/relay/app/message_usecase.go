package app

import (
	"context"
	"strings"

	chatdomain "joa_realtime/internal/chat/domain"
	"joa_realtime/internal/chat/protocol"
	"joa_realtime/internal/relay/domain"
	"joa_realtime/internal/relay/repository"
	errprocess "joa_realtime/pkg/err"
	"joa_realtime/pkg/logger"

	"go.uber.org/zap"
)

// SendMessageUseCase 負責處理聊天訊息
type SendMessageUseCase struct {
	rooms   *RoomUseCase
	msgRepo repository.MessageRepository
	pubsub  repository.PubSub
	seq     repository.Sequence
}

// NewSendMessageUseCase init create message use case
func NewSendMessageUseCase(
	rooms *RoomUseCase,
	msgRepo repository.MessageRepository,
	pubsub repository.PubSub,
	seq repository.Sequence,
) *SendMessageUseCase {
	return &SendMessageUseCase{
		rooms:   rooms,
		msgRepo: msgRepo,
		pubsub:  pubsub,
		seq:     seq,
	}
}

// Execute store an M frame and fan it out, return the server message id
func (uc *SendMessageUseCase) Execute(ctx context.Context, f chatdomain.SendMessage) (int64, error) {
	if strings.TrimSpace(f.Content) == "" {
		return 0, ErrEmptyContent
	}
	// 1. 檢查房間
	room, err := uc.rooms.member(ctx, f.RoomID, f.MemberID)
	if err != nil {
		return 0, err
	}
	if kind, closed := uc.rooms.NoticeFor(room); closed {
		return 0, &RoomClosedError{RoomID: room.ID, Kind: kind}
	}

	// 2. 建立訊息
	msgID, err := uc.seq.Next(ctx)
	if err != nil {
		return 0, err
	}
	now := uc.rooms.now()
	msg := domain.ChatMessage{
		ID:        msgID,
		SenderID:  f.MemberID,
		Content:   f.Content,
		Timestamp: now.Unix(),
		ReadBy:    []int64{f.MemberID},
	}
	if err := uc.msgRepo.AppendMessage(ctx, room.ID, now.Format(domain.DateLayout), msg); err != nil {
		return 0, err
	}

	// 3. 房間內廣播, 再更新雙方的 inbox
	publishFrame(ctx, uc.pubsub, domain.RoomChannel(room.ID), chatdomain.RoomMessage{MessageID: msgID, Content: f.Content})

	peerID, _ := room.Peer(f.MemberID)
	unread, err := uc.unread(ctx, room.ID, peerID)
	if err != nil {
		logger.Log.Warn("count unread failed", zap.Int64("room_id", room.ID), zap.Error(err))
	}
	sender := uc.rooms.Profile(ctx, f.MemberID)
	peer := uc.rooms.Profile(ctx, peerID)
	publishFrame(ctx, uc.pubsub, domain.MemberChannel(peerID), chatdomain.InboxUpdate{Summary: summary(room.ID, sender, unread, f.Content)})
	publishFrame(ctx, uc.pubsub, domain.MemberChannel(f.MemberID), chatdomain.InboxUpdate{Summary: summary(room.ID, peer, 0, f.Content)})
	return msgID, nil
}

func (uc *SendMessageUseCase) unread(ctx context.Context, roomID, memberID int64) (int, error) {
	infos, err := uc.msgRepo.CountUnreadMessagesByRoom(ctx, memberID)
	if err != nil {
		return 0, err
	}
	for _, info := range infos {
		if info.RoomID == roomID {
			return info.UnreadCount, nil
		}
	}
	return 0, nil
}

// History message history of a room as REST lines, read means the receiver read it
func (uc *SendMessageUseCase) History(ctx context.Context, roomID, memberID int64) ([]protocol.HistoryLine, error) {
	room, err := uc.rooms.member(ctx, roomID, memberID)
	if err != nil {
		return nil, err
	}
	msgs, err := uc.msgRepo.FindMessages(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, errprocess.ErrNoMessages
	}

	peerID, _ := room.Peer(memberID)
	lines := make([]protocol.HistoryLine, 0, len(msgs))
	for _, m := range msgs {
		self := m.SenderID == memberID
		receiver := memberID
		if self {
			receiver = peerID
		}
		lines = append(lines, protocol.HistoryLine{
			SenderIsSelf: self,
			MessageID:    m.ID,
			Read:         m.ReadByMember(receiver),
			Content:      m.Content,
		})
	}
	return lines, nil
}
