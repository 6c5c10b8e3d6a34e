package app

import (
	"context"
	"errors"
	"strconv"
	"time"

	chatdomain "joa_realtime/internal/chat/domain"
	"joa_realtime/internal/chat/protocol"
	"joa_realtime/internal/relay/domain"
	"joa_realtime/internal/relay/repository"
	"joa_realtime/pkg/database"
	errprocess "joa_realtime/pkg/err"
	"joa_realtime/pkg/logger"

	"go.uber.org/zap"
)

// DefaultImage url code used when a member has no profile image
const DefaultImage = "me.png"

// RoomUseCase room lifecycle of the relay
type RoomUseCase struct {
	roomRepo repository.RoomRepository
	msgRepo  repository.MessageRepository
	pubsub   repository.PubSub
	profiles database.RedisRepository[domain.MemberProfile]
	ttl      time.Duration
	now      func() time.Time
}

// NewRoomUseCase create room use case, ttl is the chat window of a new room
func NewRoomUseCase(
	roomRepo repository.RoomRepository,
	msgRepo repository.MessageRepository,
	pubsub repository.PubSub,
	profiles database.RedisRepository[domain.MemberProfile],
	ttl time.Duration,
) *RoomUseCase {
	return &RoomUseCase{
		roomRepo: roomRepo,
		msgRepo:  msgRepo,
		pubsub:   pubsub,
		profiles: profiles,
		ttl:      ttl,
		now:      time.Now,
	}
}

// CreateRoom handle an R frame, announce the room in both inboxes once
func (uc *RoomUseCase) CreateRoom(ctx context.Context, f chatdomain.RoomCreate) error {
	a, b := f.MemberIDs[0], f.MemberIDs[1]
	if a == b || a == 0 || b == 0 {
		return ErrInvalidMembers
	}
	room := &domain.ChatRoom{
		ID:        f.RoomID,
		Members:   []int64{a, b},
		State:     domain.RoomOpen,
		CreatedAt: uc.now().Unix(),
	}
	created, err := uc.roomRepo.CreateRoom(ctx, room)
	if err != nil {
		return err
	}
	if !created {
		logger.Log.Debug("room already exists", zap.Int64("room_id", f.RoomID))
		return nil
	}

	for _, pair := range [][2]int64{{a, b}, {b, a}} {
		peer := uc.Profile(ctx, pair[1])
		uc.publish(ctx, domain.MemberChannel(pair[0]), chatdomain.InboxUpdate{Summary: summary(f.RoomID, peer, 0, "")})
	}
	return nil
}

// Enter member opens the room, everything the peer sent becomes read
func (uc *RoomUseCase) Enter(ctx context.Context, roomID, memberID int64) (*domain.ChatRoom, error) {
	room, err := uc.member(ctx, roomID, memberID)
	if err != nil {
		return nil, err
	}
	if _, err := uc.msgRepo.MarkRoomRead(ctx, roomID, memberID); err != nil {
		return nil, err
	}
	uc.publish(ctx, domain.RoomChannel(roomID), chatdomain.ReadReceipt{All: true})
	return room, nil
}

// NoticeFor notice that closes the room at now, if any
func (uc *RoomUseCase) NoticeFor(room *domain.ChatRoom) (chatdomain.NoticeKind, bool) {
	if room.State == domain.RoomClosed {
		return chatdomain.NoticeKind(room.ClosedBy), true
	}
	if room.Expired(uc.now(), uc.ttl) {
		if room.Extended {
			return chatdomain.NoticeExpired7d, true
		}
		return chatdomain.NoticeExpired24h, true
	}
	return "", false
}

// Leave member leaves for good, the peer gets the notice
func (uc *RoomUseCase) Leave(ctx context.Context, roomID, memberID int64) error {
	room, err := uc.member(ctx, roomID, memberID)
	if err != nil {
		return err
	}
	room.Left = append(room.Left, memberID)
	if room.State == domain.RoomOpen {
		room.State = domain.RoomClosed
		room.ClosedBy = string(chatdomain.NoticePeerLeft)
	}
	if err := uc.roomRepo.UpdateRoom(ctx, room); err != nil {
		return err
	}
	uc.publish(ctx, domain.RoomChannel(roomID), chatdomain.Notice{Kind: chatdomain.NoticePeerLeft})
	return nil
}

// Status whether the room can still be extended
func (uc *RoomUseCase) Status(ctx context.Context, roomID int64) (chatdomain.RoomStatus, error) {
	room, err := uc.roomRepo.FindByID(ctx, roomID)
	if errors.Is(err, repository.ErrRoomNotFound) {
		return chatdomain.RoomUnknown, errprocess.ErrRoomNotFound
	}
	if err != nil {
		return "", err
	}
	// 延長只能在最初的 24 小時內
	if room.Extended || !uc.now().Before(time.Unix(room.CreatedAt, 0).Add(uc.ttl)) {
		return chatdomain.RoomExpired, nil
	}
	return chatdomain.RoomExtendable, nil
}

const (
	// VoteBothAgreed both members agreed, the client extends the room next
	VoteBothAgreed = "0"
	// VoteDeclined the member did not agree
	VoteDeclined = "1"
	// VoteWaiting waiting for the peer's vote
	VoteWaiting = "2"
)

// Vote record an extension vote, result "0" is agree
func (uc *RoomUseCase) Vote(ctx context.Context, roomID, memberID int64, result string) (chatdomain.VoteResult, error) {
	room, err := uc.member(ctx, roomID, memberID)
	if err != nil {
		return chatdomain.VoteResult{}, err
	}
	vote := chatdomain.VoteResult{RoomID: roomID, MemberID: memberID, Result: VoteDeclined}
	if result != VoteBothAgreed {
		return vote, nil
	}
	if room.Voted(memberID) {
		return chatdomain.VoteResult{}, errprocess.ErrRoomVoteExists
	}
	room.Votes = append(room.Votes, memberID)
	if err := uc.roomRepo.UpdateRoom(ctx, room); err != nil {
		return chatdomain.VoteResult{}, err
	}
	vote.Result = VoteWaiting
	if peerID, _ := room.Peer(memberID); room.Voted(peerID) {
		vote.Result = VoteBothAgreed
	}
	return vote, nil
}

// Extend give the room seven more days
func (uc *RoomUseCase) Extend(ctx context.Context, roomID int64) error {
	room, err := uc.roomRepo.FindByID(ctx, roomID)
	if errors.Is(err, repository.ErrRoomNotFound) {
		return errprocess.ErrRoomNotFound
	}
	if err != nil {
		return err
	}
	if room.Extended {
		return ErrAlreadyExtended
	}
	room.Extended = true
	return uc.roomRepo.UpdateRoom(ctx, room)
}

// ListRooms inbox of a member
func (uc *RoomUseCase) ListRooms(ctx context.Context, memberID int64) ([]chatdomain.ChatRoomSummary, error) {
	rooms, err := uc.roomRepo.FindByMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	unread, err := uc.msgRepo.CountUnreadMessagesByRoom(ctx, memberID)
	if err != nil {
		return nil, err
	}
	counts := make(map[int64]int, len(unread))
	for _, u := range unread {
		counts[u.RoomID] = u.UnreadCount
	}

	list := make([]chatdomain.ChatRoomSummary, 0, len(rooms))
	for i := range rooms {
		peerID, _ := rooms[i].Peer(memberID)
		last := ""
		msg, err := uc.msgRepo.LastMessage(ctx, rooms[i].ID)
		if err != nil {
			return nil, err
		}
		if msg != nil {
			last = msg.Content
		}
		list = append(list, summary(rooms[i].ID, uc.Profile(ctx, peerID), counts[rooms[i].ID], last))
	}
	return list, nil
}

// PeerProfile profile of the other member
func (uc *RoomUseCase) PeerProfile(ctx context.Context, roomID, memberID int64) (domain.MemberProfile, error) {
	room, err := uc.member(ctx, roomID, memberID)
	if err != nil {
		return domain.MemberProfile{}, err
	}
	peerID, _ := room.Peer(memberID)
	return uc.Profile(ctx, peerID), nil
}

// Profile stored profile, a generated one when missing
func (uc *RoomUseCase) Profile(ctx context.Context, memberID int64) domain.MemberProfile {
	p, err := uc.profiles.Get(ctx, domain.ProfileKey(memberID))
	if err != nil {
		if !errors.Is(err, database.ErrRedisNil) {
			logger.Log.Warn("profile lookup failed", zap.Int64("member_id", memberID), zap.Error(err))
		}
		p = domain.MemberProfile{MemberID: memberID}
	}
	if p.Name == "" {
		p.Name = "member" + strconv.FormatInt(memberID, 10)
	}
	if p.URLCode == "" {
		p.URLCode = DefaultImage
	}
	return p
}

// SaveProfile store the display data a client sent on connect
func (uc *RoomUseCase) SaveProfile(ctx context.Context, p domain.MemberProfile) error {
	return uc.profiles.Set(ctx, domain.ProfileKey(p.MemberID), p, 0)
}

func (uc *RoomUseCase) member(ctx context.Context, roomID, memberID int64) (*domain.ChatRoom, error) {
	room, err := uc.roomRepo.FindByID(ctx, roomID)
	if errors.Is(err, repository.ErrRoomNotFound) {
		return nil, errprocess.ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	if !room.HasMember(memberID) {
		return nil, ErrNotRoomMember
	}
	return room, nil
}

// publish encode as envelope, every connection re-encodes for its own protocol
func (uc *RoomUseCase) publish(ctx context.Context, channel string, f chatdomain.Frame) {
	publishFrame(ctx, uc.pubsub, channel, f)
}

func publishFrame(ctx context.Context, ps repository.PubSub, channel string, f chatdomain.Frame) {
	text, err := protocol.Envelope{}.Encode(f)
	if err != nil {
		logger.Log.Error("encode frame", zap.String("channel", channel), zap.Error(err))
		return
	}
	if err := ps.Publish(ctx, channel, text); err != nil {
		logger.Log.Error("publish frame", zap.String("channel", channel), zap.Error(err))
	}
}

// summary inbox row, names travel as positional legacy tokens
func summary(roomID int64, peer domain.MemberProfile, unread int, last string) chatdomain.ChatRoomSummary {
	return chatdomain.ChatRoomSummary{
		RoomID:       roomID,
		PeerName:     protocol.SafeToken(peer.Name),
		PeerImageRef: protocol.SafeToken(peer.URLCode),
		UnreadCount:  unread,
		LastMessage:  last,
	}
}
