package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	chatdomain "joa_realtime/internal/chat/domain"
	"joa_realtime/internal/chat/protocol"
	"joa_realtime/internal/relay/domain"
	"joa_realtime/internal/relay/repository"
	errprocess "joa_realtime/pkg/err"
	"joa_realtime/pkg/logger"
	"joa_realtime/pkg/middlewares"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

const (
	kindInbox = "inbox"
	kindRoom  = "room"

	// CloseCodePeerWithdrew close code of a room whose peer deleted the account
	CloseCodePeerWithdrew = 1011

	writeWait = 5 * time.Second
)

// ErrTokenMismatch token belongs to another member
var ErrTokenMismatch = errors.New("token does not match memberId")

// CheckTokenMember memberId must be the token member, local is empty when JWTMiddleware is off
func CheckTokenMember(local interface{}, memberID int64) error {
	if tokenMember, ok := local.(int64); ok && tokenMember != memberID {
		return ErrTokenMismatch
	}
	return nil
}

// Socket the part of a websocket connection the relay uses
type Socket interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// ConnParams query of a websocket connection
type ConnParams struct {
	MemberID int64
	// RoomID zero means the inbox connection
	RoomID  int64
	Codec   protocol.Codec
	Name    string
	URLCode string
}

// Kind metric label of the connection
func (p ConnParams) Kind() string {
	if p.RoomID == 0 {
		return kindInbox
	}
	return kindRoom
}

// ParseConnParams read memberId, roomId, protocol, name and urlCode
func ParseConnParams(query func(key string) string) (ConnParams, error) {
	var p ConnParams
	memberID, err := strconv.ParseInt(query("memberId"), 10, 64)
	if err != nil || memberID <= 0 {
		return p, fmt.Errorf("invalid memberId %q", query("memberId"))
	}
	p.MemberID = memberID
	if raw := query("roomId"); raw != "" {
		roomID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || roomID <= 0 {
			return p, fmt.Errorf("invalid roomId %q", raw)
		}
		p.RoomID = roomID
	}
	if p.Codec, err = protocol.New(query("protocol")); err != nil {
		return p, err
	}
	p.Name = query("name")
	p.URLCode = query("urlCode")
	return p, nil
}

// ChatWebsocketHandler 可包含所有需要的 UseCase
type ChatWebsocketHandler struct {
	roomUC       *RoomUseCase
	messageUC    *SendMessageUseCase
	pubsub       repository.PubSub
	metrics      *Metrics
	pingInterval time.Duration
}

// NewChatWebsocketHandler create ChatWebsocketHandler
func NewChatWebsocketHandler(
	roomUC *RoomUseCase,
	messageUC *SendMessageUseCase,
	pubsub repository.PubSub,
	metrics *Metrics,
	pingInterval time.Duration,
) *ChatWebsocketHandler {
	return &ChatWebsocketHandler{
		roomUC:       roomUC,
		messageUC:    messageUC,
		pubsub:       pubsub,
		metrics:      metrics,
		pingInterval: pingInterval,
	}
}

// HandleConnection 是 WebSocket 連線的進入點
func (h *ChatWebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	params, err := ParseConnParams(func(key string) string { return conn.Query(key) })
	if err == nil {
		err = CheckTokenMember(conn.Locals(middlewares.TokenMemberID), params.MemberID)
	}
	if err != nil {
		logger.Log.Warn("websocket rejected", zap.Error(err))
		closeSocket(conn, websocket.ClosePolicyViolation, err.Error())
		return
	}
	h.Serve(ctx, conn, params)
}

// Serve run one connection until the client goes away or ctx ends
func (h *ChatWebsocketHandler) Serve(ctx context.Context, sock Socket, p ConnParams) {
	ctx, cancel := context.WithCancel(ctx)
	kind := p.Kind()
	w := &frameWriter{sock: sock, codec: p.Codec, kind: kind, metrics: h.metrics}

	h.metrics.Connections.WithLabelValues(kind).Inc()
	logger.Log.Info("websocket open",
		zap.Int64("member_id", p.MemberID),
		zap.Int64("room_id", p.RoomID),
		zap.String("protocol", p.Codec.Name()))
	defer func() {
		cancel()
		h.metrics.Connections.WithLabelValues(kind).Dec()
		_ = sock.Close()
		logger.Log.Info("websocket close", zap.Int64("member_id", p.MemberID), zap.Int64("room_id", p.RoomID))
	}()

	if p.Name != "" || p.URLCode != "" {
		profile := domain.MemberProfile{MemberID: p.MemberID, Name: p.Name, URLCode: p.URLCode}
		if err := h.roomUC.SaveProfile(ctx, profile); err != nil {
			logger.Log.Warn("save profile failed", zap.Int64("member_id", p.MemberID), zap.Error(err))
		}
	}

	if !h.subscribe(ctx, w, p) {
		return
	}
	go h.pingLoop(ctx, w)

	for {
		// 1. 讀取前端訊息
		mt, message, err := sock.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				logger.Log.Debug("connection closed", zap.Error(err))
			} else {
				logger.Log.Info("websocket read error", zap.Error(err))
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		h.metrics.FramesIn.WithLabelValues(kind).Inc()
		h.textMessageAction(ctx, w, p, string(message))
	}
}

// subscribe inbox connection listens on the member channel, room connection on the room channel
func (h *ChatWebsocketHandler) subscribe(ctx context.Context, w *frameWriter, p ConnParams) bool {
	channel, scope := domain.MemberChannel(p.MemberID), protocol.ScopeInbox
	if p.RoomID != 0 {
		room, err := h.roomUC.Enter(ctx, p.RoomID, p.MemberID)
		if errors.Is(err, errprocess.ErrRoomNotFound) || errors.Is(err, ErrNotRoomMember) {
			w.close(websocket.CloseNormalClosure, err.Error())
			return false
		}
		if err != nil {
			logger.Log.Error("enter room failed", zap.Int64("room_id", p.RoomID), zap.Error(err))
			w.close(websocket.CloseInternalServerErr, "enter room failed")
			return false
		}
		if kind, closed := h.roomUC.NoticeFor(room); closed {
			h.metrics.Notices.WithLabelValues(string(kind)).Inc()
			w.send(chatdomain.Notice{Kind: kind})
			if kind == chatdomain.NoticePeerWithdrew {
				w.close(CloseCodePeerWithdrew, chatdomain.NoticeText(kind))
				return false
			}
		}
		channel, scope = domain.RoomChannel(p.RoomID), protocol.ScopeRoom
	}

	err := h.pubsub.Subscribe(ctx, channel, func(payload string) {
		f, err := protocol.Envelope{}.Decode(scope, payload)
		if err != nil {
			logger.Log.Error("bad pub/sub payload", zap.String("channel", channel), zap.Error(err))
			return
		}
		w.send(f)
	})
	if err != nil {
		logger.Log.Error("subscribe failed", zap.String("channel", channel), zap.Error(err))
		w.close(websocket.CloseInternalServerErr, "subscribe failed")
		return false
	}
	return true
}

func (h *ChatWebsocketHandler) textMessageAction(ctx context.Context, w *frameWriter, p ConnParams, text string) {
	f, err := p.Codec.Decode(protocol.ScopeUpstream, text)
	if err != nil {
		logger.Log.Warn("drop malformed frame", zap.Int64("member_id", p.MemberID), zap.Error(err))
		return
	}

	switch v := f.(type) {
	//建立聊天室
	case chatdomain.RoomCreate:
		if v.MemberIDs[0] != p.MemberID && v.MemberIDs[1] != p.MemberID {
			logger.Log.Warn("room create for other members", zap.Int64("member_id", p.MemberID), zap.Int64("room_id", v.RoomID))
			return
		}
		if err := h.roomUC.CreateRoom(ctx, v); err != nil {
			logger.Log.Error("create room failed", zap.Int64("room_id", v.RoomID), zap.Error(err))
		}

	//傳送資料, 寫入db並傳給聊天室內的人
	case chatdomain.SendMessage:
		if v.MemberID != p.MemberID {
			logger.Log.Warn("send as other member", zap.Int64("member_id", p.MemberID), zap.Int64("sender", v.MemberID))
			return
		}
		msgID, err := h.messageUC.Execute(ctx, v)
		var closed *RoomClosedError
		switch {
		case errors.As(err, &closed):
			h.metrics.Notices.WithLabelValues(string(closed.Kind)).Inc()
			w.send(chatdomain.Notice{Kind: closed.Kind})
		case err != nil:
			logger.Log.Error("send message failed", zap.Int64("room_id", v.RoomID), zap.Error(err))
		default:
			h.metrics.Messages.Inc()
			// legacy 沒有 ack, frameWriter 會略過
			if v.ClientID != "" {
				w.send(chatdomain.SendAck{ClientID: v.ClientID, MessageID: msgID})
			}
		}

	case chatdomain.Ping:
		w.send(chatdomain.Pong{})

	case chatdomain.Pong:

	default:
		logger.Log.Warn("unexpected upstream frame", zap.String("type", fmt.Sprintf("%T", f)))
	}
}

func (h *ChatWebsocketHandler) pingLoop(ctx context.Context, w *frameWriter) {
	if h.pingInterval <= 0 {
		return
	}
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := w.ping(); err != nil {
				logger.Log.Debug("ping failed", zap.Error(err))
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// frameWriter serialise writes of one connection, pub/sub and the read loop both write
type frameWriter struct {
	mu      sync.Mutex
	sock    Socket
	codec   protocol.Codec
	kind    string
	metrics *Metrics
}

// send encode with the connection codec, frames it cannot express are skipped
func (w *frameWriter) send(f chatdomain.Frame) {
	text, err := w.codec.Encode(f)
	if errors.Is(err, protocol.ErrUnsupported) {
		logger.Log.Debug("frame skipped by codec", zap.String("codec", w.codec.Name()), zap.String("type", fmt.Sprintf("%T", f)))
		return
	}
	if err != nil {
		logger.Log.Error("encode frame failed", zap.Error(err))
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.sock.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		logger.Log.Debug("write message error", zap.Error(err))
		return
	}
	w.metrics.FramesOut.WithLabelValues(w.kind).Inc()
}

func (w *frameWriter) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sock.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (w *frameWriter) close(code int, reason string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	closeSocket(w.sock, code, reason)
}

func closeSocket(sock Socket, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	if err := sock.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
		logger.Log.Debug("failed to send close message", zap.Error(err))
	}
}
