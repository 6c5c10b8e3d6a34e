package protocol

import (
	"encoding/json"
	"fmt"

	"joa_realtime/internal/chat/domain"
)

// Frame kinds of the envelope protocol
const (
	TypeInboxUpdate = "inbox_update"
	TypeRoomMessage = "room_message"
	TypeReadReceipt = "read_receipt"
	TypeNotice      = "notice"
	TypeSendAck     = "send_ack"
	TypeRoomCreate  = "room_create"
	TypeSendMessage = "send_message"
	TypePing        = "ping"
	TypePong        = "pong"
)

// SerializedFrame is the wire format wrapper
type SerializedFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// payload one registered envelope body
type payload interface {
	frameType() string
	toFrame() domain.Frame
}

var typeRegistry = map[string]func() payload{}

func init() {
	registerType(func() payload { return &inboxUpdatePayload{} })
	registerType(func() payload { return &roomMessagePayload{} })
	registerType(func() payload { return &readReceiptPayload{} })
	registerType(func() payload { return &noticePayload{} })
	registerType(func() payload { return &sendAckPayload{} })
	registerType(func() payload { return &roomCreatePayload{} })
	registerType(func() payload { return &sendMessagePayload{} })
	registerType(func() payload { return &pingPayload{} })
	registerType(func() payload { return &pongPayload{} })
}

func registerType(factory func() payload) {
	typeRegistry[factory().frameType()] = factory
}

// RegisteredTypes kinds known to the envelope codec
func RegisteredTypes() []string {
	types := make([]string, 0, len(typeRegistry))
	for t := range typeRegistry {
		types = append(types, t)
	}
	return types
}

// Envelope tagged JSON codec, {"type": ..., "payload": {...}}
type Envelope struct{}

// Name codec name
func (Envelope) Name() string { return NameEnvelope }

// Decode parse one frame, the scope does not change the grammar
func (Envelope) Decode(_ Scope, text string) (domain.Frame, error) {
	var sf SerializedFrame
	if err := json.Unmarshal([]byte(text), &sf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	factory, ok := typeRegistry[sf.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, sf.Type)
	}
	p := factory()
	if len(sf.Payload) > 0 && string(sf.Payload) != "null" {
		if err := json.Unmarshal(sf.Payload, p); err != nil {
			return nil, fmt.Errorf("%w: %s payload: %v", ErrMalformed, sf.Type, err)
		}
	}
	return p.toFrame(), nil
}

// Encode serialise a frame
func (Envelope) Encode(f domain.Frame) (string, error) {
	p, err := fromFrame(f)
	if err != nil {
		return "", err
	}
	body, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(SerializedFrame{Type: p.frameType(), Payload: body})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func fromFrame(f domain.Frame) (payload, error) {
	switch v := f.(type) {
	case domain.InboxUpdate:
		s := v.Summary
		return &inboxUpdatePayload{RoomID: s.RoomID, Name: s.PeerName, URLCode: s.PeerImageRef, Unread: s.UnreadCount, LastMessage: s.LastMessage}, nil
	case domain.RoomMessage:
		return &roomMessagePayload{MessageID: v.MessageID, Content: v.Content}, nil
	case domain.ReadReceipt:
		return &readReceiptPayload{All: v.All, MessageIDs: v.MessageIDs}, nil
	case domain.Notice:
		return &noticePayload{Kind: string(v.Kind), Text: v.Text}, nil
	case domain.SendAck:
		return &sendAckPayload{ClientID: v.ClientID, MessageID: v.MessageID}, nil
	case domain.RoomCreate:
		return &roomCreatePayload{RoomID: v.RoomID, MemberIDs: v.MemberIDs[:]}, nil
	case domain.SendMessage:
		return &sendMessagePayload{RoomID: v.RoomID, MemberID: v.MemberID, Content: v.Content, ClientID: v.ClientID}, nil
	case domain.Ping:
		return &pingPayload{}, nil
	case domain.Pong:
		return &pongPayload{}, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupported, f)
}

type inboxUpdatePayload struct {
	RoomID      int64  `json:"room_id"`
	Name        string `json:"name"`
	URLCode     string `json:"url_code"`
	Unread      int    `json:"unread_count"`
	LastMessage string `json:"last_message"`
}

func (p *inboxUpdatePayload) frameType() string { return TypeInboxUpdate }
func (p *inboxUpdatePayload) toFrame() domain.Frame {
	return domain.InboxUpdate{Summary: domain.ChatRoomSummary{
		RoomID: p.RoomID, PeerName: p.Name, PeerImageRef: p.URLCode, UnreadCount: p.Unread, LastMessage: p.LastMessage,
	}}
}

type roomMessagePayload struct {
	MessageID int64  `json:"message_id"`
	Content   string `json:"content"`
}

func (p *roomMessagePayload) frameType() string { return TypeRoomMessage }
func (p *roomMessagePayload) toFrame() domain.Frame {
	return domain.RoomMessage{MessageID: p.MessageID, Content: p.Content}
}

type readReceiptPayload struct {
	All        bool    `json:"all,omitempty"`
	MessageIDs []int64 `json:"message_ids,omitempty"`
}

func (p *readReceiptPayload) frameType() string { return TypeReadReceipt }
func (p *readReceiptPayload) toFrame() domain.Frame {
	return domain.ReadReceipt{All: p.All, MessageIDs: p.MessageIDs}
}

type noticePayload struct {
	Kind string `json:"kind"`
	Text string `json:"text,omitempty"`
}

func (p *noticePayload) frameType() string { return TypeNotice }
func (p *noticePayload) toFrame() domain.Frame {
	text := p.Text
	if text == "" {
		text = domain.NoticeText(domain.NoticeKind(p.Kind))
	}
	return domain.Notice{Kind: domain.NoticeKind(p.Kind), Text: text}
}

type sendAckPayload struct {
	ClientID  string `json:"client_id"`
	MessageID int64  `json:"message_id"`
}

func (p *sendAckPayload) frameType() string { return TypeSendAck }
func (p *sendAckPayload) toFrame() domain.Frame {
	return domain.SendAck{ClientID: p.ClientID, MessageID: p.MessageID}
}

type roomCreatePayload struct {
	RoomID    int64   `json:"room_id"`
	MemberIDs []int64 `json:"member_ids"`
}

func (p *roomCreatePayload) frameType() string { return TypeRoomCreate }
func (p *roomCreatePayload) toFrame() domain.Frame {
	f := domain.RoomCreate{RoomID: p.RoomID}
	copy(f.MemberIDs[:], p.MemberIDs)
	return f
}

type sendMessagePayload struct {
	RoomID   int64  `json:"room_id"`
	MemberID int64  `json:"member_id"`
	Content  string `json:"content"`
	ClientID string `json:"client_id"`
}

func (p *sendMessagePayload) frameType() string { return TypeSendMessage }
func (p *sendMessagePayload) toFrame() domain.Frame {
	return domain.SendMessage{RoomID: p.RoomID, MemberID: p.MemberID, Content: p.Content, ClientID: p.ClientID}
}

type pingPayload struct{}

func (p *pingPayload) frameType() string     { return TypePing }
func (p *pingPayload) toFrame() domain.Frame { return domain.Ping{} }

type pongPayload struct{}

func (p *pongPayload) frameType() string     { return TypePong }
func (p *pongPayload) toFrame() domain.Frame { return domain.Pong{} }
