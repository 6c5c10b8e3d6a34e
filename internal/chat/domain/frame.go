package domain

import "strings"

// Frame one decoded text payload of the persistent connection
type Frame interface {
	frame()
}

// InboxUpdate push to the inbox connection when a room changes
type InboxUpdate struct {
	Summary ChatRoomSummary
}

// RoomMessage message from the peer on the room connection
type RoomMessage struct {
	MessageID int64
	Content   string
}

// ReadReceipt peer read messages, All is the legacy "0" sentinel
type ReadReceipt struct {
	All        bool
	MessageIDs []int64
}

// Notice server status notice, the room can no longer be used
type Notice struct {
	Kind NoticeKind
	Text string
}

// SendAck server id assigned to an optimistic send
type SendAck struct {
	ClientID  string
	MessageID int64
}

// RoomCreate announce a new room between two members
type RoomCreate struct {
	RoomID    int64
	MemberIDs [2]int64
}

// SendMessage outgoing chat message
type SendMessage struct {
	RoomID   int64
	MemberID int64
	Content  string
	ClientID string
}

// Ping application level ping
type Ping struct{}

// Pong application level pong
type Pong struct{}

func (InboxUpdate) frame() {}
func (RoomMessage) frame() {}
func (ReadReceipt) frame() {}
func (Notice) frame()      {}
func (SendAck) frame()     {}
func (RoomCreate) frame()  {}
func (SendMessage) frame() {}
func (Ping) frame()        {}
func (Pong) frame()        {}

// NoticeKind reason the server closed a room
type NoticeKind string

const (
	// NoticePeerWithdrew peer deleted the JoA account
	NoticePeerWithdrew NoticeKind = "peer_withdrew"
	// NoticeExpired24h room passed 24 hours without extension
	NoticeExpired24h NoticeKind = "expired_24h"
	// NoticeExpired7d extended room passed 7 days
	NoticeExpired7d NoticeKind = "expired_7d"
	// NoticePeerLeft peer left the room
	NoticePeerLeft NoticeKind = "peer_left"
	// NoticeReported room was reported
	NoticeReported NoticeKind = "reported"
)

// notice texts as sent by the deployed server
var noticeSentinels = []struct {
	kind NoticeKind
	text string
}{
	{NoticePeerWithdrew, "상대방이 JoA를 탈퇴하였습니다."},
	{NoticeExpired24h, "채팅방 유효기간이 24시간을 초과하였습니다."},
	{NoticeExpired7d, "채팅방 유효기간이 7일을 초과하였습니다."},
	{NoticePeerLeft, "상대방이 채팅방을 나갔습니다."},
	{NoticeReported, "신고된 채팅방입니다."},
}

// DetectNotice find the notice sentinel contained in text
func DetectNotice(text string) (NoticeKind, bool) {
	for _, s := range noticeSentinels {
		if strings.Contains(text, s.text) {
			return s.kind, true
		}
	}
	return "", false
}

// NoticeText wire text of a notice kind
func NoticeText(kind NoticeKind) string {
	for _, s := range noticeSentinels {
		if s.kind == kind {
			return s.text
		}
	}
	return ""
}
