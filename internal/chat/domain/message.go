package domain

import "time"

// MessageKind what a timeline entry is
type MessageKind string

const (
	// KindText normal chat message
	KindText MessageKind = "text"
	// KindNotice server status notice, e.g. peer left
	KindNotice MessageKind = "notice"
)

// ChatMessage one entry of a room timeline
type ChatMessage struct {
	// LocalID client side id, also the client id of an envelope send
	LocalID         string      `json:"local_id"`
	Content         string      `json:"content"`
	SenderIsSelf    bool        `json:"sender_is_self"`
	Read            bool        `json:"read"`
	// ServerMessageID 0 until the server assigns one
	ServerMessageID int64       `json:"server_message_id"`
	Timestamp       time.Time   `json:"timestamp"`
	Kind            MessageKind `json:"kind"`
}

// Pending optimistic send not yet acknowledged by the server
func (m ChatMessage) Pending() bool {
	return m.SenderIsSelf && m.ServerMessageID == 0 && m.Kind == KindText
}
