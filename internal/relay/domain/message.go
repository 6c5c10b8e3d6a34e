package domain

// MessageBucket 表示某個聊天室某天的訊息存儲
type MessageBucket struct {
	RoomID   int64         `bson:"room_id" json:"room_id"`
	Date     string        `bson:"date" json:"date"` // 格式："2025-01-23"
	Messages []ChatMessage `bson:"messages" json:"messages"`
}

// ChatMessage 表示一則聊天訊息
type ChatMessage struct {
	ID        int64   `bson:"id" json:"id"` // redis 序號
	SenderID  int64   `bson:"sender_id" json:"sender_id"`
	Content   string  `bson:"content" json:"content"`
	Timestamp int64   `bson:"timestamp" json:"timestamp"`
	ReadBy    []int64 `bson:"read_by,omitempty" json:"read_by,omitempty"`
}

// ReadByMember member has read the message
func (m ChatMessage) ReadByMember(memberID int64) bool {
	for _, id := range m.ReadBy {
		if id == memberID {
			return true
		}
	}
	return false
}

// RoomUnreadInfo definition unread by room
type RoomUnreadInfo struct {
	RoomID              int64 `bson:"_id" json:"room_id"`
	UnreadCount         int   `bson:"unread_count" json:"unread_count"`
	LastUnreadTimeStamp int64 `bson:"last_unread_timestamp" json:"last_unread_timestamp"`
}

// DateLayout day bucket key format
const DateLayout = "2006-01-02"
