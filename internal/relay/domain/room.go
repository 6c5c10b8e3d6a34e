package domain

import "time"

// RoomState lifecycle of a room
type RoomState string

const (
	// RoomOpen both members can chat
	RoomOpen RoomState = "open"
	// RoomClosed a member left or the room was reported
	RoomClosed RoomState = "closed"
)

// ChatRoom 1對1 聊天室, the id comes from the client's R frame
type ChatRoom struct {
	ID        int64     `bson:"_id"`
	Members   []int64   `bson:"members"`
	State     RoomState `bson:"state"`
	ClosedBy  string    `bson:"closed_by,omitempty"` // notice kind
	Left      []int64   `bson:"left,omitempty"`
	Votes     []int64   `bson:"votes,omitempty"` // 同意延長的 member
	Extended  bool      `bson:"extended"`
	CreatedAt int64     `bson:"created_at"`
}

// HasMember member belongs to the room
func (r *ChatRoom) HasMember(memberID int64) bool {
	for _, m := range r.Members {
		if m == memberID {
			return true
		}
	}
	return false
}

// Voted member agreed to extend the room
func (r *ChatRoom) Voted(memberID int64) bool {
	for _, m := range r.Votes {
		if m == memberID {
			return true
		}
	}
	return false
}

// Peer the other member of the room
func (r *ChatRoom) Peer(memberID int64) (int64, bool) {
	for _, m := range r.Members {
		if m != memberID {
			return m, true
		}
	}
	return 0, false
}

// ExpiresAt end of the chat window, seven more days once extended
func (r *ChatRoom) ExpiresAt(ttl time.Duration) time.Time {
	end := time.Unix(r.CreatedAt, 0).Add(ttl)
	if r.Extended {
		end = end.Add(7 * 24 * time.Hour)
	}
	return end
}

// Expired window is over at now
func (r *ChatRoom) Expired(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && !now.Before(r.ExpiresAt(ttl))
}

// MemberProfile display data shown in the peer's inbox
type MemberProfile struct {
	MemberID int64  `json:"member_id"`
	Name     string `json:"name"`
	URLCode  string `json:"url_code"`
	Bio      string `json:"bio,omitempty"`
}
