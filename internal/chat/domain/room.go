package domain

// ChatRoomSummary one row of the inbox
type ChatRoomSummary struct {
	RoomID       int64  `json:"room_id"`
	PeerName     string `json:"peer_name"`
	PeerImageRef string `json:"peer_image_ref"`
	UnreadCount  int    `json:"unread_count"`
	LastMessage  string `json:"last_message"`
}

// PeerProfile header of a chat room page
type PeerProfile struct {
	Name     string `json:"name"`
	ImageRef string `json:"url_code"`
	Bio      string `json:"bio"`
}

// RoomStatus result of the room expiry check
type RoomStatus string

const (
	// RoomExtendable room exists and can still be extended
	RoomExtendable RoomStatus = "extendable"
	// RoomExpired room is past its 24 hour window
	RoomExpired RoomStatus = "expired"
	// RoomUnknown room does not exist
	RoomUnknown RoomStatus = "unknown"
)

// VoteResult answer of the room extension vote
type VoteResult struct {
	RoomID   int64  `json:"roomId"`
	MemberID int64  `json:"memberId"`
	Result   string `json:"result"`
}

const (
	// VoteAgree result sent to agree to the extension, also the answer once both agreed
	VoteAgree = "0"
	// VoteDeclined the peer declined
	VoteDeclined = "1"
	// VoteWaiting waiting for the peer
	VoteWaiting = "2"
)

// Extended both members voted, the room got seven more days
func (v VoteResult) Extended() bool {
	return v.Result == VoteAgree
}
