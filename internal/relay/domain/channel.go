package domain

import "strconv"

// MemberChannel pub/sub channel of one member's inbox
func MemberChannel(memberID int64) string {
	return "chat:user:" + strconv.FormatInt(memberID, 10)
}

// RoomChannel pub/sub channel of one room
func RoomChannel(roomID int64) string {
	return "chat:room:" + strconv.FormatInt(roomID, 10)
}

// ProfileKey redis key of a member profile
func ProfileKey(memberID int64) string {
	return "chat:member:" + strconv.FormatInt(memberID, 10)
}

// MessageSeqKey redis counter of message ids
const MessageSeqKey = "chat:message:seq"
