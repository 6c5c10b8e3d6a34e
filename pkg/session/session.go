package session

import (
	"errors"
	"strconv"
)

// ErrNoMember session without a logged in member
var ErrNoMember = errors.New("session has no member id")

// Session the logged in member, passed explicitly to every use case
type Session struct {
	MemberID int64
	// Token optional JWT sent as the auth query param
	Token string
}

// New create a session, memberID must be positive
func New(memberID int64, token string) (Session, error) {
	if memberID <= 0 {
		return Session{}, ErrNoMember
	}
	return Session{MemberID: memberID, Token: token}, nil
}

// MemberIDString member id as sent on the wire
func (s Session) MemberIDString() string {
	return strconv.FormatInt(s.MemberID, 10)
}

// Valid report whether a member is logged in
func (s Session) Valid() bool {
	return s.MemberID > 0
}
