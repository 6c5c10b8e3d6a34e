package protocol

import (
	"errors"
	"fmt"

	"joa_realtime/internal/chat/domain"
)

var (
	// ErrMalformed frame does not match the grammar of its scope
	ErrMalformed = errors.New("malformed frame")
	// ErrDelimiterInField a positional field contains the field delimiter
	ErrDelimiterInField = errors.New("field contains delimiter")
	// ErrUnknownType envelope type is not registered
	ErrUnknownType = errors.New("unknown frame type")
	// ErrUnsupported frame cannot be expressed by the codec
	ErrUnsupported = errors.New("frame not supported by codec")
)

// Scope which connection a frame arrived on, the legacy grammar depends on it
type Scope int

const (
	// ScopeInbox server to client, inbox connection
	ScopeInbox Scope = iota
	// ScopeRoom server to client, room connection
	ScopeRoom
	// ScopeUpstream client to server, either connection
	ScopeUpstream
)

func (s Scope) String() string {
	switch s {
	case ScopeInbox:
		return "inbox"
	case ScopeRoom:
		return "room"
	case ScopeUpstream:
		return "upstream"
	}
	return fmt.Sprintf("scope(%d)", int(s))
}

// Codec decode inbound text frames and encode outgoing ones
type Codec interface {
	Name() string
	Decode(scope Scope, text string) (domain.Frame, error)
	Encode(f domain.Frame) (string, error)
}

const (
	// NameLegacy space delimited positional protocol
	NameLegacy = "legacy"
	// NameEnvelope tagged JSON envelope protocol
	NameEnvelope = "envelope"
)

// New create the codec by config name
func New(name string) (Codec, error) {
	switch name {
	case NameLegacy, "":
		return Legacy{}, nil
	case NameEnvelope:
		return Envelope{}, nil
	}
	return nil, fmt.Errorf("unknown protocol %q", name)
}
