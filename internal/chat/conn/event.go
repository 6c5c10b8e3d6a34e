package conn

import "fmt"

// EventKind connection lifecycle event
type EventKind int

const (
	// EventConnected a socket was opened
	EventConnected EventKind = iota
	// EventDisconnected the socket was closed or a dial failed
	EventDisconnected
	// EventText a text frame arrived
	EventText
)

func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventText:
		return "text"
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event delivered to the owner of the manager
type Event struct {
	Kind EventKind
	// Generation socket generation the event belongs to
	Generation uint64
	Text       string

	// Disconnected only
	Code       int
	Reason     string
	Deliberate bool
	Err        error
}
