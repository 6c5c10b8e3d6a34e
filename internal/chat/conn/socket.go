package conn

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"joa_realtime/pkg/session"

	"github.com/gorilla/websocket"
)

// Socket the part of *websocket.Conn the manager uses
type Socket interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Dialer open a socket to url
type Dialer interface {
	Dial(ctx context.Context, url string) (Socket, error)
}

// GorillaDialer dial with gorilla/websocket
type GorillaDialer struct {
	Dialer *websocket.Dialer
	Header http.Header
}

// NewGorillaDialer create a dialer with a handshake timeout
func NewGorillaDialer(handshakeTimeout time.Duration) *GorillaDialer {
	d := *websocket.DefaultDialer
	d.HandshakeTimeout = handshakeTimeout
	return &GorillaDialer{Dialer: &d}
}

// Dial open the websocket
func (g *GorillaDialer) Dial(ctx context.Context, url string) (Socket, error) {
	c, resp, err := g.Dialer.DialContext(ctx, url, g.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return c, nil
}

// InboxURL ws[s]://<host>/ws?memberId=<id>
func InboxURL(host string, secure bool, s session.Session) string {
	return buildURL(host, secure, s, "memberId="+s.MemberIDString())
}

// RoomURL ws[s]://<host>/ws?roomId=<id>&memberId=<id>
func RoomURL(host string, secure bool, s session.Session, roomID int64) string {
	return buildURL(host, secure, s, fmt.Sprintf("roomId=%d&memberId=%s", roomID, s.MemberIDString()))
}

func buildURL(host string, secure bool, s session.Session, query string) string {
	scheme := "ws"
	if secure {
		scheme = "wss"
	}
	if s.Token != "" {
		query += "&auth=" + url.QueryEscape(s.Token)
	}
	return fmt.Sprintf("%s://%s/ws?%s", scheme, host, query)
}

// WithProtocol ask the relay for a frame codec, legacy is the server default
func WithProtocol(rawURL, name string) string {
	if name == "" || name == "legacy" {
		return rawURL
	}
	return rawURL + "&protocol=" + url.QueryEscape(name)
}
