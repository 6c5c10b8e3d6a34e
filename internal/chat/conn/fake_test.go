package conn

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var errSocketClosed = errors.New("use of closed network connection")

type inbound struct {
	text string
	err  error
}

// fakeSocket in-memory Socket, the test pushes inbound frames
type fakeSocket struct {
	mu          sync.Mutex
	written     []string
	controls    []int
	closeCount  int
	pongHandler func(string) error
	autoPong    bool
	failWrites  bool

	incoming chan inbound
	closed   chan struct{}
}

func newFakeSocket(autoPong bool) *fakeSocket {
	return &fakeSocket{autoPong: autoPong, incoming: make(chan inbound, 16), closed: make(chan struct{})}
}

func (s *fakeSocket) ReadMessage() (int, []byte, error) {
	select {
	case in := <-s.incoming:
		if in.err != nil {
			return 0, nil, in.err
		}
		return websocket.TextMessage, []byte(in.text), nil
	case <-s.closed:
		return 0, nil, errSocketClosed
	}
}

func (s *fakeSocket) WriteMessage(_ int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites {
		return errSocketClosed
	}
	s.written = append(s.written, string(data))
	return nil
}

func (s *fakeSocket) WriteControl(messageType int, _ []byte, _ time.Time) error {
	s.mu.Lock()
	s.controls = append(s.controls, messageType)
	handler, auto := s.pongHandler, s.autoPong
	s.mu.Unlock()
	if messageType == websocket.PingMessage && auto && handler != nil {
		return handler("")
	}
	return nil
}

func (s *fakeSocket) SetPongHandler(h func(string) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pongHandler = h
}

func (s *fakeSocket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeCount++
	if s.closeCount == 1 {
		close(s.closed)
	}
	return nil
}

func (s *fakeSocket) push(text string) { s.incoming <- inbound{text: text} }

func (s *fakeSocket) pushErr(err error) { s.incoming <- inbound{err: err} }

func (s *fakeSocket) closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCount
}

func (s *fakeSocket) sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.written...)
}

func (s *fakeSocket) controlFrames() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.controls...)
}

// fakeDialer hand out fake sockets, failing the next n dials when asked
type fakeDialer struct {
	mu       sync.Mutex
	sockets  []*fakeSocket
	urls     []string
	failNext int
	autoPong bool
}

func (d *fakeDialer) Dial(_ context.Context, url string) (Socket, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.urls = append(d.urls, url)
	if d.failNext > 0 {
		d.failNext--
		return nil, errors.New("connection refused")
	}
	s := newFakeSocket(d.autoPong)
	d.sockets = append(d.sockets, s)
	return s, nil
}

func (d *fakeDialer) dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.urls)
}

func (d *fakeDialer) socket(i int) *fakeSocket {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sockets[i]
}

func nextEvent(t *testing.T, m *Manager) Event {
	t.Helper()
	select {
	case ev, ok := <-m.Events():
		if !ok {
			t.Fatal("events channel closed")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func expectNoEvent(t *testing.T, m *Manager, wait time.Duration) {
	t.Helper()
	select {
	case ev := <-m.Events():
		t.Fatalf("unexpected event %v", ev.Kind)
	case <-time.After(wait):
	}
}
