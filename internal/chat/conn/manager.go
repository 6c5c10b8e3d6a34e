package conn

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"joa_realtime/internal/chat/domain"
	"joa_realtime/pkg/config"
	"joa_realtime/pkg/logger"

	"github.com/benbjohnson/clock"
	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	// ErrNotConnected no live socket
	ErrNotConnected = errors.New("not connected")
	// ErrAlreadyOpen Open called twice
	ErrAlreadyOpen = errors.New("connection already open")
	// ErrClosed manager was closed
	ErrClosed = errors.New("connection manager closed")
	// ErrPongTimeout no pong within the pong timeout
	ErrPongTimeout = errors.New("pong timeout")
)

// Policy liveness policy
type Policy string

const (
	// PolicyRecycle close and reopen every interval regardless of link health
	PolicyRecycle Policy = "recycle"
	// PolicyHeartbeat ping, redial with exponential backoff on failure
	PolicyHeartbeat Policy = "heartbeat"
)

// CloseCodePeerWithdrew close code the server uses when the peer deleted the account
const CloseCodePeerWithdrew = websocket.CloseInternalServerErr

const (
	writeWait   = 5 * time.Second
	dialTimeout = 10 * time.Second
)

// Liveness policy settings
type Liveness struct {
	Policy          Policy
	RecycleInterval time.Duration
	PingInterval    time.Duration
	PongTimeout     time.Duration
	BackoffInitial  time.Duration
	BackoffMax      time.Duration
}

// LivenessFromConfig map the yaml liveness section
func LivenessFromConfig(c config.LivenessConfig) Liveness {
	return Liveness{
		Policy:          Policy(c.Mode),
		RecycleInterval: c.RecycleInterval,
		PingInterval:    c.PingInterval,
		PongTimeout:     c.PongTimeout,
		BackoffInitial:  c.BackoffInitial,
		BackoffMax:      c.BackoffMax,
	}
}

// Options manager settings
type Options struct {
	// Name inbox or room, used for logs and metrics
	Name     string
	URL      string
	Liveness Liveness
	Clock    clock.Clock
	Metrics  *Metrics
}

type sendCmd struct {
	text  string
	reply chan error
}

type readResult struct {
	gen  uint64
	text string
	err  error
}

// Manager one persistent connection, every socket operation runs on the owner goroutine
type Manager struct {
	dialer  Dialer
	opts    Options
	log     *logger.LogInfo
	clock   clock.Clock
	metrics *Metrics

	cmds    chan sendCmd
	inbound chan readResult
	events  chan Event
	done    chan struct{}

	mu     sync.Mutex
	cancel context.CancelFunc
	opened bool

	lastPong atomic.Int64

	// owner goroutine state
	sock         Socket
	gen          uint64
	readerStop   chan struct{}
	terminated   bool
	queue        []Event
	redial       <-chan time.Time
	pongDeadline <-chan time.Time
	pingSentAt   int64
	backoff      *backoff.ExponentialBackOff
}

// NewManager create a manager, nothing is dialled before Open
func NewManager(dialer Dialer, opts Options) *Manager {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Metrics == nil {
		opts.Metrics = DefaultMetrics
	}
	if opts.Liveness.Policy == "" {
		opts.Liveness.Policy = PolicyRecycle
	}
	if opts.Liveness.RecycleInterval <= 0 {
		opts.Liveness.RecycleInterval = 30 * time.Second
	}
	if opts.Liveness.PingInterval <= 0 {
		opts.Liveness.PingInterval = 15 * time.Second
	}
	if opts.Liveness.PongTimeout <= 0 {
		opts.Liveness.PongTimeout = 10 * time.Second
	}

	b := backoff.NewExponentialBackOff()
	if opts.Liveness.BackoffInitial > 0 {
		b.InitialInterval = opts.Liveness.BackoffInitial
	}
	if opts.Liveness.BackoffMax > 0 {
		b.MaxInterval = opts.Liveness.BackoffMax
	}
	b.MaxElapsedTime = 0
	b.Reset()

	return &Manager{
		dialer:  dialer,
		opts:    opts,
		log:     logger.Log.With(zap.String("conn", opts.Name)),
		clock:   opts.Clock,
		metrics: opts.Metrics,
		cmds:    make(chan sendCmd),
		inbound: make(chan readResult),
		events:  make(chan Event),
		done:    make(chan struct{}),
		backoff: b,
	}
}

// Events lifecycle and text events, closed after Close
func (m *Manager) Events() <-chan Event {
	return m.events
}

// Open start the owner goroutine and dial, dial failures are reported as events
func (m *Manager) Open(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.opened {
		return ErrAlreadyOpen
	}
	m.opened = true
	ctx, m.cancel = context.WithCancel(ctx)
	go m.run(ctx)
	return nil
}

// Close stop the owner and wait for it, queued frames are not flushed
func (m *Manager) Close() {
	m.mu.Lock()
	cancel := m.cancel
	m.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-m.done
}

// Send write one text frame through the owner
func (m *Manager) Send(ctx context.Context, text string) error {
	m.mu.Lock()
	opened := m.opened
	m.mu.Unlock()
	if !opened {
		return ErrNotConnected
	}

	reply := make(chan error, 1)
	select {
	case m.cmds <- sendCmd{text: text, reply: reply}:
	case <-m.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) run(ctx context.Context) {
	defer close(m.done)
	defer close(m.events)

	var ticker *clock.Ticker
	if m.opts.Liveness.Policy == PolicyHeartbeat {
		ticker = m.clock.Ticker(m.opts.Liveness.PingInterval)
	} else {
		ticker = m.clock.Ticker(m.opts.Liveness.RecycleInterval)
	}
	defer ticker.Stop()

	m.connect(ctx)

	for {
		var out chan<- Event
		var next Event
		if len(m.queue) > 0 {
			out = m.events
			next = m.queue[0]
		}

		select {
		case <-ctx.Done():
			if m.sock != nil {
				m.dropSocket(true)
			}
			m.log.Debug("connection manager stopped")
			return
		case out <- next:
			m.queue = m.queue[1:]
		case cmd := <-m.cmds:
			cmd.reply <- m.write(cmd.text)
		case r := <-m.inbound:
			m.handleRead(r)
		case <-ticker.C:
			m.tick(ctx)
		case <-m.pongDeadline:
			m.checkPong()
		case <-m.redial:
			m.redial = nil
			m.metrics.Reconnects.WithLabelValues(m.opts.Name).Inc()
			m.connect(ctx)
		}
	}
}

func (m *Manager) emit(ev Event) {
	m.queue = append(m.queue, ev)
}

func (m *Manager) connect(ctx context.Context) {
	if m.terminated {
		return
	}
	m.metrics.Dials.WithLabelValues(m.opts.Name).Inc()

	dctx, cancel := context.WithTimeout(ctx, dialTimeout)
	s, err := m.dialer.Dial(dctx, m.opts.URL)
	cancel()
	if err != nil {
		m.metrics.DialFailures.WithLabelValues(m.opts.Name).Inc()
		m.log.Warn("websocket dial failed", zap.String("url", m.opts.URL), zap.Error(err))
		m.emit(Event{Kind: EventDisconnected, Generation: m.gen, Err: err})
		if m.opts.Liveness.Policy == PolicyHeartbeat && ctx.Err() == nil {
			m.scheduleRedial()
		}
		return
	}

	m.gen++
	m.sock = s
	m.lastPong.Store(m.clock.Now().UnixNano())
	m.pingSentAt = 0
	m.pongDeadline = nil
	s.SetPongHandler(func(string) error {
		m.lastPong.Store(m.clock.Now().UnixNano())
		return nil
	})
	stop := make(chan struct{})
	m.readerStop = stop
	go m.read(m.gen, s, stop)

	m.backoff.Reset()
	m.log.Info("websocket connected", zap.Uint64("generation", m.gen))
	m.emit(Event{Kind: EventConnected, Generation: m.gen})
}

// read forward frames of one socket generation to the owner
func (m *Manager) read(gen uint64, s Socket, stop <-chan struct{}) {
	for {
		mt, data, err := s.ReadMessage()
		if err == nil && mt != websocket.TextMessage {
			continue
		}
		r := readResult{gen: gen, err: err}
		if err == nil {
			r.text = string(data)
		}
		select {
		case m.inbound <- r:
		case <-stop:
			return
		}
		if err != nil {
			return
		}
	}
}

// dropSocket close the current socket, later results of it are stale
func (m *Manager) dropSocket(sendClose bool) {
	close(m.readerStop)
	if sendClose {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if err := m.sock.WriteControl(websocket.CloseMessage, msg, m.clock.Now().Add(writeWait)); err != nil {
			m.log.Debug("write close frame", zap.Error(err))
		}
	}
	if err := m.sock.Close(); err != nil {
		m.log.Debug("close socket", zap.Error(err))
	}
	m.sock = nil
	m.readerStop = nil
	m.pongDeadline = nil
	m.gen++
}

func (m *Manager) write(text string) error {
	if m.sock == nil {
		return ErrNotConnected
	}
	if err := m.sock.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		m.log.Warn("websocket write failed", zap.Error(err))
		gen := m.gen
		m.dropSocket(false)
		m.emit(Event{Kind: EventDisconnected, Generation: gen, Err: err})
		m.afterLoss()
		return err
	}
	m.metrics.FramesOut.WithLabelValues(m.opts.Name).Inc()
	return nil
}

func (m *Manager) handleRead(r readResult) {
	if r.gen != m.gen || m.sock == nil {
		m.log.Debug("drop stale frame", zap.Uint64("generation", r.gen))
		return
	}
	if r.err == nil {
		m.metrics.FramesIn.WithLabelValues(m.opts.Name).Inc()
		m.emit(Event{Kind: EventText, Generation: r.gen, Text: r.text})
		return
	}

	ev := Event{Kind: EventDisconnected, Generation: r.gen, Err: r.err}
	var ce *websocket.CloseError
	if errors.As(r.err, &ce) {
		ev.Code = ce.Code
		ev.Reason = ce.Text
		ev.Deliberate = isDeliberate(ce.Code, ce.Text)
	}
	m.dropSocket(false)

	if ev.Deliberate {
		m.terminated = true
		m.log.Info("server closed the connection", zap.Int("code", ev.Code), zap.String("reason", ev.Reason))
		m.emit(ev)
		return
	}
	m.log.Warn("websocket read failed", zap.Error(r.err))
	m.emit(ev)
	m.afterLoss()
}

// isDeliberate server closes that must not be retried, a plain 1000 is a restart
func isDeliberate(code int, reason string) bool {
	if code == CloseCodePeerWithdrew {
		return true
	}
	_, notice := domain.DetectNotice(reason)
	return notice
}

// afterLoss recycle waits for the next tick, heartbeat redials with backoff
func (m *Manager) afterLoss() {
	if m.opts.Liveness.Policy == PolicyHeartbeat {
		m.scheduleRedial()
	}
}

func (m *Manager) scheduleRedial() {
	if m.terminated || m.redial != nil {
		return
	}
	d := m.backoff.NextBackOff()
	if d == backoff.Stop {
		m.terminated = true
		return
	}
	m.log.Debug("redial scheduled", zap.Duration("after", d))
	m.redial = m.clock.After(d)
}

func (m *Manager) tick(ctx context.Context) {
	if m.terminated {
		return
	}
	switch m.opts.Liveness.Policy {
	case PolicyHeartbeat:
		m.ping()
	default:
		m.recycle(ctx)
	}
}

// recycle one close then one reopen
func (m *Manager) recycle(ctx context.Context) {
	m.metrics.Recycles.WithLabelValues(m.opts.Name).Inc()
	if m.sock != nil {
		gen := m.gen
		m.dropSocket(true)
		m.emit(Event{Kind: EventDisconnected, Generation: gen, Code: websocket.CloseNormalClosure, Reason: "recycle"})
	}
	m.connect(ctx)
}

func (m *Manager) ping() {
	if m.sock == nil || m.pongDeadline != nil {
		return
	}
	m.pingSentAt = m.clock.Now().UnixNano()
	m.pongDeadline = m.clock.After(m.opts.Liveness.PongTimeout)
	if err := m.sock.WriteControl(websocket.PingMessage, nil, m.clock.Now().Add(writeWait)); err != nil {
		gen := m.gen
		m.dropSocket(false)
		m.emit(Event{Kind: EventDisconnected, Generation: gen, Err: err})
		m.afterLoss()
	}
}

func (m *Manager) checkPong() {
	m.pongDeadline = nil
	if m.sock == nil || m.lastPong.Load() >= m.pingSentAt {
		return
	}
	m.log.Warn("no pong in time, dropping socket", zap.Duration("timeout", m.opts.Liveness.PongTimeout))
	gen := m.gen
	m.dropSocket(false)
	m.emit(Event{Kind: EventDisconnected, Generation: gen, Err: ErrPongTimeout})
	m.afterLoss()
}
