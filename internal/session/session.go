// Package session implements the per-connection actor shared by bartos and
// bartoc sessions (spec §4.D): inbound demux, a single-writer outbound
// sink, and a heartbeat, all observing one cancellation signal. Grounded on
// _examples/teranos-QNTX/server/client.go's readPump/writePump/ticker
// structure, generalized from a graph-push connection to a generic binary
// request/response one and mapped from goroutine-closure cancellation onto
// context.Context, the idiom original_source's tokio CancellationToken maps
// to in Go.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rustyhorde/barto-sub000/barto/errors"
	"github.com/rustyhorde/barto-sub000/barto/logging"
)

// HeartbeatInterval is how often the heartbeat task enqueues a timestamped
// ping (spec §4.D).
const HeartbeatInterval = 5 * time.Second

// ClientTimeout is the maximum time since the last inbound activity before
// the heartbeat task triggers cancellation (spec §4.D).
const ClientTimeout = 10 * time.Second

// ErrDecode marks errors produced while decoding an inbound binary frame.
var ErrDecode = errors.New("session: decode error")

// State is one of the four session lifecycle states (spec §4.D).
type State int32

const (
	Handshaking State = iota
	Live
	Draining
	Closed
)

func (s State) String() string {
	switch s {
	case Handshaking:
		return "handshaking"
	case Live:
		return "live"
	case Draining:
		return "draining"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Conn is the subset of *websocket.Conn the session actor needs. A real
// *websocket.Conn satisfies this directly; tests supply a fake.
//
// SetPingHandler/SetPongHandler mirror gorilla's control-frame contract: a
// real *websocket.Conn never returns PingMessage/PongMessage from
// ReadMessage, it intercepts them and invokes whichever handler is
// registered instead, so a custom PingHandler is responsible for replying
// with WriteControl itself (spec §4.D heartbeat).
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetReadDeadline(t time.Time) error
	SetPingHandler(h func(appData string) error)
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Handler decodes and processes one inbound binary payload, optionally
// returning a reply payload to enqueue on the outbound sink.
type Handler func(payload []byte) (reply []byte, err error)

type outboundItem struct {
	messageType int
	data        []byte
}

// Session is one WebSocket connection's actor.
type Session struct {
	ID      uuid.UUID
	conn    Conn
	handler Handler

	origin time.Time
	hbMu   sync.Mutex
	hb     time.Time

	outbound chan outboundItem
	state    atomic.Int32

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	closeOnce   sync.Once
	closeReason string
}

// New builds a session wrapping conn. Run must be called to start its tasks.
//
// ctx/cancel are seeded with a background context here, not left nil, so
// Enqueue may be called before Run (as cmd/bartos's workerHandler does, to
// push the Initialize frame before the session's read/write pumps start)
// without trySend's select evaluating a nil ctx.Done().
func New(id uuid.UUID, conn Conn, handler Handler) *Session {
	s := &Session{
		ID:       id,
		conn:     conn,
		handler:  handler,
		origin:   time.Now(),
		outbound: make(chan outboundItem, 64),
	}
	s.hb = s.origin
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.state.Store(int32(Handshaking))

	conn.SetPongHandler(func(appData string) error {
		s.touchHeartbeat()
		if d, ok := parseTsPing([]byte(appData)); ok {
			observeHeartbeatRTT(time.Since(s.origin) - d)
		}
		return s.conn.SetReadDeadline(time.Now().Add(ClientTimeout))
	})
	conn.SetPingHandler(func(appData string) error {
		s.touchHeartbeat()
		return s.conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(time.Second))
	})

	return s
}

// State reports the session's current lifecycle state.
func (s *Session) State() State { return State(s.state.Load()) }

func (s *Session) setState(st State) { s.state.Store(int32(st)) }

// Run starts the three concurrent responsibilities and blocks until all
// have exited, i.e. until the session reaches Closed (spec §4.D).
func (s *Session) Run(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.setState(Live)
	observeOpen()
	_ = s.conn.SetReadDeadline(time.Now().Add(ClientTimeout))

	s.wg.Add(3)
	go s.inboundDemux()
	go s.outboundSink()
	go s.heartbeatLoop()
	s.wg.Wait()

	s.setState(Closed)
	reason := s.closeReason
	if reason == "" {
		reason = "unknown"
	}
	observeClose(reason)
}

// Enqueue places a binary payload on the outbound queue. Safe to call from
// any goroutine; it is a no-op once the session is draining or closed.
func (s *Session) Enqueue(payload []byte) {
	s.trySend(outboundItem{messageType: websocket.BinaryMessage, data: payload})
}

func (s *Session) trySend(item outboundItem) {
	select {
	case s.outbound <- item:
	case <-s.ctx.Done():
	}
}

// triggerClose marks the session Draining and cancels its context exactly
// once, recording the first reason observed.
func (s *Session) triggerClose(reason string) {
	s.closeOnce.Do(func() {
		s.closeReason = reason
		s.setState(Draining)
		if s.cancel != nil {
			s.cancel()
		}
	})
}

func (s *Session) touchHeartbeat() {
	s.hbMu.Lock()
	s.hb = time.Now()
	s.hbMu.Unlock()
}

func (s *Session) sinceLastHeartbeat() time.Duration {
	s.hbMu.Lock()
	defer s.hbMu.Unlock()
	return time.Since(s.hb)
}

// inboundDemux reads frames one at a time and dispatches them (spec §4.D.1).
func (s *Session) inboundDemux() {
	defer s.wg.Done()
	for {
		if s.ctx.Err() != nil {
			return
		}
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			s.triggerClose("read-error")
			return
		}
		s.touchHeartbeat()

		switch messageType {
		case websocket.TextMessage:
			logging.Debugw("dropping unexpected text frame", "session", s.ID)
		case websocket.BinaryMessage:
			reply, err := s.handler(data)
			if err != nil {
				observeDecodeError(classifyDecodeError(err))
				logging.Warnw("decode error, dropping frame", "session", s.ID, "error", err)
				continue
			}
			if reply != nil {
				s.trySend(outboundItem{messageType: websocket.BinaryMessage, data: reply})
			}
		case websocket.CloseMessage:
			s.triggerClose("peer-close")
			return
		}
	}
}

func classifyDecodeError(err error) string {
	if errors.Is(err, ErrDecode) {
		return "decode"
	}
	return "other"
}

// outboundSink is the single writer of the connection's write half (spec
// §4.D.2). It drains currently-queued items and sends a close frame before
// exiting, so a reply or ping enqueued just before cancellation is still
// flushed. Pongs bypass this queue: the ping handler writes them directly
// with WriteControl.
func (s *Session) outboundSink() {
	defer s.wg.Done()
	for {
		select {
		case item := <-s.outbound:
			if err := s.conn.WriteMessage(item.messageType, item.data); err != nil {
				s.triggerClose("write-error")
				s.drainAndClose()
				return
			}
		case <-s.ctx.Done():
			s.drainAndClose()
			return
		}
	}
}

// closeReasonText maps the internal closeReason to the reason string sent on
// the wire in the close frame (spec §6): a heartbeat timeout reports
// "timeout", everything else is already a human-readable cause.
func closeReasonText(reason string) string {
	switch reason {
	case "heartbeat-timeout":
		return "timeout"
	case "":
		return "server shutting down"
	default:
		return reason
	}
}

func (s *Session) drainAndClose() {
	for {
		select {
		case item := <-s.outbound:
			_ = s.conn.WriteMessage(item.messageType, item.data)
		default:
			_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, closeReasonText(s.closeReason)))
			_ = s.conn.Close()
			return
		}
	}
}

// heartbeatLoop is the only polling task (spec §4.D.3): every
// HeartbeatInterval it either triggers cancellation on timeout or enqueues
// a fresh timestamped ping.
func (s *Session) heartbeatLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if s.sinceLastHeartbeat() > ClientTimeout {
				s.triggerClose("heartbeat-timeout")
				return
			}
			s.trySend(outboundItem{messageType: websocket.PingMessage, data: sendTsPing(s.origin)})
		}
	}
}
