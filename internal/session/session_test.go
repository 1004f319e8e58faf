package session

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn is an in-memory Conn double so the actor can be driven without a
// real socket. It emulates gorilla's control-frame contract: Ping/Pong
// frames pushed via pushPing/pushPong are delivered to the registered
// handler instead of being returned from ReadMessage. Like a real
// connection, ReadMessage fails once Close has been called.
type fakeConn struct {
	mu          sync.Mutex
	inbox       [][2]interface{} // (messageType, []byte)
	idx         int
	written     []outboundItem
	controls    []outboundItem
	closed      bool
	pingHandler func(appData string) error
	pongHandler func(appData string) error
}

func newFakeConn() *fakeConn { return &fakeConn{} }

func (f *fakeConn) pushPong(appData string) {
	f.mu.Lock()
	h := f.pongHandler
	f.mu.Unlock()
	if h != nil {
		_ = h(appData)
	}
}

func (f *fakeConn) pushPing(appData string) {
	f.mu.Lock()
	h := f.pingHandler
	f.mu.Unlock()
	if h != nil {
		_ = h(appData)
	}
}

func (f *fakeConn) pushInbound(messageType int, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inbox = append(f.inbox, [2]interface{}{messageType, data})
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	for {
		f.mu.Lock()
		if f.idx < len(f.inbox) {
			item := f.inbox[f.idx]
			f.idx++
			f.mu.Unlock()
			return item[0].(int), item[1].([]byte), nil
		}
		if f.closed {
			f.mu.Unlock()
			return 0, nil, net.ErrClosed
		}
		f.mu.Unlock()
		time.Sleep(time.Millisecond)
	}
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, outboundItem{messageType: messageType, data: data})
	return nil
}

func (f *fakeConn) WriteControl(messageType int, data []byte, deadline time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.controls = append(f.controls, outboundItem{messageType: messageType, data: data})
	return nil
}

func (f *fakeConn) SetReadDeadline(time.Time) error { return nil }

func (f *fakeConn) SetPingHandler(h func(appData string) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pingHandler = h
}

func (f *fakeConn) SetPongHandler(h func(appData string) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pongHandler = h
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) writtenCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.written)
}

func (f *fakeConn) controlCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.controls)
}

func TestSessionEchoesHandlerReply(t *testing.T) {
	conn := newFakeConn()
	handler := func(payload []byte) ([]byte, error) {
		return append([]byte("echo:"), payload...), nil
	}
	s := New(uuid.New(), conn, handler)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() { defer wg.Done(); s.Run(ctx) }()

	conn.pushInbound(websocket.BinaryMessage, []byte("hi"))
	require.Eventually(t, func() bool { return conn.writtenCount() >= 1 }, time.Second, time.Millisecond)

	cancel()
	wg.Wait()
	assert.Equal(t, Closed, s.State())
}

func TestSessionHeartbeatTimeoutClosesSession(t *testing.T) {
	conn := newFakeConn()
	s := New(uuid.New(), conn, func(p []byte) ([]byte, error) { return nil, nil })
	s.hb = time.Now().Add(-ClientTimeout - time.Second)

	ctx := context.Background()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() { defer wg.Done(); s.Run(ctx) }()

	require.Eventually(t, func() bool { return s.State() == Closed }, 2*HeartbeatInterval+time.Second, 10*time.Millisecond)
	wg.Wait()
	assert.Equal(t, "heartbeat-timeout", s.closeReason)
}

func TestSessionDecodeErrorDoesNotCloseSession(t *testing.T) {
	conn := newFakeConn()
	calls := 0
	handler := func(payload []byte) ([]byte, error) {
		calls++
		return nil, ErrDecode
	}
	s := New(uuid.New(), conn, handler)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() { defer wg.Done(); s.Run(ctx) }()

	conn.pushInbound(websocket.BinaryMessage, []byte("bad"))
	require.Eventually(t, func() bool { return calls >= 1 }, time.Second, time.Millisecond)
	assert.Equal(t, Live, s.State())

	cancel()
	wg.Wait()
}

func TestSessionCloseFrameTriggersShutdown(t *testing.T) {
	conn := newFakeConn()
	s := New(uuid.New(), conn, func(p []byte) ([]byte, error) { return nil, nil })
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() { defer wg.Done(); s.Run(ctx) }()

	conn.pushInbound(websocket.CloseMessage, nil)
	wg.Wait()
	assert.Equal(t, Closed, s.State())
	assert.Equal(t, "peer-close", s.closeReason)
	assert.True(t, conn.closed)
}

// TestSessionEnqueueBeforeRun reproduces cmd/bartos's workerHandler call
// order (Enqueue pushes the Initialize frame before Run starts the read/
// write pumps) and asserts it does not panic, and that the payload is
// flushed once Run starts.
func TestSessionEnqueueBeforeRun(t *testing.T) {
	conn := newFakeConn()
	s := New(uuid.New(), conn, func(p []byte) ([]byte, error) { return nil, nil })

	require.NotPanics(t, func() {
		s.Enqueue([]byte("initialize"))
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() { defer wg.Done(); s.Run(ctx) }()

	require.Eventually(t, func() bool { return conn.writtenCount() >= 1 }, time.Second, time.Millisecond)

	cancel()
	wg.Wait()
}

func TestSessionHeartbeatTimeoutSendsTimeoutReason(t *testing.T) {
	conn := newFakeConn()
	s := New(uuid.New(), conn, func(p []byte) ([]byte, error) { return nil, nil })
	s.hb = time.Now().Add(-ClientTimeout - time.Second)

	ctx := context.Background()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() { defer wg.Done(); s.Run(ctx) }()

	require.Eventually(t, func() bool { return s.State() == Closed }, 2*HeartbeatInterval+time.Second, 10*time.Millisecond)
	wg.Wait()

	require.NotEmpty(t, conn.written)
	last := conn.written[len(conn.written)-1]
	assert.Equal(t, websocket.CloseMessage, last.messageType)
	assert.Contains(t, string(last.data), "timeout")
}

func TestSessionPongHandlerRefreshesHeartbeat(t *testing.T) {
	conn := newFakeConn()
	s := New(uuid.New(), conn, func(p []byte) ([]byte, error) { return nil, nil })
	s.hb = time.Now().Add(-ClientTimeout)

	conn.pushPong(string(sendTsPing(s.origin)))

	assert.Less(t, s.sinceLastHeartbeat(), ClientTimeout)
}

func TestSessionPingHandlerRepliesWithPong(t *testing.T) {
	conn := newFakeConn()
	s := New(uuid.New(), conn, func(p []byte) ([]byte, error) { return nil, nil })

	conn.pushPing("ping-body")

	require.Equal(t, 1, conn.controlCount())
	assert.Equal(t, websocket.PongMessage, conn.controls[0].messageType)
	assert.Equal(t, "ping-body", string(conn.controls[0].data))
}

func TestParseTsPingRejectsWrongLength(t *testing.T) {
	_, ok := parseTsPing([]byte{1, 2, 3})
	assert.False(t, ok)
}

func TestSendParseTsPingRoundTrip(t *testing.T) {
	origin := time.Now().Add(-5 * time.Second)
	b := sendTsPing(origin)
	d, ok := parseTsPing(b)
	require.True(t, ok)
	assert.InDelta(t, 5*time.Second, d, float64(500*time.Millisecond))
}
