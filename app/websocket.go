package app

import (
	"hash/maphash"
	"net/http"
	"sync"
	"time"
	"unsafe"

	"github.com/fasthttp/websocket"
	"github.com/sebest/xff"

	"github.com/gitnostr/simulatr/pkg/nostr/envelopes"
)

// outMsg is one frame queued for delivery to a client.
type outMsg struct {
	typ  int
	data []byte
}

// WebSocket wraps a client connection with an ordered outbound queue.
// Writes are enqueued - possibly from inside the store's notification
// lock - and drained by a single writer goroutine that applies the
// relay's artificial latency, so per-subscription delivery order always
// follows the global save order.
type WebSocket struct {
	conn    *websocket.Conn
	Request *http.Request

	out       chan outMsg
	done      chan struct{}
	closeOnce sync.Once
	rl        *Relay
}

func newWebSocket(rl *Relay, conn *websocket.Conn, r *http.Request) *WebSocket {
	return &WebSocket{
		conn:    conn,
		Request: r,
		out:     make(chan outMsg, OutboundQueue),
		done:    make(chan struct{}),
		rl:      rl,
	}
}

// RealRemote returns the client address, honoring forwarding headers.
func (ws *WebSocket) RealRemote() string {
	return xff.GetRemoteAddr(ws.Request)
}

// WriteEnvelope queues a protocol message for the client. When the relay
// is muted the message is silently discarded. Returns false when the
// connection is already closed.
func (ws *WebSocket) WriteEnvelope(env envelopes.I) bool {
	if ws.rl.Muted() {
		return true
	}
	return ws.enqueue(outMsg{typ: websocket.TextMessage, data: env.Bytes()})
}

func (ws *WebSocket) ping() bool {
	return ws.enqueue(outMsg{typ: websocket.PingMessage})
}

func (ws *WebSocket) pong() bool {
	return ws.enqueue(outMsg{typ: websocket.PongMessage})
}

func (ws *WebSocket) enqueue(m outMsg) bool {
	select {
	case <-ws.done:
		return false
	default:
	}
	select {
	case ws.out <- m:
		return true
	case <-ws.done:
		return false
	}
}

// writePump drains the outbound queue onto the wire. It exits when the
// connection closes; queued but unsent frames are dropped without
// touching any other state.
func (ws *WebSocket) writePump() {
	for {
		select {
		case <-ws.done:
			return
		case m := <-ws.out:
			ws.rl.delay()
			if ws.rl.Muted() && m.typ == websocket.TextMessage {
				continue
			}
			_ = ws.conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := ws.conn.WriteMessage(m.typ, m.data); err != nil {
				ws.Close()
				return
			}
		}
	}
}

// Close terminates the connection. Idempotent; in-flight sends are
// cancelled without erroring into unrelated code paths.
func (ws *WebSocket) Close() {
	ws.closeOnce.Do(func() {
		close(ws.done)
		_ = ws.conn.Close()
	})
}

// PointerHasher hashes map keys by identity for the xsync maps.
func PointerHasher[V any](_ maphash.Seed, k *V) uint64 {
	return uint64(uintptr(unsafe.Pointer(k)))
}
