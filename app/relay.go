// Package app implements the relay protocol layer: the WebSocket endpoint a
// nostr client connects to, subscription bookkeeping, broadcast of accepted
// events, and the fault injection used to probe client behavior under bad
// network conditions.
package app

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/puzpuzpuz/xsync/v2"

	"github.com/gitnostr/simulatr/pkg/eventstore"
	"github.com/gitnostr/simulatr/pkg/log"
	"github.com/gitnostr/simulatr/pkg/nostr/event"
	"github.com/gitnostr/simulatr/pkg/nostr/filter"
	"github.com/gitnostr/simulatr/pkg/nostr/subscriptionid"
)

var slog, chk = log.New()

var Version = "v0.1.0"
var Software = "https://github.com/gitnostr/simulatr"

const (
	WriteWait       = 10 * time.Second
	PongWait        = 60 * time.Second
	PingPeriod      = 30 * time.Second
	ReadBufferSize  = 4096
	WriteBufferSize = 4096
	MaxMessageSize  = 512000
	// outbound queue depth per connection; writes block when a consumer
	// is this far behind
	OutboundQueue = 256
)

// Storage is what the relay needs from its event store: the usual save and
// query surface plus the save-order broadcast feed.
type Storage interface {
	eventstore.Store
	Subscribe(fn func(*event.T)) (unsubscribe func())
}

// Function types used in the relay policy chain.
type (
	RejectEvent func(c context.Context, ev *event.T) (reject bool, msg string)
	RejectFilter func(c context.Context, id subscriptionid.T,
		f *filter.T) (reject bool, msg string)
	Hook      func(c context.Context)
	EventHook func(c context.Context, ev *event.T)
)

// Relay is one mock relay instance. Every field of shared state hangs off
// the instance; nothing is process wide, so tests can run isolated relays
// side by side.
type Relay struct {
	Info *Info

	// policy chains, run in order; the first rejection wins
	RejectEvent  []RejectEvent
	RejectFilter []RejectFilter

	OnConnect    []Hook
	OnDisconnect []Hook
	OnEventSaved []EventHook

	storage   Storage
	upgrader  websocket.Upgrader
	clients   *xsync.MapOf[*WebSocket, struct{}]
	listeners ListenerMap
	serveMux  *http.ServeMux

	// fault injection
	latency atomic.Int64 // nanoseconds added to every message
	jitter  atomic.Int64 // random extra, uniform in [0, jitter)
	muted   atomic.Bool  // accept everything, respond to nothing

	unsubscribe func()
}

// NewRelay wires a relay to an event store. The relay registers on the
// store's broadcast feed, so events saved by anyone - a connection or a
// seeding harness - reach matching subscriptions in save order.
func NewRelay(storage Storage) (rl *Relay) {
	rl = &Relay{
		Info: NewInfo(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  ReadBufferSize,
			WriteBufferSize: WriteBufferSize,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		storage: storage,
		clients: xsync.NewTypedMapOf[*WebSocket, struct{}](
			PointerHasher[WebSocket]),
		listeners: xsync.NewTypedMapOf[*WebSocket, SubMap](
			PointerHasher[WebSocket]),
		serveMux: &http.ServeMux{},
	}
	rl.unsubscribe = storage.Subscribe(rl.notifyListeners)
	return
}

// Storage exposes the store the relay serves from.
func (rl *Relay) Storage() Storage { return rl.storage }

// Shutdown drops all connections and detaches the relay from its store's
// broadcast feed. The store itself is left untouched.
func (rl *Relay) Shutdown() {
	if rl.unsubscribe != nil {
		rl.unsubscribe()
		rl.unsubscribe = nil
	}
	rl.DropAll()
}
