// Package testrelay is the surface tests drive the mock relay through:
// start an in-process relay on an ephemeral port, seed git event graphs
// into its store, point the client under test at the URL, then await and
// inspect what the client publishes.
//
// Each Harness owns an independent store and relay; nothing is process
// wide. Per-test isolation is either a fresh Harness per test or Reset
// between tests.
package testrelay

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gitnostr/simulatr/app"
	"github.com/gitnostr/simulatr/pkg/eventstore"
	"github.com/gitnostr/simulatr/pkg/eventstore/memory"
	"github.com/gitnostr/simulatr/pkg/nostr/event"
	"github.com/gitnostr/simulatr/pkg/nostr/eventid"
	"github.com/gitnostr/simulatr/pkg/nostr/keys"
)

// Harness bundles a store, a relay and the seeding/observation state for
// one test run.
type Harness struct {
	Store *memory.Store
	Relay *app.Relay

	// SecretKey signs seeded events when params do not bring their own.
	SecretKey string
	// PubKey is the public key belonging to SecretKey.
	PubKey string

	srv *http.Server
	ln  net.Listener
	url string

	mx          sync.Mutex
	pendingSeed map[eventid.T]struct{}
	seeded      []*event.T
	published   []*event.T

	waitMx  sync.Mutex
	waiters map[*waiter]struct{}

	unsubscribe func()
}

// Option adjusts a Harness at construction time.
type Option func(*Harness)

// WithSecretKey makes sk the default signing key for seeded events.
func WithSecretKey(sk string) Option {
	return func(h *Harness) { h.SecretKey = sk }
}

// WithRelayName sets the name the relay reports in its info document.
func WithRelayName(name string) Option {
	return func(h *Harness) { h.Relay.Info.Name = name }
}

// New builds a harness around a fresh store and relay.
func New(opts ...Option) *Harness {
	st := memory.New()
	h := &Harness{
		Store:       st,
		Relay:       app.NewRelay(st),
		pendingSeed: make(map[eventid.T]struct{}),
		waiters:     make(map[*waiter]struct{}),
	}
	h.SecretKey = keys.GeneratePrivateKey()
	for _, opt := range opts {
		opt(h)
	}
	h.PubKey, _ = keys.GetPublicKey(h.SecretKey)
	// the relay registered its broadcast subscription first, so clients
	// observe an event no later than the harness does
	h.unsubscribe = st.Subscribe(h.observe)
	return h
}

// Listen serves the relay on an ephemeral localhost port and returns its
// ws:// URL. Calling it twice returns the same URL.
func (h *Harness) Listen() (url string, err error) {
	h.mx.Lock()
	defer h.mx.Unlock()
	if h.url != "" {
		return h.url, nil
	}
	if h.ln, err = net.Listen("tcp", "127.0.0.1:0"); err != nil {
		return "", fmt.Errorf("harness listen: %w", err)
	}
	h.srv = &http.Server{Handler: h.Relay}
	// capture locally: Close sets h.srv to nil and must not race with
	// the serve goroutine reading it
	srv, ln := h.srv, h.ln
	go func() { _ = srv.Serve(ln) }()
	h.url = fmt.Sprintf("ws://%s", h.ln.Addr().String())
	return h.url, nil
}

// URL returns the relay URL, empty before Listen.
func (h *Harness) URL() string {
	h.mx.Lock()
	defer h.mx.Unlock()
	return h.url
}

// Close shuts the HTTP server and relay down. The store survives until
// the harness is garbage collected, so late queries in a test teardown
// still work.
func (h *Harness) Close() {
	if h.unsubscribe != nil {
		h.unsubscribe()
		h.unsubscribe = nil
	}
	h.Relay.Shutdown()
	h.mx.Lock()
	srv := h.srv
	h.srv = nil
	h.url = ""
	h.mx.Unlock()
	if srv != nil {
		_ = srv.Shutdown(context.Background())
	}
}

// observe runs on the store's broadcast feed and splits arrivals into
// seeded (pre-loaded by this harness) and published (everything else,
// which in a test is what the client under test sent).
func (h *Harness) observe(ev *event.T) {
	h.mx.Lock()
	if _, isSeed := h.pendingSeed[ev.ID]; isSeed {
		delete(h.pendingSeed, ev.ID)
		h.seeded = append(h.seeded, ev)
		h.mx.Unlock()
		return
	}
	h.published = append(h.published, ev)
	h.mx.Unlock()
	h.firePublished(ev)
}

// inject stores one event as seeded. Duplicates are tolerated.
func (h *Harness) inject(ev *event.T) error {
	h.mx.Lock()
	h.pendingSeed[ev.ID] = struct{}{}
	h.mx.Unlock()
	err := h.Store.SaveEvent(context.Background(), ev)
	if err == eventstore.ErrDupEvent {
		h.mx.Lock()
		delete(h.pendingSeed, ev.ID)
		h.mx.Unlock()
		return nil
	}
	return err
}

// InjectEvents stores pre-built, already signed events as seeded data.
func (h *Harness) InjectEvents(evs ...*event.T) error {
	for _, ev := range evs {
		if ev == nil {
			continue
		}
		if err := h.inject(ev); err != nil {
			return err
		}
	}
	return nil
}

// SeedEvents is an alias of InjectEvents matching the older harness
// surface.
func (h *Harness) SeedEvents(evs ...*event.T) error {
	return h.InjectEvents(evs...)
}

// SeededEvents returns a copy of the events this harness pre-loaded.
func (h *Harness) SeededEvents() []*event.T {
	h.mx.Lock()
	defer h.mx.Unlock()
	out := make([]*event.T, len(h.seeded))
	copy(out, h.seeded)
	return out
}

// PublishedEvents returns a copy of the events that arrived from outside
// the harness - in a test, what the page under test caused to be
// published.
func (h *Harness) PublishedEvents() []*event.T {
	h.mx.Lock()
	defer h.mx.Unlock()
	out := make([]*event.T, len(h.published))
	copy(out, h.published)
	return out
}

// Reset empties the store and both observation logs. Idempotent. Live
// connections and pending waiters are untouched; a waiter just times out
// if its event never reappears.
func (h *Harness) Reset() {
	h.Store.Reset()
	h.mx.Lock()
	h.pendingSeed = make(map[eventid.T]struct{})
	h.seeded = nil
	h.published = nil
	h.mx.Unlock()
}

// SetLatency forwards to the relay's latency injection.
func (h *Harness) SetLatency(base, jitter time.Duration) {
	h.Relay.SetLatency(base, jitter)
}

// Mute makes the relay stop responding without closing connections.
func (h *Harness) Mute() { h.Relay.Mute() }

// Unmute restores responses.
func (h *Harness) Unmute() { h.Relay.Unmute() }

// DropConnections force-closes all live client connections; the store is
// unaffected and a reconnecting client sees the same data.
func (h *Harness) DropConnections() { h.Relay.DropAll() }
