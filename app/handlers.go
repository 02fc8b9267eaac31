package app

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/rs/cors"

	"github.com/gitnostr/simulatr/pkg/eventstore"
	"github.com/gitnostr/simulatr/pkg/nostr/envelopes"
)

// ServeHTTP implements http.Handler: websocket upgrades take the protocol
// path, NIP-11 requests get the relay information document, anything else
// falls through to the mux.
func (rl *Relay) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Upgrade") == "websocket" {
		rl.HandleWebsocket(w, r)
	} else if r.Header.Get("Accept") == "application/nostr+json" {
		cors.AllowAll().
			Handler(http.HandlerFunc(rl.HandleRelayInfo)).
			ServeHTTP(w, r)
	} else {
		rl.serveMux.ServeHTTP(w, r)
	}
}

// Router returns the mux for any extra HTTP endpoints a caller wants to
// hang off the relay.
func (rl *Relay) Router() *http.ServeMux { return rl.serveMux }

// HandleWebsocket upgrades the connection and runs the read loop until
// the client goes away or the relay drops it.
func (rl *Relay) HandleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := rl.upgrader.Upgrade(w, r, nil)
	if chk(err) {
		return
	}
	ws := newWebSocket(rl, conn, r)
	rl.clients.Store(ws, struct{}{})
	slog.D.F("connected from %s", ws.RealRemote())

	ctx, cancel := context.WithCancel(context.Background())
	ticker := time.NewTicker(PingPeriod)

	kill := func() {
		for _, ondisconnect := range rl.OnDisconnect {
			ondisconnect(ctx)
		}
		ticker.Stop()
		cancel()
		ws.Close()
		if _, ok := rl.clients.LoadAndDelete(ws); ok {
			rl.removeListener(ws)
		}
	}

	go ws.writePump()

	go func() {
		defer kill()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !ws.ping() {
					return
				}
			}
		}
	}()

	go func() {
		defer kill()

		conn.SetReadLimit(MaxMessageSize)
		_ = conn.SetReadDeadline(time.Now().Add(PongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(PongWait))
		})
		// reply through the outbound queue so pongs line up behind
		// pending frames and pick up the injected latency
		conn.SetPingHandler(func(string) error {
			ws.pong()
			return conn.SetReadDeadline(time.Now().Add(PongWait))
		})

		for _, onconnect := range rl.OnConnect {
			onconnect(ctx)
		}

		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseNormalClosure,
					websocket.CloseGoingAway,
					websocket.CloseNoStatusReceived,
					websocket.CloseAbnormalClosure,
				) {
					slog.D.F("unexpected close from %s: %v",
						ws.RealRemote(), err)
				}
				return
			}
			// inbound latency, then handle inline: the protocol
			// guarantees per-connection processing order
			rl.delay()
			rl.handleMessage(ctx, ws, message)
		}
	}()
}

func (rl *Relay) handleMessage(ctx context.Context, ws *WebSocket, msg []byte) {
	env, err := envelopes.ProcessEnvelope(msg)
	if err != nil {
		slog.D.F("dropping unreadable message from %s: %v",
			ws.RealRemote(), err)
		ws.WriteEnvelope(&envelopes.Notice{Text: "error: " + err.Error()})
		return
	}
	switch env := env.(type) {
	case *envelopes.Event:
		rl.handleEvent(ctx, ws, env)
	case *envelopes.Req:
		rl.handleReq(ctx, ws, env)
	case *envelopes.Close:
		rl.removeListenerId(ws, env.SubscriptionID.String())
	default:
		ws.WriteEnvelope(&envelopes.Notice{
			Text: "error: unexpected message " + env.Label()})
	}
}

// handleEvent runs the publish path: structural validation, the policy
// chain, the store, then the acknowledgement. Deep tag validation is
// deliberately absent - a repository announcement without a d tag is
// stored and served as-is, and the client under test has to cope.
func (rl *Relay) handleEvent(ctx context.Context, ws *WebSocket,
	env *envelopes.Event) {

	ev := env.Event
	if err := ev.Validate(); err != nil {
		ws.WriteEnvelope(&envelopes.OK{ID: ev.ID, OK: false,
			Reason: err.Error()})
		return
	}
	if !ev.CheckID() {
		ws.WriteEnvelope(&envelopes.OK{ID: ev.ID, OK: false,
			Reason: "invalid: id is computed incorrectly"})
		return
	}
	for _, reject := range rl.RejectEvent {
		if rej, msg := reject(ctx, ev); rej {
			if msg == "" {
				msg = "blocked: no reason"
			} else if !strings.Contains(msg, ": ") {
				msg = "blocked: " + msg
			}
			ws.WriteEnvelope(&envelopes.OK{ID: ev.ID, OK: false, Reason: msg})
			return
		}
	}
	if err := rl.storage.SaveEvent(ctx, ev); err != nil {
		if err == eventstore.ErrDupEvent {
			// duplicates are acknowledged as accepted
			ws.WriteEnvelope(&envelopes.OK{ID: ev.ID, OK: true,
				Reason: "duplicate: already have this event"})
			return
		}
		ws.WriteEnvelope(&envelopes.OK{ID: ev.ID, OK: false,
			Reason: "error: " + err.Error()})
		return
	}
	// delivery to matching subscriptions happens via the store's
	// broadcast feed; here only the ack remains
	for _, hook := range rl.OnEventSaved {
		hook(ctx, ev)
	}
	ws.WriteEnvelope(&envelopes.OK{ID: ev.ID, OK: true})
}

// handleReq registers the subscription, streams the stored events for
// each filter, then marks the end of stored events. Live events follow on
// the same queue.
func (rl *Relay) handleReq(ctx context.Context, ws *WebSocket,
	env *envelopes.Req) {

	id := env.SubscriptionID
	if !id.IsValid() {
		ws.WriteEnvelope(&envelopes.Notice{
			Text: "error: invalid subscription id"})
		return
	}
	for _, f := range env.Filters {
		for _, reject := range rl.RejectFilter {
			if rej, msg := reject(ctx, id, f); rej {
				ws.WriteEnvelope(&envelopes.Closed{SubscriptionID: id,
					Reason: "blocked: " + msg})
				return
			}
		}
	}

	reqCtx, cancel := context.WithCancelCause(ctx)
	// register before the stored query so no event falls in the gap; a
	// client may see an event twice across the boundary, never miss one
	rl.setListener(id.String(), ws, env.Filters, cancel)

	for _, f := range env.Filters {
		rl.handleFilter(reqCtx, id, ws, f)
	}
	ws.WriteEnvelope(&envelopes.EOSE{SubscriptionID: id})
}
