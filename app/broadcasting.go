package app

import (
	"github.com/gitnostr/simulatr/pkg/nostr/envelopes"
	"github.com/gitnostr/simulatr/pkg/nostr/event"
	"github.com/gitnostr/simulatr/pkg/nostr/filter"
	"github.com/gitnostr/simulatr/pkg/nostr/kind"
	"github.com/gitnostr/simulatr/pkg/nostr/subscriptionid"
)

func filterEqual(a, b *filter.T) bool { return filter.Equal(a, b) }

// notifyListeners delivers an accepted event to every subscription whose
// filters match. It runs inside the store's notification lock, so
// deliveries across subscriptions follow one global save order; the
// per-connection queues keep this callback from blocking on the wire.
func (rl *Relay) notifyListeners(ev *event.T) {
	rl.listeners.Range(func(ws *WebSocket, subs SubMap) bool {
		subs.Range(func(id string, listener *Listener) bool {
			if !listener.filters.Match(ev) {
				return true
			}
			slog.D.F("sending event to subscriber %v (%d %s)",
				ws.RealRemote(), ev.Kind, kind.GetString(ev.Kind))
			ws.WriteEnvelope(&envelopes.Event{
				SubscriptionID: subscriptionid.T(id),
				Event:          ev,
			})
			return true
		})
		return true
	})
}

// BroadcastEvent emits an event to all listeners whose filters match,
// without storing it or running any policies.
func (rl *Relay) BroadcastEvent(ev *event.T) { rl.notifyListeners(ev) }
