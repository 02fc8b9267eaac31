package app

import (
	"context"
	"fmt"

	"github.com/puzpuzpuz/xsync/v2"

	"github.com/gitnostr/simulatr/pkg/nostr/filters"
)

// Listener is one active subscription on one connection.
type Listener struct {
	filters filters.T
	cancel  context.CancelCauseFunc
}

type (
	SubMap      = *xsync.MapOf[string, *Listener]
	ListenerMap = *xsync.MapOf[*WebSocket, SubMap]
)

func (rl *Relay) setListener(id string, ws *WebSocket, f filters.T,
	cancel context.CancelCauseFunc) {
	subs, _ := rl.listeners.LoadOrCompute(ws, func() SubMap {
		return xsync.NewMapOf[*Listener]()
	})
	subs.Store(id, &Listener{filters: f, cancel: cancel})
}

// removeListenerId removes a specific subscription id from the listeners
// for a given ws client and cancels its specific context.
func (rl *Relay) removeListenerId(ws *WebSocket, id string) {
	if subs, ok := rl.listeners.Load(ws); ok {
		if listener, ok := subs.LoadAndDelete(id); ok {
			listener.cancel(fmt.Errorf("subscription closed by client"))
		}
		if subs.Size() == 0 {
			rl.listeners.Delete(ws)
		}
	}
}

// removeListener removes a WebSocket conn from the listeners (no need to
// cancel contexts as they are all inherited from the connection context).
func (rl *Relay) removeListener(ws *WebSocket) {
	rl.listeners.Delete(ws)
}

// GetListeningFilters returns the distinct filters currently subscribed
// across all connections.
func (rl *Relay) GetListeningFilters() (resp filters.T) {
	resp = make(filters.T, 0, rl.listeners.Size()*2)
	rl.listeners.Range(func(_ *WebSocket, subs SubMap) bool {
		subs.Range(func(_ string, listener *Listener) bool {
			for _, lf := range listener.filters {
				for _, rf := range resp {
					if filterEqual(lf, rf) {
						goto next
					}
				}
				resp = append(resp, lf)
			next:
				continue
			}
			return true
		})
		return true
	})
	return
}
