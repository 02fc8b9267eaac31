package app

import (
	"context"

	"github.com/gitnostr/simulatr/pkg/nostr/envelopes"
	"github.com/gitnostr/simulatr/pkg/nostr/filter"
	"github.com/gitnostr/simulatr/pkg/nostr/subscriptionid"
)

// handleFilter streams the stored events matching one filter of a
// subscription. The store snapshot is consistent; a filter matching
// nothing streams nothing and that is not an error.
func (rl *Relay) handleFilter(ctx context.Context, id subscriptionid.T,
	ws *WebSocket, f *filter.T) {

	ch, err := rl.storage.QueryEvents(ctx, f)
	if chk(err) {
		ws.WriteEnvelope(&envelopes.Notice{Text: "error: " + err.Error()})
		return
	}
	for ev := range ch {
		if ev == nil {
			continue
		}
		ws.WriteEnvelope(&envelopes.Event{
			SubscriptionID: id,
			Event:          ev,
		})
	}
}
