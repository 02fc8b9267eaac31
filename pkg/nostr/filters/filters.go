// Package filters implements the list of filters carried by one
// subscription request.
package filters

import (
	"encoding/json"

	"github.com/gitnostr/simulatr/pkg/nostr/event"
	"github.com/gitnostr/simulatr/pkg/nostr/filter"
)

// T is a list of filters, matched as a logical OR.
type T []*filter.T

// Match reports whether any filter in the list matches the event.
func (ff T) Match(ev *event.T) bool {
	for _, f := range ff {
		if f.Matches(ev) {
			return true
		}
	}
	return false
}

func (ff T) String() string {
	b, _ := json.Marshal(ff)
	return string(b)
}
