// Package envelopes implements the wire messages of the relay protocol,
// JSON arrays whose first element labels the message type.
//
// Field order inside each envelope is fixed by NIP-01 and must be
// reproduced exactly: the clients under test parse positionally.
package envelopes

import (
	"encoding/json"
	"fmt"

	"github.com/gitnostr/simulatr/pkg/nostr/event"
	"github.com/gitnostr/simulatr/pkg/nostr/eventid"
	"github.com/gitnostr/simulatr/pkg/nostr/filter"
	"github.com/gitnostr/simulatr/pkg/nostr/filters"
	"github.com/gitnostr/simulatr/pkg/nostr/subscriptionid"
	"github.com/gitnostr/simulatr/pkg/nostr/wire/text"
)

// The envelope labels.
const (
	LEvent  = "EVENT"
	LReq    = "REQ"
	LClose  = "CLOSE"
	LClosed = "CLOSED"
	LEOSE   = "EOSE"
	LOK     = "OK"
	LNotice = "NOTICE"
)

// I is implemented by all envelope types.
type I interface {
	Label() string
	Bytes() []byte
}

// Event is the wrapper around an event, sent in both directions. The
// subscription id is present on relay to client deliveries and absent on
// client publishes.
type Event struct {
	SubscriptionID subscriptionid.T
	Event          *event.T
}

func (env *Event) Label() string { return LEvent }

func (env *Event) Bytes() (b []byte) {
	b = append(b, `["EVENT",`...)
	if env.SubscriptionID.IsValid() {
		b = append(b, text.EscapeJSONStringAndWrap(env.SubscriptionID.String())...)
		b = append(b, ',')
	}
	b = append(b, env.Event.Serialize()...)
	return append(b, ']')
}

// Req is a client subscription request: an id followed by one or more
// filters.
type Req struct {
	SubscriptionID subscriptionid.T
	Filters        filters.T
}

func (env *Req) Label() string { return LReq }

func (env *Req) Bytes() (b []byte) {
	b = append(b, `["REQ",`...)
	b = append(b, text.EscapeJSONStringAndWrap(env.SubscriptionID.String())...)
	for _, f := range env.Filters {
		b = append(b, ',')
		fb, _ := f.MarshalJSON()
		b = append(b, fb...)
	}
	return append(b, ']')
}

// Close is a client request to stop a subscription.
type Close struct {
	SubscriptionID subscriptionid.T
}

func (env *Close) Label() string { return LClose }

func (env *Close) Bytes() (b []byte) {
	b = append(b, `["CLOSE",`...)
	b = append(b, text.EscapeJSONStringAndWrap(env.SubscriptionID.String())...)
	return append(b, ']')
}

// Closed tells a client the relay ended (or refused) a subscription, with
// a machine readable reason prefix.
type Closed struct {
	SubscriptionID subscriptionid.T
	Reason         string
}

func (env *Closed) Label() string { return LClosed }

func (env *Closed) Bytes() (b []byte) {
	b = append(b, `["CLOSED",`...)
	b = append(b, text.EscapeJSONStringAndWrap(env.SubscriptionID.String())...)
	b = append(b, ',')
	b = append(b, text.EscapeJSONStringAndWrap(env.Reason)...)
	return append(b, ']')
}

// EOSE marks the end of stored events on a subscription; everything after
// it is live.
type EOSE struct {
	SubscriptionID subscriptionid.T
}

func (env *EOSE) Label() string { return LEOSE }

func (env *EOSE) Bytes() (b []byte) {
	b = append(b, `["EOSE",`...)
	b = append(b, text.EscapeJSONStringAndWrap(env.SubscriptionID.String())...)
	return append(b, ']')
}

// OK acknowledges a publish: accepted or not, with a reason whose first
// word is machine readable ("duplicate:", "invalid:", "blocked:", ...).
type OK struct {
	ID     eventid.T
	OK     bool
	Reason string
}

// Machine readable OK reason prefixes.
const (
	Duplicate   = "duplicate"
	Blocked     = "blocked"
	RateLimited = "rate-limited"
	Invalid     = "invalid"
	Error       = "error"
)

func (env *OK) Label() string { return LOK }

func (env *OK) Bytes() (b []byte) {
	b = append(b, `["OK",`...)
	b = append(b, text.EscapeJSONStringAndWrap(env.ID.String())...)
	b = append(b, ',')
	if env.OK {
		b = append(b, `true`...)
	} else {
		b = append(b, `false`...)
	}
	b = append(b, ',')
	b = append(b, text.EscapeJSONStringAndWrap(env.Reason)...)
	return append(b, ']')
}

// Notice is a human readable message for the client, used for protocol
// level complaints that have no subscription to attach to.
type Notice struct {
	Text string
}

func (env *Notice) Label() string { return LNotice }

func (env *Notice) Bytes() (b []byte) {
	b = append(b, `["NOTICE",`...)
	b = append(b, text.EscapeJSONStringAndWrap(env.Text)...)
	return append(b, ']')
}

// ProcessEnvelope parses a wire message and returns the decoded envelope.
// Messages that are not arrays, have an unknown label, or carry malformed
// positional fields produce an error; the relay responds with a NOTICE
// rather than closing the connection.
func ProcessEnvelope(b []byte) (env I, err error) {
	var arr []json.RawMessage
	if err = json.Unmarshal(b, &arr); err != nil {
		return nil, fmt.Errorf("message is not a JSON array: %w", err)
	}
	if len(arr) == 0 {
		return nil, fmt.Errorf("empty message array")
	}
	var label string
	if err = json.Unmarshal(arr[0], &label); err != nil {
		return nil, fmt.Errorf("message label is not a string: %w", err)
	}
	switch label {
	case LEvent:
		return processEvent(arr)
	case LReq:
		return processReq(arr)
	case LClose:
		if len(arr) < 2 {
			return nil, fmt.Errorf("CLOSE requires a subscription id")
		}
		var sid string
		if err = json.Unmarshal(arr[1], &sid); err != nil {
			return nil, err
		}
		return &Close{SubscriptionID: subscriptionid.T(sid)}, nil
	case LOK:
		return processOK(arr)
	case LEOSE:
		if len(arr) < 2 {
			return nil, fmt.Errorf("EOSE requires a subscription id")
		}
		var sid string
		if err = json.Unmarshal(arr[1], &sid); err != nil {
			return nil, err
		}
		return &EOSE{SubscriptionID: subscriptionid.T(sid)}, nil
	case LClosed:
		if len(arr) < 3 {
			return nil, fmt.Errorf("CLOSED requires an id and a reason")
		}
		var sid, reason string
		if err = json.Unmarshal(arr[1], &sid); err != nil {
			return nil, err
		}
		if err = json.Unmarshal(arr[2], &reason); err != nil {
			return nil, err
		}
		return &Closed{SubscriptionID: subscriptionid.T(sid), Reason: reason}, nil
	case LNotice:
		if len(arr) < 2 {
			return nil, fmt.Errorf("NOTICE requires a message")
		}
		var txt string
		if err = json.Unmarshal(arr[1], &txt); err != nil {
			return nil, err
		}
		return &Notice{Text: txt}, nil
	default:
		return nil, fmt.Errorf("unknown envelope label '%s'", label)
	}
}

func processEvent(arr []json.RawMessage) (env *Event, err error) {
	env = &Event{}
	// ["EVENT", <event>] from clients, ["EVENT", <subid>, <event>] from
	// relays
	raw := arr[len(arr)-1]
	if len(arr) == 3 {
		var sid string
		if err = json.Unmarshal(arr[1], &sid); err != nil {
			return nil, err
		}
		env.SubscriptionID = subscriptionid.T(sid)
	} else if len(arr) != 2 {
		return nil, fmt.Errorf("EVENT with %d elements", len(arr))
	}
	env.Event = &event.T{}
	if err = json.Unmarshal(raw, env.Event); err != nil {
		return nil, fmt.Errorf("malformed event object: %w", err)
	}
	return
}

func processReq(arr []json.RawMessage) (env *Req, err error) {
	if len(arr) < 3 {
		return nil, fmt.Errorf("REQ requires a subscription id and at least one filter")
	}
	var sid string
	if err = json.Unmarshal(arr[1], &sid); err != nil {
		return nil, err
	}
	env = &Req{SubscriptionID: subscriptionid.T(sid)}
	for _, raw := range arr[2:] {
		f := &filter.T{}
		if err = json.Unmarshal(raw, f); err != nil {
			return nil, fmt.Errorf("malformed filter: %w", err)
		}
		env.Filters = append(env.Filters, f)
	}
	return
}

func processOK(arr []json.RawMessage) (env *OK, err error) {
	if len(arr) < 3 {
		return nil, fmt.Errorf("OK requires an event id and a status")
	}
	env = &OK{}
	var id string
	if err = json.Unmarshal(arr[1], &id); err != nil {
		return nil, err
	}
	env.ID = eventid.T(id)
	if err = json.Unmarshal(arr[2], &env.OK); err != nil {
		return nil, err
	}
	if len(arr) > 3 {
		if err = json.Unmarshal(arr[3], &env.Reason); err != nil {
			return nil, err
		}
	}
	return
}
