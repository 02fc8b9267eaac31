// Package event implements the primary datatype of nostr, the wire format
// of which defines the canonical hash preimage that produces the event ID.
package event

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gitnostr/simulatr/pkg/hex"
	"github.com/gitnostr/simulatr/pkg/nostr/eventid"
	"github.com/gitnostr/simulatr/pkg/nostr/keys"
	"github.com/gitnostr/simulatr/pkg/nostr/kind"
	"github.com/gitnostr/simulatr/pkg/nostr/tags"
	"github.com/gitnostr/simulatr/pkg/nostr/timestamp"
	"github.com/gitnostr/simulatr/pkg/nostr/wire/text"
	"github.com/minio/sha256-simd"
)

// T is the primary datatype of nostr. This is the form of the structure
// that defines its JSON string based format.
type T struct {

	// ID is the SHA256 hash of the canonical encoding of the event.
	ID eventid.T `json:"id"`

	// PubKey is the public key of the event creator in hexadecimal format.
	PubKey string `json:"pubkey"`

	// CreatedAt is the UNIX timestamp of the event according to the event
	// creator (never trust a timestamp!)
	CreatedAt timestamp.T `json:"created_at"`

	// Kind is the nostr protocol code for the type of event. See kind.T.
	Kind kind.T `json:"kind"`

	// Tags are a list of tags, which are a list of strings usually
	// structured as a 3 layer scheme indicating specific features of an
	// event.
	Tags tags.T `json:"tags"`

	// Content is an arbitrary string that can contain anything, but usually
	// conforming to a specification relating to the Kind and the Tags.
	Content string `json:"content"`

	// Sig is the signature on the ID hash that validates as coming from the
	// PubKey.
	Sig string `json:"sig"`
}

// C is a channel that carries events, used by store query streaming.
type C chan *T

// Ascending is a slice of events that sorts in ascending chronological
// order.
type Ascending []*T

func (ev Ascending) Len() int           { return len(ev) }
func (ev Ascending) Less(i, j int) bool { return ev[i].CreatedAt < ev[j].CreatedAt }
func (ev Ascending) Swap(i, j int)      { ev[i], ev[j] = ev[j], ev[i] }

// Descending sorts a slice of events in reverse chronological order
// (newest first).
type Descending []*T

func (e Descending) Len() int           { return len(e) }
func (e Descending) Less(i, j int) bool { return e[i].CreatedAt > e[j].CreatedAt }
func (e Descending) Swap(i, j int)      { e[i], e[j] = e[j], e[i] }

// Serialize renders the event in its fixed wire field order. The encoding
// is built by hand because the canonical form must not apply the HTML-safe
// escapes the standard library inserts.
func (ev *T) Serialize() []byte {
	b := make([]byte, 0, 256+len(ev.Content))
	b = append(b, `{"id":`...)
	b = append(b, text.EscapeJSONStringAndWrap(ev.ID.String())...)
	b = append(b, `,"pubkey":`...)
	b = append(b, text.EscapeJSONStringAndWrap(ev.PubKey)...)
	b = append(b, `,"created_at":`...)
	b = strconv.AppendInt(b, ev.CreatedAt.I64(), 10)
	b = append(b, `,"kind":`...)
	b = strconv.AppendInt(b, int64(ev.Kind), 10)
	b = append(b, `,"tags":`...)
	b = ev.Tags.MarshalTo(b)
	b = append(b, `,"content":`...)
	b = append(b, text.EscapeJSONStringAndWrap(ev.Content)...)
	b = append(b, `,"sig":`...)
	b = append(b, text.EscapeJSONStringAndWrap(ev.Sig)...)
	return append(b, '}')
}

func (ev *T) MarshalJSON() ([]byte, error) { return ev.Serialize(), nil }

func (ev *T) UnmarshalJSON(b []byte) (err error) {
	type alias T
	var a alias
	if err = json.Unmarshal(b, &a); err != nil {
		return
	}
	*ev = T(a)
	return
}

func (ev *T) String() string { return string(ev.Serialize()) }

// ToCanonical returns the canonical form used to generate the ID hash:
//
//	[0,pubkey,created_at,kind,tags,content]
func (ev *T) ToCanonical() []byte {
	b := make([]byte, 0, 128+len(ev.Content))
	b = append(b, `[0,`...)
	b = append(b, text.EscapeJSONStringAndWrap(ev.PubKey)...)
	b = append(b, ',')
	b = strconv.AppendInt(b, ev.CreatedAt.I64(), 10)
	b = append(b, ',')
	b = strconv.AppendInt(b, int64(ev.Kind), 10)
	b = append(b, ',')
	b = ev.Tags.MarshalTo(b)
	b = append(b, ',')
	b = append(b, text.EscapeJSONStringAndWrap(ev.Content)...)
	return append(b, ']')
}

// GetIDBytes returns the raw SHA256 hash of the canonical form of the
// event.
func (ev *T) GetIDBytes() []byte {
	h := sha256.Sum256(ev.ToCanonical())
	return h[:]
}

// GetID serializes and returns the event ID as a hexadecimal string.
func (ev *T) GetID() eventid.T {
	return eventid.T(hex.Enc(ev.GetIDBytes()))
}

// CheckID recomputes the ID from the canonical form and reports whether it
// matches the one on the event. This is the one verification a real client
// and the mock agree on exactly.
func (ev *T) CheckID() bool { return ev.GetID() == ev.ID }

// Sign signs an event with a given secret key encoded in hexadecimal.
//
// Signatures here are simulated: deterministic over (secret key, event id)
// and the correct 128 hexadecimal characters long, but not real schnorr
// material. The relay deliberately never verifies them cryptographically,
// only structurally, the same leniency a test substrate must extend to
// events signed by the real client under test.
func (ev *T) Sign(skStr string) (err error) {
	if len(skStr) != 64 {
		return fmt.Errorf("invalid secret key length, 64 required, got %d",
			len(skStr))
	}
	var skBytes []byte
	if skBytes, err = hex.Dec(skStr); err != nil {
		return fmt.Errorf("sign called with invalid secret key: %w", err)
	}
	if ev.PubKey, err = keys.GetPublicKey(skStr); err != nil {
		return
	}
	if ev.CreatedAt == 0 {
		ev.CreatedAt = timestamp.Now()
	}
	if ev.Tags == nil {
		ev.Tags = tags.T{}
	}
	id := ev.GetIDBytes()
	ev.ID = eventid.T(hex.Enc(id))
	h1 := sha256.Sum256(append(skBytes, id...))
	h2 := sha256.Sum256(append(id, skBytes...))
	ev.Sig = hex.Enc(h1[:]) + hex.Enc(h2[:])
	return
}

// Validate checks the structural invariants of a signed event: fixed hex
// lengths for id/pubkey/sig, a positive timestamp and no empty tags. It
// says nothing about kind-specific tag requirements, which relays do not
// enforce.
func (ev *T) Validate() (err error) {
	if err = ev.ID.Validate(); err != nil {
		return fmt.Errorf("invalid: %w", err)
	}
	if len(ev.PubKey) != 64 || !hex.Valid(ev.PubKey) {
		return fmt.Errorf("invalid: pubkey must be 64 hex characters: '%s'",
			ev.PubKey)
	}
	if len(ev.Sig) != 128 || !hex.Valid(ev.Sig) {
		return fmt.Errorf("invalid: sig must be 128 hex characters")
	}
	if ev.CreatedAt <= 0 {
		return fmt.Errorf("invalid: created_at must be positive, got %d",
			ev.CreatedAt)
	}
	for i := range ev.Tags {
		if len(ev.Tags[i]) == 0 {
			return fmt.Errorf("invalid: tag %d is empty", i)
		}
	}
	return
}
