// Package eventid implements the event identifier type, the SHA256 hash of
// the canonical form of an event in hexadecimal.
package eventid

import (
	"fmt"

	"github.com/gitnostr/simulatr/pkg/hex"
	"github.com/gitnostr/simulatr/pkg/nostr/wire/text"
)

// Len is the length of an event ID in hexadecimal characters.
const Len = 64

// T is the SHA256 hash in hexadecimal of the canonical form of an event.
type T string

func (ei T) String() string { return string(ei) }

// Bytes decodes the hash back to its raw 32 byte form.
func (ei T) Bytes() (b []byte) {
	b, _ = hex.Dec(string(ei))
	return
}

func (ei T) MarshalJSON() (b []byte, err error) {
	return text.EscapeJSONStringAndWrap(string(ei)), nil
}

func (ei *T) UnmarshalJSON(b []byte) (err error) {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("event ID is not a JSON string: %s", b)
	}
	*ei = T(b[1 : len(b)-1])
	return
}

// New inspects a string and ensures it is a valid, 64 character long
// hexadecimal string, returns the string coerced to the type.
func New(s string) (ei T, err error) {
	ei = T(s)
	if err = ei.Validate(); err != nil {
		return "", err
	}
	return
}

// Validate checks the T string is valid hex and 64 characters long.
func (ei T) Validate() (err error) {
	if len(ei) != Len {
		return fmt.Errorf("event ID must be %d characters, got %d: '%s'",
			Len, len(ei), ei)
	}
	if !hex.Valid(string(ei)) {
		return fmt.Errorf("event ID is not valid hexadecimal: '%s'", ei)
	}
	return
}
