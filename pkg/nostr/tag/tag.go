// Package tag implements the tag type, a list of strings with a literal
// ordering where the first element names the tag's role.
package tag

import (
	"strings"

	"github.com/gitnostr/simulatr/pkg/nostr/wire/text"
)

// The tag position meanings so they are clear when reading.
const (
	Key = iota
	Value
	Relay
)

// Marker strings for e (reference) tags.
const (
	MarkerReply   = "reply"
	MarkerRoot    = "root"
	MarkerMention = "mention"
)

// T is a list of strings with a literal ordering.
//
// Not a set, there can be repeating elements.
type T []string

// StartsWith checks a tag has the same initial set of elements.
//
// The last element is treated specially in that it is considered to match if
// the candidate has the same initial substring as its corresponding element.
func (t T) StartsWith(prefix []string) bool {
	prefixLen := len(prefix)
	if prefixLen == 0 {
		return true
	}
	if prefixLen > len(t) {
		return false
	}
	// check initial elements for equality
	for i := 0; i < prefixLen-1; i++ {
		if prefix[i] != t[i] {
			return false
		}
	}
	// check last element just for a prefix
	return strings.HasPrefix(t[prefixLen-1], prefix[prefixLen-1])
}

// Key returns the first element of the tag, empty string if there is none.
func (t T) Key() string {
	if len(t) > Key {
		return t[Key]
	}
	return ""
}

// Value returns the second element of the tag, empty string if there is
// none. Malformed single-element tags therefore read as having an empty
// value rather than causing an index panic.
func (t T) Value() string {
	if len(t) > Value {
		return t[Value]
	}
	return ""
}

// Marker returns the fourth element of an e tag, which for the git event
// kinds carries the root/reply designation.
func (t T) Marker() string {
	if len(t) > 3 {
		return t[3]
	}
	return ""
}

// Contains reports whether the tag, treated as a plain string list,
// contains the given element.
func (t T) Contains(s string) bool {
	for i := range t {
		if t[i] == s {
			return true
		}
	}
	return false
}

// Equals compares two tags for identical content and order.
func (t T) Equals(other T) bool {
	if len(t) != len(other) {
		return false
	}
	for i := range t {
		if t[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the tag.
func (t T) Clone() (c T) {
	if t == nil {
		return nil
	}
	c = make(T, len(t))
	copy(c, t)
	return
}

// MarshalTo appends the JSON form of the tag to dst. String escaping is as
// in RFC8259, without the HTML-safe substitutions of encoding/json, as
// required for the canonical hash preimage.
func (t T) MarshalTo(dst []byte) []byte {
	dst = append(dst, '[')
	for i, s := range t {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = append(dst, text.EscapeJSONStringAndWrap(s)...)
	}
	return append(dst, ']')
}

func (t T) String() string { return string(t.MarshalTo(nil)) }
