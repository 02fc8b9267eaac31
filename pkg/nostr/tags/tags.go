// Package tags implements the list of tags attached to an event.
package tags

import (
	"github.com/gitnostr/simulatr/pkg/nostr/tag"
)

// T is a list of tag.T - which are lists of string elements with ordering
// and no uniqueness constraint (not a set).
type T []tag.T

// GetFirst gets the first tag in tags that matches the prefix, see
// [tag.T.StartsWith].
func (t T) GetFirst(tagPrefix []string) *tag.T {
	for _, v := range t {
		if v.StartsWith(tagPrefix) {
			return &v
		}
	}
	return nil
}

// GetLast gets the last tag in tags that matches the prefix.
func (t T) GetLast(tagPrefix []string) *tag.T {
	for i := len(t) - 1; i >= 0; i-- {
		v := t[i]
		if v.StartsWith(tagPrefix) {
			return &v
		}
	}
	return nil
}

// GetAll gets all the tags that match the prefix, in insertion order.
func (t T) GetAll(tagPrefix ...string) T {
	result := make(T, 0, len(t))
	for _, v := range t {
		if v.StartsWith(tagPrefix) {
			result = append(result, v)
		}
	}
	return result
}

// FilterOut removes all tags that match the prefix.
func (t T) FilterOut(tagPrefix []string) T {
	filtered := make(T, 0, len(t))
	for _, v := range t {
		if !v.StartsWith(tagPrefix) {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

// AppendUnique appends a tag if it doesn't exist yet, otherwise does
// nothing. The uniqueness comparison is done based only on the first 2
// elements of the tag.
func (t T) AppendUnique(tg tag.T) T {
	n := len(tg)
	if n > 2 {
		n = 2
	}
	if t.GetFirst(tg[:n]) == nil {
		return append(t, tg)
	}
	return t
}

// ContainsAny returns true if any of the strings given in values matches
// the value of any tag with the given name. Tags shorter than two elements
// never match.
func (t T) ContainsAny(tagName string, values ...string) bool {
	for _, v := range t {
		if len(v) < 2 {
			continue
		}
		if v.Key() != tagName {
			continue
		}
		for _, candidate := range values {
			if v.Value() == candidate {
				return true
			}
		}
	}
	return false
}

// Equals reports whether two tag lists are identical in order and content.
func (t T) Equals(other T) bool {
	if len(t) != len(other) {
		return false
	}
	for i := range t {
		if !t[i].Equals(other[i]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the list.
func (t T) Clone() (c T) {
	if t == nil {
		return nil
	}
	c = make(T, len(t))
	for i := range t {
		c[i] = t[i].Clone()
	}
	return
}

// MarshalTo appends the JSON encoded bytes of T as [][]string to dst.
func (t T) MarshalTo(dst []byte) []byte {
	dst = append(dst, '[')
	for i, tg := range t {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = tg.MarshalTo(dst)
	}
	return append(dst, ']')
}

func (t T) String() string { return string(t.MarshalTo(nil)) }
