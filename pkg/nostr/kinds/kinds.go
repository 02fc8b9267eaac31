// Package kinds implements a set of event kinds as used in filters.
package kinds

import (
	"github.com/gitnostr/simulatr/pkg/nostr/kind"
)

// T is a list of kind.T, as appears in the kinds field of a filter.
type T []kind.T

// Contains reports whether the kind appears in the list.
func (ks T) Contains(s kind.T) bool {
	for i := range ks {
		if ks[i] == s {
			return true
		}
	}
	return false
}

// Equals compares two kind lists for identical content and order.
func (ks T) Equals(other T) bool {
	if len(ks) != len(other) {
		return false
	}
	for i := range ks {
		if ks[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the list.
func (ks T) Clone() (c T) {
	if ks == nil {
		return nil
	}
	c = make(T, len(ks))
	copy(c, ks)
	return
}

// ToIntSlice converts the list for encoders that expect plain integers.
func (ks T) ToIntSlice() (is []int) {
	is = make([]int, len(ks))
	for i := range ks {
		is[i] = ks[i].ToInt()
	}
	return
}

// FromIntSlice converts a plain integer slice into a kind list.
func FromIntSlice(is []int) (ks T) {
	ks = make(T, len(is))
	for i := range is {
		ks[i] = kind.T(is[i])
	}
	return
}
