// Package subscriptionid implements the opaque identifier a client assigns
// to a subscription.
package subscriptionid

import (
	"fmt"
)

// T is a string with a maximum length of 64 characters as specified by the
// protocol for subscription identifiers.
type T string

func (si T) String() string { return string(si) }

// IsValid returns true if the subscription id is between 1 and 64
// characters in length.
func (si T) IsValid() bool { return len(si) > 0 && len(si) <= 64 }

// New creates a validated subscription id from a string.
func New(s string) (T, error) {
	si := T(s)
	if !si.IsValid() {
		return "", fmt.Errorf(
			"subscription id must be between 1 and 64 characters, got %d",
			len(s))
	}
	return si, nil
}
