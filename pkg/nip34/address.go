package nip34

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gitnostr/simulatr/pkg/nostr/kind"
)

// Address is the kind:pubkey:identifier triple that names the logical slot
// of an addressable event, of which only the latest is canonical.
type Address struct {
	Kind       kind.T
	PubKey     string
	Identifier string
}

// RepoAddress returns the address of a repository announcement.
func RepoAddress(pubkey, identifier string) Address {
	return Address{
		Kind:       kind.GitRepoAnnouncement,
		PubKey:     pubkey,
		Identifier: identifier,
	}
}

// String renders the address in its wire form, "30617:<pubkey>:<identifier>".
func (a Address) String() string {
	return fmt.Sprintf("%d:%s:%s", a.Kind, a.PubKey, a.Identifier)
}

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool {
	return a.Kind == 0 && a.PubKey == "" && a.Identifier == ""
}

// ParseAddress decodes a kind:pubkey:identifier string. The identifier may
// itself contain colons, so only the first two separators split.
func ParseAddress(s string) (a Address, err error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return a, fmt.Errorf("address requires three colon separated parts: '%s'", s)
	}
	k, err := strconv.Atoi(parts[0])
	if err != nil {
		return a, fmt.Errorf("address kind is not an integer: '%s'", parts[0])
	}
	a.Kind = kind.T(k)
	a.PubKey = parts[1]
	a.Identifier = parts[2]
	return a, nil
}
