package nip34

import (
	"strings"

	"github.com/gitnostr/simulatr/pkg/nostr/event"
	"github.com/gitnostr/simulatr/pkg/nostr/eventid"
	"github.com/gitnostr/simulatr/pkg/nostr/tag"
)

// Identifier returns the d tag value of an addressable event, empty when
// absent.
func Identifier(ev *event.T) string {
	if ev == nil {
		return ""
	}
	if t := ev.Tags.GetFirst([]string{"d", ""}); t != nil {
		return t.Value()
	}
	return ""
}

// AddressOf returns the address an addressable event occupies.
func AddressOf(ev *event.T) Address {
	if ev == nil {
		return Address{}
	}
	return Address{Kind: ev.Kind, PubKey: ev.PubKey, Identifier: Identifier(ev)}
}

// RepoOf parses the a tag of an issue, patch or status event into the
// address of its owning repository.
func RepoOf(ev *event.T) (a Address, ok bool) {
	if ev == nil {
		return
	}
	t := ev.Tags.GetFirst([]string{"a", ""})
	if t == nil {
		return
	}
	a, err := ParseAddress(t.Value())
	return a, err == nil
}

// Subject returns the subject tag value, empty when absent.
func Subject(ev *event.T) string {
	if ev == nil {
		return ""
	}
	if t := ev.Tags.GetFirst([]string{"subject", ""}); t != nil {
		return t.Value()
	}
	return ""
}

func values(ev *event.T, name string) (out []string) {
	if ev == nil {
		return nil
	}
	for _, t := range ev.Tags.GetAll(name, "") {
		if len(t) > 1 {
			out = append(out, t.Value())
		}
	}
	return
}

// CloneURLs returns the clone tag values of an announcement.
func CloneURLs(ev *event.T) []string { return values(ev, "clone") }

// WebURLs returns the web tag values of an announcement.
func WebURLs(ev *event.T) []string { return values(ev, "web") }

// Maintainers returns the maintainers tag values of an announcement.
func Maintainers(ev *event.T) []string { return values(ev, "maintainers") }

// Topics returns the t tag values of an event.
func Topics(ev *event.T) []string { return values(ev, "t") }

// EUC returns the earliest unique commit grouping key of an announcement,
// the r tag bearing the euc marker.
func EUC(ev *event.T) string {
	if ev == nil {
		return ""
	}
	for _, t := range ev.Tags.GetAll("r", "") {
		if len(t) > 2 && t[2] == "euc" {
			return t.Value()
		}
	}
	return ""
}

// StatusTarget returns the root-marked e tag of a status event, the
// issue or patch the status applies to.
func StatusTarget(ev *event.T) (id eventid.T, ok bool) {
	if ev == nil {
		return
	}
	for _, t := range ev.Tags.GetAll("e", "") {
		if t.Marker() == tag.MarkerRoot {
			return eventid.T(t.Value()), t.Value() != ""
		}
	}
	// fall back to the first e tag for clients that omit markers
	if t := ev.Tags.GetFirst([]string{"e", ""}); t != nil && t.Value() != "" {
		return eventid.T(t.Value()), true
	}
	return
}

// MergeCommit returns the merge-commit value of an applied status event.
func MergeCommit(ev *event.T) string {
	if ev == nil {
		return ""
	}
	if t := ev.Tags.GetFirst([]string{"merge-commit", ""}); t != nil {
		return t.Value()
	}
	return ""
}

// Refs extracts the ref name to commit map of a state event, branch and
// tag refs both keyed by their full refs/ path.
func Refs(ev *event.T) map[string]string {
	if ev == nil {
		return nil
	}
	refs := make(map[string]string)
	for _, t := range ev.Tags {
		if len(t) > 1 && strings.HasPrefix(t.Key(), "refs/") {
			refs[t.Key()] = t.Value()
		}
	}
	return refs
}

// Head returns the default branch named by the HEAD tag of a state event.
func Head(ev *event.T) string {
	if ev == nil {
		return ""
	}
	t := ev.Tags.GetFirst([]string{"HEAD", ""})
	if t == nil {
		return ""
	}
	return strings.TrimPrefix(t.Value(), "ref: refs/heads/")
}

// DeletionTargets returns the event ids a kind 5 event tombstones.
func DeletionTargets(ev *event.T) (ids []eventid.T) {
	if ev == nil {
		return nil
	}
	for _, v := range values(ev, "e") {
		ids = append(ids, eventid.T(v))
	}
	return
}
