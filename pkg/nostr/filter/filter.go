// Package filter implements the nostr subscription filter and its matching
// semantics: logical AND across distinct fields, logical OR within the
// value list of one field.
package filter

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/gitnostr/simulatr/pkg/nostr/event"
	"github.com/gitnostr/simulatr/pkg/nostr/kinds"
	"github.com/gitnostr/simulatr/pkg/nostr/tag"
	"github.com/gitnostr/simulatr/pkg/nostr/timestamp"
	"github.com/gitnostr/simulatr/pkg/nostr/wire/text"
)

// T is a query where one or all elements can be filled in.
//
// Tag constraints appear on the wire as "#x" keys promoted to the top level
// of the filter object; here they are collected in the Tags map keyed by
// the bare tag name.
type T struct {
	IDs     tag.T         `json:"ids,omitempty"`
	Kinds   kinds.T       `json:"kinds,omitempty"`
	Authors tag.T         `json:"authors,omitempty"`
	Tags    TagMap        `json:"-"`
	Since   *timestamp.Tp `json:"since,omitempty"`
	Until   *timestamp.Tp `json:"until,omitempty"`
	Limit   int           `json:"limit,omitempty"`
	Search  string        `json:"search,omitempty"`
}

// TagMap is the set of tag constraints of a filter, keyed by bare tag name.
type TagMap map[string]tag.T

func (t TagMap) Clone() (c TagMap) {
	if t == nil {
		return nil
	}
	c = make(TagMap, len(t))
	for k := range t {
		c[k] = t[k].Clone()
	}
	return
}

// Matches reports whether an event satisfies every constraint the filter
// carries. A nil event never matches.
func (f *T) Matches(ev *event.T) bool {
	if ev == nil {
		return false
	}
	if f.IDs != nil && !f.IDs.Contains(ev.ID.String()) {
		return false
	}
	if f.Kinds != nil && !f.Kinds.Contains(ev.Kind) {
		return false
	}
	if f.Authors != nil && !f.Authors.Contains(ev.PubKey) {
		return false
	}
	for name, values := range f.Tags {
		if values != nil && !ev.Tags.ContainsAny(name, values...) {
			return false
		}
	}
	if f.Since != nil && ev.CreatedAt < f.Since.T() {
		return false
	}
	if f.Until != nil && ev.CreatedAt > f.Until.T() {
		return false
	}
	return true
}

func arePointerValuesEqual[V comparable](a *V, b *V) bool {
	if a == nil && b == nil {
		return true
	}
	if a != nil && b != nil {
		return *a == *b
	}
	return false
}

// Equal compares two filters field by field.
func Equal(a, b *T) bool {
	switch {
	case !a.Kinds.Equals(b.Kinds),
		!a.IDs.Equals(b.IDs),
		!a.Authors.Equals(b.Authors),
		len(a.Tags) != len(b.Tags),
		!arePointerValuesEqual(a.Since, b.Since),
		!arePointerValuesEqual(a.Until, b.Until),
		a.Limit != b.Limit,
		a.Search != b.Search:
		return false
	}
	for name, av := range a.Tags {
		bv, ok := b.Tags[name]
		if !ok || !av.Equals(bv) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the filter.
func (f *T) Clone() *T {
	return &T{
		IDs:     f.IDs.Clone(),
		Kinds:   f.Kinds.Clone(),
		Authors: f.Authors.Clone(),
		Tags:    f.Tags.Clone(),
		Since:   f.Since.Clone(),
		Until:   f.Until.Clone(),
		Limit:   f.Limit,
		Search:  f.Search,
	}
}

func (f *T) String() string {
	b, _ := f.MarshalJSON()
	return string(b)
}

func appendStringArray(b []byte, vals []string) []byte {
	b = append(b, '[')
	for i, v := range vals {
		if i > 0 {
			b = append(b, ',')
		}
		b = append(b, text.EscapeJSONStringAndWrap(v)...)
	}
	return append(b, ']')
}

// MarshalJSON encodes the filter with tag constraints promoted to "#x" top
// level keys, in a deterministic field order.
func (f *T) MarshalJSON() (b []byte, err error) {
	b = append(b, '{')
	first := true
	field := func(name string) {
		if !first {
			b = append(b, ',')
		}
		first = false
		b = append(b, '"')
		b = append(b, name...)
		b = append(b, '"', ':')
	}
	if f.IDs != nil {
		field("ids")
		b = appendStringArray(b, f.IDs)
	}
	if f.Kinds != nil {
		field("kinds")
		b = append(b, '[')
		for i, k := range f.Kinds {
			if i > 0 {
				b = append(b, ',')
			}
			b = strconv.AppendInt(b, int64(k), 10)
		}
		b = append(b, ']')
	}
	if f.Authors != nil {
		field("authors")
		b = appendStringArray(b, f.Authors)
	}
	// map iteration order is not stable, sort the tag names
	names := make([]string, 0, len(f.Tags))
	for name := range f.Tags {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		field("#" + name)
		b = appendStringArray(b, f.Tags[name])
	}
	if f.Since != nil {
		field("since")
		b = strconv.AppendInt(b, f.Since.T().I64(), 10)
	}
	if f.Until != nil {
		field("until")
		b = strconv.AppendInt(b, f.Until.T().I64(), 10)
	}
	if f.Limit != 0 {
		field("limit")
		b = strconv.AppendInt(b, int64(f.Limit), 10)
	}
	if f.Search != "" {
		field("search")
		b = append(b, text.EscapeJSONStringAndWrap(f.Search)...)
	}
	return append(b, '}'), nil
}

// UnmarshalJSON decodes a filter, folding any "#x" key into the Tags map.
func (f *T) UnmarshalJSON(b []byte) (err error) {
	if f == nil {
		return fmt.Errorf("cannot unmarshal into nil filter")
	}
	var raw map[string]json.RawMessage
	if err = json.Unmarshal(b, &raw); err != nil {
		return
	}
	for key, val := range raw {
		switch key {
		case "ids":
			err = json.Unmarshal(val, &f.IDs)
		case "kinds":
			var is []int
			if err = json.Unmarshal(val, &is); err == nil {
				f.Kinds = kinds.FromIntSlice(is)
			}
		case "authors":
			err = json.Unmarshal(val, &f.Authors)
		case "since":
			var ts int64
			if err = json.Unmarshal(val, &ts); err == nil {
				f.Since = timestamp.FromUnix(ts).Ptr()
			}
		case "until":
			var ts int64
			if err = json.Unmarshal(val, &ts); err == nil {
				f.Until = timestamp.FromUnix(ts).Ptr()
			}
		case "limit":
			err = json.Unmarshal(val, &f.Limit)
		case "search":
			err = json.Unmarshal(val, &f.Search)
		default:
			if len(key) > 1 && key[0] == '#' {
				var vals tag.T
				if err = json.Unmarshal(val, &vals); err == nil {
					if f.Tags == nil {
						f.Tags = make(TagMap)
					}
					f.Tags[key[1:]] = vals
				}
			}
			// unknown keys are ignored, as relays must
		}
		if err != nil {
			return fmt.Errorf("invalid filter field %s: %w", key, err)
		}
	}
	return
}
