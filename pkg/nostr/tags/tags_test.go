package tags

import (
	"testing"

	"github.com/gitnostr/simulatr/pkg/nostr/tag"
)

func sample() T {
	return T{
		{"e", "aaaa", "", tag.MarkerRoot},
		{"p", "bbbb"},
		{"e", "cccc", "", tag.MarkerReply},
		{"t", "bug"},
		{"malformed"},
	}
}

func TestGetFirstGetLast(t *testing.T) {
	ts := sample()
	first := ts.GetFirst([]string{"e"})
	if first == nil || first.Value() != "aaaa" {
		t.Fatalf("GetFirst e = %v, want value aaaa", first)
	}
	last := ts.GetLast([]string{"e"})
	if last == nil || last.Value() != "cccc" {
		t.Fatalf("GetLast e = %v, want value cccc", last)
	}
	if ts.GetFirst([]string{"a"}) != nil {
		t.Error("GetFirst on absent key should be nil")
	}
	if T(nil).GetFirst([]string{"e"}) != nil {
		t.Error("GetFirst on nil list should be nil")
	}
}

func TestGetAllAndFilterOut(t *testing.T) {
	ts := sample()
	if got := ts.GetAll("e"); len(got) != 2 {
		t.Errorf("GetAll e returned %d tags, want 2", len(got))
	}
	filtered := ts.FilterOut([]string{"e"})
	if len(filtered) != 3 {
		t.Errorf("FilterOut e left %d tags, want 3", len(filtered))
	}
	if filtered.GetFirst([]string{"e"}) != nil {
		t.Error("FilterOut left an e tag behind")
	}
	// the original is untouched
	if len(ts) != 5 {
		t.Error("FilterOut mutated the receiver")
	}
}

func TestAppendUnique(t *testing.T) {
	ts := T{{"t", "bug"}}
	ts = ts.AppendUnique(tag.T{"t", "bug"})
	if len(ts) != 1 {
		t.Errorf("duplicate append grew the list to %d", len(ts))
	}
	ts = ts.AppendUnique(tag.T{"t", "feature"})
	if len(ts) != 2 {
		t.Errorf("distinct append did not grow the list, len %d", len(ts))
	}
}

func TestContainsAnySkipsMalformed(t *testing.T) {
	ts := sample()
	if !ts.ContainsAny("e", "zzzz", "cccc") {
		t.Error("ContainsAny missed a matching value")
	}
	if ts.ContainsAny("malformed", "") {
		t.Error("single-element tag must never match")
	}
	if T(nil).ContainsAny("e", "aaaa") {
		t.Error("nil list matched")
	}
}

func TestEqualsAndClone(t *testing.T) {
	ts := sample()
	c := ts.Clone()
	if !ts.Equals(c) {
		t.Error("clone not equal to original")
	}
	c[0][1] = "mutated"
	if ts.Equals(c) {
		t.Error("deep clone shares tag arrays")
	}
	if ts.Equals(ts[:4]) {
		t.Error("lists of different length compared equal")
	}
}
