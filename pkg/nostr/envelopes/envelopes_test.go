package envelopes

import (
	"strings"
	"testing"

	"github.com/gitnostr/simulatr/pkg/nostr/event"
	"github.com/gitnostr/simulatr/pkg/nostr/keys"
	"github.com/gitnostr/simulatr/pkg/nostr/kind"
	"github.com/gitnostr/simulatr/pkg/nostr/kinds"
	"github.com/gitnostr/simulatr/pkg/nostr/tag"
)

func TestProcessEnvelope(t *testing.T) {
	testCases := []struct {
		name    string
		message string
		label   string
		wantErr bool
	}{
		{"nil", "", "", true},
		{"not json", "invalid input", "", true},
		{"not an array", `{"EVENT":1}`, "", true},
		{"empty array", `[]`, "", true},
		{"unknown label", `["AUTH","challenge"]`, "", true},
		{"close", `["CLOSE","sub1"]`, LClose, false},
		{"close without id", `["CLOSE"]`, "", true},
		{"req", `["REQ","sub1",{"kinds":[1621]}]`, LReq, false},
		{"req multiple filters",
			`["REQ","s",{"kinds":[1621]},{"#a":["30617:pk:demo"]}]`,
			LReq, false},
		{"req without filter", `["REQ","sub1"]`, "", true},
		{"eose", `["EOSE","sub1"]`, LEOSE, false},
		{"closed", `["CLOSED","sub1","blocked: no"]`, LClosed, false},
		{"notice", `["NOTICE","slow down"]`, LNotice, false},
		{"ok", `["OK","abc",true,""]`, LOK, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env, err := ProcessEnvelope([]byte(tc.message))
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %T", env)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if env.Label() != tc.label {
				t.Fatalf("label = %s, want %s", env.Label(), tc.label)
			}
		})
	}
}

func TestProcessReqFoldsTagFilters(t *testing.T) {
	env, err := ProcessEnvelope([]byte(
		`["REQ","million",{"kinds":[1621]},{"kinds":[30617],"#d":["buteko","batuke"]}]`))
	if err != nil {
		t.Fatal(err)
	}
	req, ok := env.(*Req)
	if !ok {
		t.Fatalf("got %T", env)
	}
	if req.SubscriptionID != "million" {
		t.Fatalf("sub id = %s", req.SubscriptionID)
	}
	if len(req.Filters) != 2 {
		t.Fatalf("filters = %d", len(req.Filters))
	}
	if !req.Filters[0].Kinds.Equals(kinds.T{kind.GitIssue}) {
		t.Fatalf("first filter kinds: %v", req.Filters[0].Kinds)
	}
	if !req.Filters[1].Tags["d"].Equals(tag.T{"buteko", "batuke"}) {
		t.Fatalf("second filter tags: %v", req.Filters[1].Tags)
	}
}

func TestProcessEventEnvelope(t *testing.T) {
	sk := keys.GeneratePrivateKey()
	ev := &event.T{Kind: kind.GitIssue, Content: "hi"}
	if err := ev.Sign(sk); err != nil {
		t.Fatal(err)
	}
	// client form, no subscription id
	wire := `["EVENT",` + ev.String() + `]`
	env, err := ProcessEnvelope([]byte(wire))
	if err != nil {
		t.Fatal(err)
	}
	got, ok := env.(*Event)
	if !ok {
		t.Fatalf("got %T", env)
	}
	if got.SubscriptionID != "" {
		t.Fatalf("unexpected sub id %s", got.SubscriptionID)
	}
	if got.Event.ID != ev.ID || !got.Event.CheckID() {
		t.Fatal("event did not survive the wire")
	}
	// relay form carries the subscription id
	wire = `["EVENT","sub9",` + ev.String() + `]`
	env, err = ProcessEnvelope([]byte(wire))
	if err != nil {
		t.Fatal(err)
	}
	if env.(*Event).SubscriptionID != "sub9" {
		t.Fatal("subscription id lost")
	}
}

func TestEnvelopeBytes(t *testing.T) {
	testCases := []struct {
		name string
		env  I
		want string
	}{
		{"eose", &EOSE{SubscriptionID: "s1"}, `["EOSE","s1"]`},
		{"notice", &Notice{Text: "bad"}, `["NOTICE","bad"]`},
		{"closed", &Closed{SubscriptionID: "s1", Reason: "blocked: nope"},
			`["CLOSED","s1","blocked: nope"]`},
		{"ok true", &OK{ID: "abc", OK: true,
			Reason: "duplicate: already have this event"},
			`["OK","abc",true,"duplicate: already have this event"]`},
		{"ok false", &OK{ID: "abc", OK: false, Reason: "invalid: bad id"},
			`["OK","abc",false,"invalid: bad id"]`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := string(tc.env.Bytes()); got != tc.want {
				t.Fatalf("got %s want %s", got, tc.want)
			}
		})
	}
}

func TestEventEnvelopeBytesRoundTrip(t *testing.T) {
	sk := keys.GeneratePrivateKey()
	ev := &event.T{Kind: kind.GitPatch, Content: "diff --git a < b"}
	if err := ev.Sign(sk); err != nil {
		t.Fatal(err)
	}
	out := &Event{SubscriptionID: "s", Event: ev}
	b := out.Bytes()
	if !strings.HasPrefix(string(b), `["EVENT","s",`) {
		t.Fatalf("bad prefix: %s", b)
	}
	env, err := ProcessEnvelope(b)
	if err != nil {
		t.Fatal(err)
	}
	back := env.(*Event)
	if back.Event.ID != ev.ID || !back.Event.CheckID() {
		t.Fatal("event id broke over the wire")
	}
}
