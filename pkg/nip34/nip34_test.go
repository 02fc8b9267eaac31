package nip34

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitnostr/simulatr/pkg/nostr/eventid"
	"github.com/gitnostr/simulatr/pkg/nostr/keys"
	"github.com/gitnostr/simulatr/pkg/nostr/kind"
)

func repoAddr() Address {
	return RepoAddress("aa11", "demo")
}

func TestAddressString(t *testing.T) {
	a := repoAddr()
	assert.Equal(t, "30617:aa11:demo", a.String())
	back, err := ParseAddress(a.String())
	require.NoError(t, err)
	assert.Equal(t, a, back)
}

func TestParseAddressRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "30617", "30617:pk", "x:pk:id"} {
		_, err := ParseAddress(s)
		assert.Error(t, err, s)
	}
}

func TestBuildersRequireFields(t *testing.T) {
	for _, tc := range []struct {
		name  string
		build func() error
	}{
		{"announcement without identifier", func() error {
			_, err := Announcement{Name: "x"}.Build()
			return err
		}},
		{"state without identifier", func() error {
			_, err := State{Head: "master"}.Build()
			return err
		}},
		{"issue without repo", func() error {
			_, err := Issue{Subject: "x"}.Build()
			return err
		}},
		{"patch without repo", func() error {
			_, err := Patch{Diff: "x"}.Build()
			return err
		}},
		{"status without target", func() error {
			_, err := Status{Kind: kind.GitStatusOpen, Repo: repoAddr()}.Build()
			return err
		}},
		{"status with non-status kind", func() error {
			_, err := Status{Kind: kind.GitIssue, Target: "e1",
				Repo: repoAddr()}.Build()
			return err
		}},
		{"reply without root", func() error {
			_, err := Reply{Content: "x"}.Build()
			return err
		}},
		{"label without value", func() error {
			_, err := LabelEvent{Targets: []eventid.T{"e1"}}.Build()
			return err
		}},
		{"deletion without targets", func() error {
			_, err := Deletion{Reason: "spam"}.Build()
			return err
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.build()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidParameters),
				"error not wrapped: %v", err)
		})
	}
}

func TestAnnouncementRoundTrip(t *testing.T) {
	ev, err := Announcement{
		Identifier:  "demo",
		Name:        "Demo Repo",
		Description: "a demo",
		Clone:       []string{"https://git.example/demo.git"},
		Web:         []string{"https://example.com/demo"},
		Maintainers: []string{"bb22"},
		Topics:      []string{"tooling"},
		EUC:         "c0ffee",
	}.Build()
	require.NoError(t, err)
	require.NoError(t, ev.Sign(keys.GeneratePrivateKey()))

	assert.Equal(t, kind.GitRepoAnnouncement, ev.Kind)
	assert.Equal(t, "demo", Identifier(ev))
	assert.Equal(t, []string{"https://git.example/demo.git"}, CloneURLs(ev))
	assert.Equal(t, []string{"https://example.com/demo"}, WebURLs(ev))
	assert.Contains(t, Maintainers(ev), "bb22")
	assert.Equal(t, []string{"tooling"}, Topics(ev))
	assert.Equal(t, "c0ffee", EUC(ev))
	addr := AddressOf(ev)
	assert.Equal(t, "demo", addr.Identifier)
	assert.Equal(t, ev.PubKey, addr.PubKey)
}

func TestStateRefsSortedAndReadable(t *testing.T) {
	s := State{
		Identifier: "demo",
		Branches: map[string]string{
			"master":  "1111",
			"develop": "2222",
		},
		Tags: map[string]string{"v1.0": "3333"},
		Head: "master",
	}
	a, err := s.Build()
	require.NoError(t, err)
	b, err := s.Build()
	require.NoError(t, err)
	// ref order must not depend on map iteration
	assert.Equal(t, a.Tags, b.Tags)

	require.NoError(t, a.Sign(keys.GeneratePrivateKey()))
	refs := Refs(a)
	assert.Equal(t, "1111", refs["refs/heads/master"])
	assert.Equal(t, "2222", refs["refs/heads/develop"])
	assert.Equal(t, "3333", refs["refs/tags/v1.0"])
	assert.Equal(t, "master", Head(a))
}

func TestIssueAndStatus(t *testing.T) {
	sk := keys.GeneratePrivateKey()
	issue, err := Issue{
		Repo:    repoAddr(),
		Subject: "it breaks",
		Content: "details",
		Labels:  []string{"bug"},
	}.Build()
	require.NoError(t, err)
	require.NoError(t, issue.Sign(sk))
	assert.Equal(t, "it breaks", Subject(issue))
	repo, ok := RepoOf(issue)
	require.True(t, ok)
	assert.Equal(t, repoAddr(), repo)

	st, err := ClosedStatus(issue.ID, repoAddr()).Build()
	require.NoError(t, err)
	require.NoError(t, st.Sign(sk))
	assert.Equal(t, kind.GitStatusClosed, st.Kind)
	target, ok := StatusTarget(st)
	require.True(t, ok)
	assert.Equal(t, issue.ID, target)
}

func TestAppliedStatusCarriesMergeCommit(t *testing.T) {
	st, err := AppliedStatus("e1", repoAddr(), "deadbeef").Build()
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", MergeCommit(st))

	open, err := OpenStatus("e1", repoAddr()).Build()
	require.NoError(t, err)
	assert.Empty(t, MergeCommit(open))
}

func TestPatchTags(t *testing.T) {
	ev, err := Patch{
		Repo:         repoAddr(),
		Subject:      "fix parser",
		Commit:       "abc123",
		ParentCommit: "def456",
		Root:         true,
		Diff:         "diff --git a/x b/x",
	}.Build()
	require.NoError(t, err)
	assert.Equal(t, kind.GitPatch, ev.Kind)
	assert.Equal(t, "diff --git a/x b/x", ev.Content)
	assert.True(t, ev.Tags.ContainsAny("t", "root"))
	assert.True(t, ev.Tags.ContainsAny("commit", "abc123"))
	assert.True(t, ev.Tags.ContainsAny("parent-commit", "def456"))
}

func TestDeletionTargets(t *testing.T) {
	ev, err := Deletion{
		Targets:   []eventid.T{"e1", "e2"},
		Addresses: []Address{repoAddr()},
		Reason:    "spam",
	}.Build()
	require.NoError(t, err)
	assert.Equal(t, kind.Deletion, ev.Kind)
	ids := DeletionTargets(ev)
	assert.Equal(t, []eventid.T{"e1", "e2"}, ids)
	assert.True(t, ev.Tags.ContainsAny("a", repoAddr().String()))
}

func TestAccessorsNilSafe(t *testing.T) {
	assert.Empty(t, Identifier(nil))
	assert.Empty(t, Subject(nil))
	assert.Empty(t, CloneURLs(nil))
	assert.Empty(t, MergeCommit(nil))
	assert.True(t, AddressOf(nil).IsZero())
	_, ok := StatusTarget(nil)
	assert.False(t, ok)
	_, ok = RepoOf(nil)
	assert.False(t, ok)
}
