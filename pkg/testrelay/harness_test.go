package testrelay

import (
	"context"
	"testing"
	"time"

	gonostr "github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitnostr/simulatr/pkg/nip34"
	"github.com/gitnostr/simulatr/pkg/nostr/event"
	"github.com/gitnostr/simulatr/pkg/nostr/kind"
)

func listen(t *testing.T) (*Harness, string) {
	t.Helper()
	h := New()
	url, err := h.Listen()
	require.NoError(t, err)
	t.Cleanup(h.Close)
	return h, url
}

func connect(t *testing.T, url string) *gonostr.Relay {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r, err := gonostr.RelayConnect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestListenIdempotent(t *testing.T) {
	h, url := listen(t)
	again, err := h.Listen()
	require.NoError(t, err)
	assert.Equal(t, url, again)
	assert.Equal(t, url, h.URL())
}

func TestSeedRepoVisibleToClient(t *testing.T) {
	h, url := listen(t)
	repo, err := h.SeedRepo(RepoParams{
		Identifier:  "demo",
		Name:        "Demo",
		Description: "a seeded repository",
		Clone:       []string{"https://git.example/demo.git"},
		Branches:    map[string]string{"master": "abc123"},
		Head:        "master",
	})
	require.NoError(t, err)
	require.NotNil(t, repo.State, "refs given, state event expected")

	r := connect(t, url)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	got, err := r.QuerySync(ctx, gonostr.Filter{
		Kinds: []int{kind.GitRepoAnnouncement.ToInt()},
		Tags:  gonostr.TagMap{"d": []string{"demo"}},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, repo.Event.ID.String(), got[0].ID)
}

func TestSeedIssueWithStatus(t *testing.T) {
	h, _ := listen(t)
	repo, err := h.SeedRepo(RepoParams{Identifier: "demo"})
	require.NoError(t, err)
	issue, err := h.SeedIssue(IssueParams{
		Repo:    repo.Address,
		Subject: "it fails",
		Content: "details",
		Status:  kind.GitStatusOpen,
	})
	require.NoError(t, err)
	require.NotNil(t, issue.Status)

	target, ok := nip34.StatusTarget(issue.Status)
	require.True(t, ok)
	assert.Equal(t, issue.Event.ID, target)
	// seeding never counts as published
	assert.Empty(t, h.PublishedEvents())
	assert.Len(t, h.SeededEvents(), 3)
}

func TestSeedIssueCommentCascade(t *testing.T) {
	h := New()
	defer h.Close()
	repo, err := h.SeedRepo(RepoParams{Identifier: "demo"})
	require.NoError(t, err)
	issue, err := h.SeedIssue(IssueParams{
		Repo:     repo.Address,
		Subject:  "flaky clone",
		Comments: 3,
	})
	require.NoError(t, err)
	require.Len(t, issue.Comments, 3)
	for _, c := range issue.Comments {
		assert.Equal(t, kind.GitReply, c.Kind)
		assert.True(t, c.Tags.ContainsAny("e", string(issue.Event.ID)))
	}
	// announcement + issue + 3 replies
	assert.Len(t, h.SeededEvents(), 5)
}

func TestSeedEventsRequireValidParameters(t *testing.T) {
	h := New()
	defer h.Close()
	_, err := h.SeedRepo(RepoParams{})
	assert.ErrorIs(t, err, nip34.ErrInvalidParameters)
	_, err = h.SeedIssue(IssueParams{Subject: "no repo"})
	assert.ErrorIs(t, err, nip34.ErrInvalidParameters)
}

func TestWaitForEventResolves(t *testing.T) {
	h, url := listen(t)
	repo, err := h.SeedRepo(RepoParams{Identifier: "demo"})
	require.NoError(t, err)

	done := make(chan struct{})
	var waited *event.T
	var waitErr error
	go func() {
		defer close(done)
		waited, waitErr = h.WaitForKind(kind.GitIssue, 10*time.Second)
	}()

	r := connect(t, url)
	ev := gonostr.Event{
		CreatedAt: gonostr.Now(),
		Kind:      kind.GitIssue.ToInt(),
		Tags:      gonostr.Tags{{"a", repo.Address.String()}},
		Content:   "filed from the client",
	}
	require.NoError(t, ev.Sign(gonostr.GeneratePrivateKey()))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.Publish(ctx, ev))

	<-done
	require.NoError(t, waitErr)
	assert.Equal(t, ev.ID, waited.ID.String())
	assert.Len(t, h.PublishedEvents(), 1)
}

func TestWaitForEventBacklog(t *testing.T) {
	h, url := listen(t)
	_, err := h.SeedRepo(RepoParams{Identifier: "demo"})
	require.NoError(t, err)

	r := connect(t, url)
	ev := gonostr.Event{
		CreatedAt: gonostr.Now(),
		Kind:      kind.GitIssue.ToInt(),
		Tags:      gonostr.Tags{{"a", "30617:pk:demo"}},
		Content:   "published before the wait",
	}
	require.NoError(t, ev.Sign(gonostr.GeneratePrivateKey()))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.Publish(ctx, ev))

	// the wait starts after the publish completed and must still resolve
	got, err := h.WaitForKind(kind.GitIssue, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, ev.ID, got.ID.String())
}

func TestWaitForEventTimeout(t *testing.T) {
	h, _ := listen(t)
	start := time.Now()
	_, err := h.WaitForKind(kind.GitPatch, 100*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)
	// the expired waiter must not linger
	h.waitMx.Lock()
	n := len(h.waiters)
	h.waitMx.Unlock()
	assert.Zero(t, n)
}

func TestWaitForEventIgnoresSeeded(t *testing.T) {
	h, _ := listen(t)
	done := make(chan struct{})
	var waitErr error
	go func() {
		defer close(done)
		_, waitErr = h.WaitForKind(kind.GitIssue, 300*time.Millisecond)
	}()
	time.Sleep(50 * time.Millisecond)
	repo, err := h.SeedRepo(RepoParams{Identifier: "demo"})
	require.NoError(t, err)
	_, err = h.SeedIssue(IssueParams{Repo: repo.Address, Subject: "seeded"})
	require.NoError(t, err)
	<-done
	assert.ErrorIs(t, waitErr, ErrTimeout)
}

func TestConcurrentWaitersAllFire(t *testing.T) {
	h, url := listen(t)
	repo, err := h.SeedRepo(RepoParams{Identifier: "demo"})
	require.NoError(t, err)

	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := h.WaitForKind(kind.GitIssue, 10*time.Second)
			results <- err
		}()
	}

	r := connect(t, url)
	ev := gonostr.Event{
		CreatedAt: gonostr.Now(),
		Kind:      kind.GitIssue.ToInt(),
		Tags:      gonostr.Tags{{"a", repo.Address.String()}},
	}
	require.NoError(t, ev.Sign(gonostr.GeneratePrivateKey()))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.Publish(ctx, ev))

	for i := 0; i < 2; i++ {
		require.NoError(t, <-results)
	}
}

func TestResetClearsEverything(t *testing.T) {
	h, url := listen(t)
	repo, err := h.SeedRepo(RepoParams{Identifier: "demo"})
	require.NoError(t, err)

	r := connect(t, url)
	ev := gonostr.Event{
		CreatedAt: gonostr.Now(),
		Kind:      kind.GitIssue.ToInt(),
		Tags:      gonostr.Tags{{"a", repo.Address.String()}},
	}
	require.NoError(t, ev.Sign(gonostr.GeneratePrivateKey()))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.Publish(ctx, ev))

	h.Reset()
	assert.Empty(t, h.SeededEvents())
	assert.Empty(t, h.PublishedEvents())
	assert.Zero(t, h.Store.Len())

	// the relay keeps serving after a reset, and a second reset is a no-op
	h.Reset()
	got, err := r.QuerySync(ctx, gonostr.Filter{
		Kinds: []int{kind.GitIssue.ToInt()},
	})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestInjectEvents(t *testing.T) {
	h, _ := listen(t)
	ev := &event.T{Kind: kind.GitReply, Content: "prebuilt"}
	require.NoError(t, ev.Sign(h.SecretKey))
	require.NoError(t, h.InjectEvents(ev, nil, ev))
	assert.Equal(t, 1, h.Store.Len())
	assert.Len(t, h.SeededEvents(), 1)
}

// the seeding-to-assertion loop of a UI test: seed a repository and an
// issue, let the client close the issue, observe the status event
func TestIssueLifecycleEndToEnd(t *testing.T) {
	h, url := listen(t)
	repo, err := h.SeedRepo(RepoParams{
		Identifier: "demo",
		Name:       "Demo",
		Branches:   map[string]string{"master": "abc123"},
		Head:       "master",
	})
	require.NoError(t, err)
	issue, err := h.SeedIssue(IssueParams{
		Repo:    repo.Address,
		Subject: "close me",
		Status:  kind.GitStatusOpen,
	})
	require.NoError(t, err)

	// the client under test closes the issue
	r := connect(t, url)
	closed := gonostr.Event{
		CreatedAt: gonostr.Now(),
		Kind:      kind.GitStatusClosed.ToInt(),
		Tags: gonostr.Tags{
			{"e", issue.Event.ID.String(), "", "root"},
			{"a", repo.Address.String()},
		},
	}
	require.NoError(t, closed.Sign(gonostr.GeneratePrivateKey()))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.Publish(ctx, closed))

	got, err := h.WaitForKind(kind.GitStatusClosed, 10*time.Second)
	require.NoError(t, err)
	target, ok := nip34.StatusTarget(got)
	require.True(t, ok)
	assert.Equal(t, issue.Event.ID, target)

	// the status event does not disturb the repository's canonical slot
	ann := h.Store.GetByAddress(kind.GitRepoAnnouncement,
		repo.Event.PubKey, "demo")
	require.NotNil(t, ann)
	assert.Equal(t, repo.Event.ID, ann.ID)
}
