package testrelay

import (
	"fmt"

	"github.com/gitnostr/simulatr/pkg/nip34"
	"github.com/gitnostr/simulatr/pkg/nostr/event"
	"github.com/gitnostr/simulatr/pkg/nostr/keys"
	"github.com/gitnostr/simulatr/pkg/nostr/kind"
	"github.com/gitnostr/simulatr/pkg/nostr/timestamp"
)

// RepoParams drives SeedRepo. Only Identifier is required; the rest
// default to values a browsing UI renders without complaint.
type RepoParams struct {
	Identifier  string
	Name        string
	Description string
	Clone       []string
	Web         []string
	Maintainers []string
	Topics      []string
	EUC         string
	// Branches/Tags/Head, when any is set, cause a companion state event
	// (kind 30618) under the same identifier.
	Branches map[string]string
	Tags     map[string]string
	Head     string
	// SecretKey overrides the harness key as the announcement author.
	SecretKey string
	CreatedAt timestamp.T
}

// SeededRepo reports what SeedRepo stored.
type SeededRepo struct {
	Event   *event.T
	State   *event.T
	Address nip34.Address
	// SecretKey is the key that signed the announcement, for follow-up
	// seeding as the same author.
	SecretKey string
}

// signingKey resolves an override key against the harness default.
func (h *Harness) signingKey(override string) string {
	if override != "" {
		return override
	}
	return h.SecretKey
}

func (h *Harness) buildAndSeed(b interface {
	Build() (*event.T, error)
}, sk string) (*event.T, error) {
	ev, err := b.Build()
	if err != nil {
		return nil, err
	}
	if err = ev.Sign(sk); err != nil {
		return nil, err
	}
	if err = h.inject(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// SeedRepo stores a repository announcement, and a state event when refs
// are given, returning the address later seeds hang off.
func (h *Harness) SeedRepo(p RepoParams) (*SeededRepo, error) {
	sk := h.signingKey(p.SecretKey)
	name := p.Name
	if name == "" {
		name = p.Identifier
	}
	ev, err := h.buildAndSeed(nip34.Announcement{
		Identifier:  p.Identifier,
		Name:        name,
		Description: p.Description,
		Clone:       p.Clone,
		Web:         p.Web,
		Maintainers: p.Maintainers,
		Topics:      p.Topics,
		EUC:         p.EUC,
		CreatedAt:   p.CreatedAt,
	}, sk)
	if err != nil {
		return nil, err
	}
	out := &SeededRepo{
		Event:     ev,
		Address:   nip34.RepoAddress(ev.PubKey, p.Identifier),
		SecretKey: sk,
	}
	if len(p.Branches) > 0 || len(p.Tags) > 0 || p.Head != "" {
		out.State, err = h.buildAndSeed(nip34.State{
			Identifier: p.Identifier,
			Branches:   p.Branches,
			Tags:       p.Tags,
			Head:       p.Head,
			CreatedAt:  p.CreatedAt,
		}, sk)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// IssueParams drives SeedIssue.
type IssueParams struct {
	Repo       nip34.Address
	Subject    string
	Content    string
	Labels     []string
	Recipients []string
	// Status, when a status kind, also seeds a status event pointing at
	// the issue; zero means no status (clients treat that as open).
	Status kind.T
	// Comments seeds that many reply events threaded under the issue.
	Comments  int
	SecretKey string
	CreatedAt timestamp.T
}

// SeededIssue reports what SeedIssue stored.
type SeededIssue struct {
	Event     *event.T
	Status    *event.T
	Comments  []*event.T
	SecretKey string
}

// SeedIssue stores an issue against a previously seeded repository,
// optionally with an initial status event.
func (h *Harness) SeedIssue(p IssueParams) (*SeededIssue, error) {
	sk := h.signingKey(p.SecretKey)
	ev, err := h.buildAndSeed(nip34.Issue{
		Repo:       p.Repo,
		Subject:    p.Subject,
		Content:    p.Content,
		Labels:     p.Labels,
		Recipients: p.Recipients,
		CreatedAt:  p.CreatedAt,
	}, sk)
	if err != nil {
		return nil, err
	}
	out := &SeededIssue{Event: ev, SecretKey: sk}
	if p.Status != 0 {
		out.Status, err = h.buildAndSeed(nip34.Status{
			Kind:      p.Status,
			Target:    ev.ID,
			Repo:      p.Repo,
			CreatedAt: p.CreatedAt,
		}, sk)
		if err != nil {
			return nil, err
		}
	}
	out.Comments, err = h.seedComments(p.Comments, ev, p.Repo, p.CreatedAt, sk)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// seedComments threads n reply events under a seeded root.
func (h *Harness) seedComments(n int, root *event.T, repo nip34.Address,
	ts timestamp.T, sk string) (out []*event.T, err error) {
	for i := 0; i < n; i++ {
		var ev *event.T
		ev, err = h.buildAndSeed(nip34.Reply{
			Root:       root.ID,
			RootAuthor: root.PubKey,
			Repo:       repo,
			Content:    fmt.Sprintf("comment %d", i+1),
			CreatedAt:  ts,
		}, sk)
		if err != nil {
			return
		}
		out = append(out, ev)
	}
	return
}

// PatchParams drives SeedPatch.
type PatchParams struct {
	Repo         nip34.Address
	Subject      string
	Commit       string
	ParentCommit string
	Reviewers    []string
	Labels       []string
	Root         bool
	Diff         string
	Status       kind.T
	Comments     int
	SecretKey    string
	CreatedAt    timestamp.T
}

// SeededPatch reports what SeedPatch stored.
type SeededPatch struct {
	Event     *event.T
	Status    *event.T
	Comments  []*event.T
	SecretKey string
}

// SeedPatch stores a patch against a previously seeded repository,
// optionally with an initial status event.
func (h *Harness) SeedPatch(p PatchParams) (*SeededPatch, error) {
	sk := h.signingKey(p.SecretKey)
	ev, err := h.buildAndSeed(nip34.Patch{
		Repo:         p.Repo,
		Subject:      p.Subject,
		Commit:       p.Commit,
		ParentCommit: p.ParentCommit,
		Reviewers:    p.Reviewers,
		Labels:       p.Labels,
		Root:         p.Root,
		Diff:         p.Diff,
		CreatedAt:    p.CreatedAt,
	}, sk)
	if err != nil {
		return nil, err
	}
	out := &SeededPatch{Event: ev, SecretKey: sk}
	if p.Status != 0 {
		out.Status, err = h.buildAndSeed(nip34.Status{
			Kind:      p.Status,
			Target:    ev.ID,
			Repo:      p.Repo,
			CreatedAt: p.CreatedAt,
		}, sk)
		if err != nil {
			return nil, err
		}
	}
	out.Comments, err = h.seedComments(p.Comments, ev, p.Repo, p.CreatedAt, sk)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SeedStatus stores a status transition for an issue or patch.
func (h *Harness) SeedStatus(s nip34.Status, secretKey string) (*event.T, error) {
	return h.buildAndSeed(s, h.signingKey(secretKey))
}

// SeedReply stores a threaded reply under an issue or patch root.
func (h *Harness) SeedReply(r nip34.Reply, secretKey string) (*event.T, error) {
	return h.buildAndSeed(r, h.signingKey(secretKey))
}

// SeedLabel stores a label event for its targets.
func (h *Harness) SeedLabel(l nip34.LabelEvent, secretKey string) (*event.T, error) {
	return h.buildAndSeed(l, h.signingKey(secretKey))
}

// NewKeypair mints an unrelated simulated identity, for seeding events
// by multiple distinct authors.
func NewKeypair() (sk, pk string) {
	sk = keys.GeneratePrivateKey()
	pk, _ = keys.GetPublicKey(sk)
	return sk, pk
}
