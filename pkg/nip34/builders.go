// Package nip34 builds and reads the git collaboration event kinds:
// repository announcements and state, issues, patches, status transitions,
// labels, replies and deletions.
//
// Builders return unsigned events with their tags assembled in a canonical
// order, failing fast when a kind-required field is missing. Accessors are
// nil-safe: a malformed event reads as missing values, never as a panic.
package nip34

import (
	"errors"
	"fmt"

	"github.com/gitnostr/simulatr/pkg/nostr/event"
	"github.com/gitnostr/simulatr/pkg/nostr/eventid"
	"github.com/gitnostr/simulatr/pkg/nostr/kind"
	"github.com/gitnostr/simulatr/pkg/nostr/tag"
	"github.com/gitnostr/simulatr/pkg/nostr/tags"
	"github.com/gitnostr/simulatr/pkg/nostr/timestamp"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// ErrInvalidParameters is wrapped by every builder error: a kind-required
// field was absent, surfaced synchronously at build time.
var ErrInvalidParameters = errors.New("invalid parameters")

func missing(field string) error {
	return fmt.Errorf("%w: %s is required", ErrInvalidParameters, field)
}

func stamp(ts timestamp.T) timestamp.T {
	if ts == 0 {
		return timestamp.Now()
	}
	return ts
}

// Announcement describes a repository announcement (kind 30617),
// addressable per author by its identifier.
type Announcement struct {
	Identifier  string
	Name        string
	Description string
	Clone       []string
	Web         []string
	Maintainers []string
	Topics      []string
	// EUC is the earliest unique commit, the grouping key that ties forks
	// of the same repository together.
	EUC       string
	CreatedAt timestamp.T
}

func (a Announcement) Build() (*event.T, error) {
	if a.Identifier == "" {
		return nil, missing("repository identifier")
	}
	t := tags.T{{"d", a.Identifier}}
	if a.Name != "" {
		t = append(t, tag.T{"name", a.Name})
	}
	if a.Description != "" {
		t = append(t, tag.T{"description", a.Description})
	}
	for _, c := range a.Clone {
		t = append(t, tag.T{"clone", c})
	}
	for _, w := range a.Web {
		t = append(t, tag.T{"web", w})
	}
	for _, m := range a.Maintainers {
		t = append(t, tag.T{"maintainers", m})
		t = append(t, tag.T{"p", m})
	}
	for _, topic := range a.Topics {
		t = append(t, tag.T{"t", topic})
	}
	if a.EUC != "" {
		t = append(t, tag.T{"r", a.EUC, "euc"})
	}
	return &event.T{
		CreatedAt: stamp(a.CreatedAt),
		Kind:      kind.GitRepoAnnouncement,
		Tags:      t,
	}, nil
}

// State describes a repository state event (kind 30618) carrying the
// current refs, addressable by the same identifier as its announcement.
type State struct {
	Identifier string
	// Branches and Tags map ref names (without the refs/ prefix) to commit
	// hashes.
	Branches map[string]string
	Tags     map[string]string
	// Head names the default branch.
	Head      string
	CreatedAt timestamp.T
}

func (s State) Build() (*event.T, error) {
	if s.Identifier == "" {
		return nil, missing("repository identifier")
	}
	t := tags.T{{"d", s.Identifier}}
	// map iteration order is random; refs are sorted so two builds of the
	// same state produce the same event id
	branches := maps.Keys(s.Branches)
	slices.Sort(branches)
	for _, name := range branches {
		t = append(t, tag.T{"refs/heads/" + name, s.Branches[name]})
	}
	tagNames := maps.Keys(s.Tags)
	slices.Sort(tagNames)
	for _, name := range tagNames {
		t = append(t, tag.T{"refs/tags/" + name, s.Tags[name]})
	}
	if s.Head != "" {
		t = append(t, tag.T{"HEAD", "ref: refs/heads/" + s.Head})
	}
	return &event.T{
		CreatedAt: stamp(s.CreatedAt),
		Kind:      kind.GitRepoState,
		Tags:      t,
	}, nil
}

// Issue describes an issue (kind 1621) raised against a repository.
type Issue struct {
	Repo       Address
	Subject    string
	Content    string
	Labels     []string
	Recipients []string
	CreatedAt  timestamp.T
}

func (i Issue) Build() (*event.T, error) {
	if i.Repo.IsZero() {
		return nil, missing("repository address")
	}
	t := tags.T{{"a", i.Repo.String()}}
	if i.Subject != "" {
		t = append(t, tag.T{"subject", i.Subject})
	}
	for _, l := range i.Labels {
		t = append(t, tag.T{"t", l})
	}
	for _, p := range i.Recipients {
		t = append(t, tag.T{"p", p})
	}
	return &event.T{
		CreatedAt: stamp(i.CreatedAt),
		Kind:      kind.GitIssue,
		Tags:      t,
		Content:   i.Content,
	}, nil
}

// Patch describes a patch (kind 1617); the diff rides in the content.
type Patch struct {
	Repo         Address
	Subject      string
	Commit       string
	ParentCommit string
	Reviewers    []string
	Labels       []string
	// Root marks the first patch of a series.
	Root      bool
	Diff      string
	CreatedAt timestamp.T
}

func (p Patch) Build() (*event.T, error) {
	if p.Repo.IsZero() {
		return nil, missing("repository address")
	}
	t := tags.T{{"a", p.Repo.String()}}
	if p.Root {
		t = append(t, tag.T{"t", "root"})
	}
	if p.Subject != "" {
		t = append(t, tag.T{"subject", p.Subject})
	}
	if p.Commit != "" {
		t = append(t, tag.T{"commit", p.Commit})
		t = append(t, tag.T{"r", p.Commit})
	}
	if p.ParentCommit != "" {
		t = append(t, tag.T{"parent-commit", p.ParentCommit})
	}
	for _, r := range p.Reviewers {
		t = append(t, tag.T{"p", r})
	}
	for _, l := range p.Labels {
		t = append(t, tag.T{"t", l})
	}
	return &event.T{
		CreatedAt: stamp(p.CreatedAt),
		Kind:      kind.GitPatch,
		Tags:      t,
		Content:   p.Diff,
	}, nil
}

// Status describes one of the four status transition kinds applied to an
// issue or patch. The referenced target never changes; display status is
// whichever status event for it is most recent.
type Status struct {
	Kind       kind.T
	Target     eventid.T
	Repo       Address
	Recipients []string
	// MergeCommit is carried only by applied statuses.
	MergeCommit    string
	AppliedCommits []string
	Content        string
	CreatedAt      timestamp.T
}

func (s Status) Build() (*event.T, error) {
	if !s.Kind.IsGitStatus() {
		return nil, fmt.Errorf("%w: kind %d is not a status kind",
			ErrInvalidParameters, s.Kind)
	}
	if s.Target == "" {
		return nil, missing("target event id")
	}
	if s.Repo.IsZero() {
		return nil, missing("repository address")
	}
	t := tags.T{
		{"e", s.Target.String(), "", tag.MarkerRoot},
		{"a", s.Repo.String()},
	}
	for _, p := range s.Recipients {
		t = append(t, tag.T{"p", p})
	}
	if s.Kind == kind.GitStatusApplied {
		if s.MergeCommit != "" {
			t = append(t, tag.T{"merge-commit", s.MergeCommit})
			t = append(t, tag.T{"r", s.MergeCommit})
		}
		for _, c := range s.AppliedCommits {
			t = append(t, tag.T{"applied-as-commits", c})
		}
	}
	return &event.T{
		CreatedAt: stamp(s.CreatedAt),
		Kind:      s.Kind,
		Tags:      t,
		Content:   s.Content,
	}, nil
}

// OpenStatus wraps Status for the open kind.
func OpenStatus(target eventid.T, repo Address) Status {
	return Status{Kind: kind.GitStatusOpen, Target: target, Repo: repo}
}

// AppliedStatus wraps Status for the applied/merged kind.
func AppliedStatus(target eventid.T, repo Address, mergeCommit string) Status {
	return Status{
		Kind:        kind.GitStatusApplied,
		Target:      target,
		Repo:        repo,
		MergeCommit: mergeCommit,
	}
}

// ClosedStatus wraps Status for the closed kind.
func ClosedStatus(target eventid.T, repo Address) Status {
	return Status{Kind: kind.GitStatusClosed, Target: target, Repo: repo}
}

// DraftStatus wraps Status for the draft kind.
func DraftStatus(target eventid.T, repo Address) Status {
	return Status{Kind: kind.GitStatusDraft, Target: target, Repo: repo}
}

// Reply describes a comment (kind 1622) on an issue or patch thread.
type Reply struct {
	Root       eventid.T
	RootAuthor string
	Repo       Address
	Content    string
	Recipients []string
	CreatedAt  timestamp.T
}

func (r Reply) Build() (*event.T, error) {
	if r.Root == "" {
		return nil, missing("root event id")
	}
	t := tags.T{{"e", r.Root.String(), "", tag.MarkerRoot}}
	if !r.Repo.IsZero() {
		t = append(t, tag.T{"a", r.Repo.String()})
	}
	if r.RootAuthor != "" {
		t = append(t, tag.T{"p", r.RootAuthor})
	}
	for _, p := range r.Recipients {
		t = append(t, tag.T{"p", p})
	}
	return &event.T{
		CreatedAt: stamp(r.CreatedAt),
		Kind:      kind.GitReply,
		Tags:      t,
		Content:   r.Content,
	}, nil
}

// Comment describes a NIP-22 comment (kind 1111), the uppercase tags
// naming the thread root.
type Comment struct {
	Root       eventid.T
	RootKind   kind.T
	RootAuthor string
	Content    string
	CreatedAt  timestamp.T
}

func (c Comment) Build() (*event.T, error) {
	if c.Root == "" {
		return nil, missing("root event id")
	}
	t := tags.T{
		{"E", c.Root.String()},
		{"e", c.Root.String()},
	}
	if c.RootKind != 0 {
		t = append(t, tag.T{"K", fmt.Sprint(c.RootKind.ToInt())})
		t = append(t, tag.T{"k", fmt.Sprint(c.RootKind.ToInt())})
	}
	if c.RootAuthor != "" {
		t = append(t, tag.T{"P", c.RootAuthor})
		t = append(t, tag.T{"p", c.RootAuthor})
	}
	return &event.T{
		CreatedAt: stamp(c.CreatedAt),
		Kind:      kind.Comment,
		Tags:      t,
		Content:   c.Content,
	}, nil
}

// LabelEvent describes a NIP-32 label (kind 1985) applied to one or more
// target events.
type LabelEvent struct {
	Namespace string
	Value     string
	Targets   []eventid.T
	CreatedAt timestamp.T
}

func (l LabelEvent) Build() (*event.T, error) {
	if l.Value == "" {
		return nil, missing("label value")
	}
	if len(l.Targets) == 0 {
		return nil, missing("label target")
	}
	t := tags.T{}
	if l.Namespace != "" {
		t = append(t, tag.T{"L", l.Namespace})
		t = append(t, tag.T{"l", l.Value, l.Namespace})
	} else {
		t = append(t, tag.T{"l", l.Value})
	}
	for _, target := range l.Targets {
		t = append(t, tag.T{"e", target.String()})
	}
	return &event.T{
		CreatedAt: stamp(l.CreatedAt),
		Kind:      kind.Label,
		Tags:      t,
	}, nil
}

// Deletion describes a kind 5 tombstone request for the referenced events.
// Relays append it like any other event; nothing is physically removed.
type Deletion struct {
	Targets   []eventid.T
	Addresses []Address
	Reason    string
	CreatedAt timestamp.T
}

func (d Deletion) Build() (*event.T, error) {
	if len(d.Targets) == 0 && len(d.Addresses) == 0 {
		return nil, missing("deletion target")
	}
	t := tags.T{}
	for _, target := range d.Targets {
		t = append(t, tag.T{"e", target.String()})
	}
	for _, a := range d.Addresses {
		t = append(t, tag.T{"a", a.String()})
	}
	return &event.T{
		CreatedAt: stamp(d.CreatedAt),
		Kind:      kind.Deletion,
		Tags:      t,
		Content:   d.Reason,
	}, nil
}

// Reaction describes a kind 7 reaction to a target event.
type Reaction struct {
	Target       eventid.T
	TargetAuthor string
	Content      string
	CreatedAt    timestamp.T
}

func (r Reaction) Build() (*event.T, error) {
	if r.Target == "" {
		return nil, missing("reaction target")
	}
	t := tags.T{{"e", r.Target.String()}}
	if r.TargetAuthor != "" {
		t = append(t, tag.T{"p", r.TargetAuthor})
	}
	content := r.Content
	if content == "" {
		content = "+"
	}
	return &event.T{
		CreatedAt: stamp(r.CreatedAt),
		Kind:      kind.Reaction,
		Tags:      t,
		Content:   content,
	}, nil
}
