// Package kind implements the nostr event kind discriminator and the
// predicates that decide storage semantics for a kind.
package kind

// T is the event type in the nostr protocol, the use of the capital T
// signifying type, consistent with Go idiom, the Go standard library, and
// much, conformant, existing code.
type T uint16

func (ki T) ToInt() int       { return int(ki) }
func (ki T) ToUint16() uint16 { return uint16(ki) }

const (
	// ProfileMetadata is an event type that stores user profile data, pet
	// names, bio, lightning address, etc.
	ProfileMetadata T = 0
	// TextNote is a standard short text note of plain text a la twitter.
	TextNote T = 1
	// FollowList is an event containing a list of pubkeys of users that
	// should be shown as follows in a timeline.
	FollowList T = 3
	// Deletion requests tombstoning of the events referenced in its e tags.
	Deletion T = 5
	// Repost is a rebroadcast of another event.
	Repost T = 6
	// Reaction is an emoji or +/- response to a referenced event.
	Reaction T = 7
	// ChannelMetadata is the NIP-28 channel metadata update, replaceable
	// per author like the profile kinds.
	ChannelMetadata T = 41
	// Comment is a NIP-22 threaded comment on any addressable or plain
	// event, using uppercase tags for the root reference.
	Comment T = 1111
	// GitPatch is a NIP-34 patch, the diff carried in the content.
	GitPatch T = 1617
	// GitIssue is a NIP-34 issue raised against a repository.
	GitIssue T = 1621
	// GitReply is a NIP-34 comment on an issue or patch thread.
	GitReply T = 1622
	// GitStatusOpen marks a referenced issue or patch as open.
	GitStatusOpen T = 1630
	// GitStatusApplied marks a referenced patch as applied/merged, or an
	// issue as resolved, and may carry the merge commit hashes.
	GitStatusApplied T = 1631
	// GitStatusClosed marks a referenced issue or patch as closed.
	GitStatusClosed T = 1632
	// GitStatusDraft marks a referenced patch as a draft.
	GitStatusDraft T = 1633
	// Label is a NIP-32 label attached to the events in its e tags.
	Label T = 1985
	// GitRepoAnnouncement is the NIP-34 repository announcement,
	// parameterized replaceable on its d tag identifier.
	GitRepoAnnouncement T = 30617
	// GitRepoState is the NIP-34 repository state event carrying the
	// current refs, parameterized replaceable on the same d tag as its
	// announcement.
	GitRepoState T = 30618
)

// IsReplaceable returns true for kinds where only the latest event per
// author is canonical.
func (ki T) IsReplaceable() bool {
	return ki == ProfileMetadata || ki == FollowList ||
		ki == ChannelMetadata || (10000 <= ki && ki < 20000)
}

// IsParameterizedReplaceable returns true for kinds addressed by the
// (kind, pubkey, d tag) triple.
func (ki T) IsParameterizedReplaceable() bool {
	return 30000 <= ki && ki < 40000
}

// IsEphemeral returns true for kinds that relays relay but do not store.
func (ki T) IsEphemeral() bool { return 20000 <= ki && ki < 30000 }

// IsGitStatus returns true for the four NIP-34 status kinds.
func (ki T) IsGitStatus() bool {
	return ki >= GitStatusOpen && ki <= GitStatusDraft
}

var names = map[T]string{
	ProfileMetadata:     "profile metadata",
	TextNote:            "text note",
	FollowList:          "follow list",
	Deletion:            "deletion",
	Repost:              "repost",
	Reaction:            "reaction",
	ChannelMetadata:     "channel metadata",
	Comment:             "comment",
	GitPatch:            "git patch",
	GitIssue:            "git issue",
	GitReply:            "git reply",
	GitStatusOpen:       "git status open",
	GitStatusApplied:    "git status applied",
	GitStatusClosed:     "git status closed",
	GitStatusDraft:      "git status draft",
	Label:               "label",
	GitRepoAnnouncement: "git repository announcement",
	GitRepoState:        "git repository state",
}

// GetString returns a human readable name for a kind, if one is known.
func GetString(ki T) string { return names[ki] }
