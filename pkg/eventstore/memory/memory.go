// Package memory implements the in-process event store backing the mock
// relay: an append-only log with indices by id, kind, author and address,
// relay-equivalent filter queries and last-write-wins resolution for
// replaceable kinds.
//
// Nothing is ever physically removed. A replaceable event that loses its
// address slot stays in the log, reachable by id, excluded from filter
// queries. Deletion events are stored like any other; interpreting them as
// tombstones is the consumer's job.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/gitnostr/simulatr/pkg/eventstore"
	"github.com/gitnostr/simulatr/pkg/nostr/event"
	"github.com/gitnostr/simulatr/pkg/nostr/eventid"
	"github.com/gitnostr/simulatr/pkg/nostr/filter"
	"github.com/gitnostr/simulatr/pkg/nostr/kind"
	"golang.org/x/exp/slices"
)

type record struct {
	ev  *event.T
	seq uint64
	// superseded marks an event that lost its address slot to a newer
	// one; it stays queryable by id only.
	superseded bool
}

// Store is the in-memory event store. The zero value is not usable; call
// New (or Init on an embedded value) first.
type Store struct {
	mx   sync.RWMutex
	seq  uint64
	recs []*record

	byID      map[eventid.T]*record
	byKind    map[kind.T][]*record
	byAuthor  map[string][]*record
	byAddress map[string]*record

	subMx   sync.Mutex
	subSeq  int
	subs    map[int]func(*event.T)
	subKeys []int
}

var _ eventstore.Store = (*Store)(nil)

// New returns an initialized store.
func New() *Store {
	s := &Store{}
	_ = s.Init()
	return s
}

// Init prepares the internal indices. Calling it on a used store resets it.
func (s *Store) Init() error {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.reset()
	return nil
}

func (s *Store) reset() {
	s.recs = nil
	s.seq = 0
	s.byID = make(map[eventid.T]*record)
	s.byKind = make(map[kind.T][]*record)
	s.byAuthor = make(map[string][]*record)
	s.byAddress = make(map[string]*record)
}

// Close releases nothing; the store is purely in-process.
func (s *Store) Close() {}

// Reset empties the store. Subscribers stay registered; nothing is
// notified. Resetting an empty store is a no-op.
func (s *Store) Reset() {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.reset()
}

// isOlder reports whether previous loses the canonical slot to next:
// strictly older, or at the same timestamp with the lexicographically
// greater id. The id comparison makes the outcome deterministic and
// independent of arrival order.
func isOlder(previous, next *event.T) bool {
	return previous.CreatedAt < next.CreatedAt ||
		(previous.CreatedAt == next.CreatedAt && previous.ID > next.ID)
}

func addressKey(k kind.T, pubkey, identifier string) string {
	return fmt.Sprintf("%d:%s:%s", k, pubkey, identifier)
}

func addressKeyOf(ev *event.T) (key string, ok bool) {
	switch {
	case ev.Kind.IsReplaceable():
		return addressKey(ev.Kind, ev.PubKey, ""), true
	case ev.Kind.IsParameterizedReplaceable():
		d := ""
		if t := ev.Tags.GetFirst([]string{"d", ""}); t != nil {
			d = t.Value()
		}
		// a missing d tag still claims a slot, with the empty identifier
		return addressKey(ev.Kind, ev.PubKey, d), true
	}
	return "", false
}

// SaveEvent appends an event and resolves replaceable conflicts. Inserts
// are atomic: subscribers observe events in one global save order, and a
// query never sees a partial insert. Structurally malformed events are
// stored as-is; relays do not validate deeply.
func (s *Store) SaveEvent(c context.Context, ev *event.T) (err error) {
	if ev == nil {
		return fmt.Errorf("cannot save nil event")
	}
	s.mx.Lock()
	if _, have := s.byID[ev.ID]; have {
		s.mx.Unlock()
		return eventstore.ErrDupEvent
	}
	if ev.Kind.IsEphemeral() {
		// relayed to subscribers, never stored
		s.notifyAndUnlock(ev)
		return nil
	}
	s.seq++
	rec := &record{ev: ev, seq: s.seq}
	if key, ok := addressKeyOf(ev); ok {
		if existing := s.byAddress[key]; existing != nil {
			if isOlder(existing.ev, ev) {
				existing.superseded = true
				s.byAddress[key] = rec
			} else {
				rec.superseded = true
			}
		} else {
			s.byAddress[key] = rec
		}
	}
	s.recs = append(s.recs, rec)
	s.byID[ev.ID] = rec
	s.byKind[ev.Kind] = append(s.byKind[ev.Kind], rec)
	s.byAuthor[ev.PubKey] = append(s.byAuthor[ev.PubKey], rec)
	s.notifyAndUnlock(ev)
	return nil
}

// Subscribe registers a callback invoked for every accepted save, in the
// global save order. Callbacks run on the saving goroutine while the
// notification lock is held, so they must hand slow work (socket writes)
// to a queue rather than block. The returned function unregisters the
// callback.
func (s *Store) Subscribe(fn func(*event.T)) (unsubscribe func()) {
	s.subMx.Lock()
	defer s.subMx.Unlock()
	if s.subs == nil {
		s.subs = make(map[int]func(*event.T))
	}
	id := s.subSeq
	s.subSeq++
	s.subs[id] = fn
	s.subKeys = append(s.subKeys, id)
	return func() {
		s.subMx.Lock()
		defer s.subMx.Unlock()
		delete(s.subs, id)
		for i, k := range s.subKeys {
			if k == id {
				s.subKeys = append(s.subKeys[:i], s.subKeys[i+1:]...)
				break
			}
		}
	}
}

// notifyAndUnlock takes the notification lock before letting go of the
// writer lock, so no racing save can notify out of accept order, then
// runs the callbacks with only the notification lock held. The caller
// must hold s.mx.
func (s *Store) notifyAndUnlock(ev *event.T) {
	s.subMx.Lock()
	s.mx.Unlock()
	defer s.subMx.Unlock()
	for _, k := range s.subKeys {
		if fn, ok := s.subs[k]; ok {
			fn(ev)
		}
	}
}

// matches gathers the events satisfying a filter under the read lock.
// Events that lost their address slot only surface when the filter asks
// for ids explicitly.
func (s *Store) matches(f *filter.T) (out []*event.T) {
	s.mx.RLock()
	defer s.mx.RUnlock()
	byIDQuery := len(f.IDs) > 0

	// pick the narrowest candidate set the indices offer
	var cand []*record
	switch {
	case byIDQuery:
		cand = make([]*record, 0, len(f.IDs))
		for _, id := range f.IDs {
			if rec, ok := s.byID[eventid.T(id)]; ok {
				cand = append(cand, rec)
			}
		}
	case len(f.Kinds) == 1:
		cand = s.byKind[f.Kinds[0]]
	case len(f.Authors) == 1:
		cand = s.byAuthor[f.Authors[0]]
	default:
		cand = s.recs
	}

	for _, rec := range cand {
		if rec.superseded && !byIDQuery {
			continue
		}
		if f.Matches(rec.ev) {
			out = append(out, rec.ev)
		}
	}
	return
}

func sortAndLimit(out []*event.T, limit int) []*event.T {
	// newest first; ties break on ascending id so that identical queries
	// against an unmodified store always return identical sequences
	slices.SortFunc(out, func(a, b *event.T) int {
		switch {
		case a.CreatedAt > b.CreatedAt:
			return -1
		case a.CreatedAt < b.CreatedAt:
			return 1
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

// QueryEvents streams the events matching a filter, newest first. It never
// fails on a filter matching nothing: the channel just closes.
func (s *Store) QueryEvents(c context.Context, f *filter.T) (ch event.C, err error) {
	if f == nil {
		f = &filter.T{}
	}
	out := sortAndLimit(s.matches(f), f.Limit)
	ch = make(event.C)
	go func() {
		defer close(ch)
		for _, ev := range out {
			select {
			case ch <- ev:
			case <-c.Done():
				return
			}
		}
	}()
	return ch, nil
}

// QuerySync returns the matching events as a slice, for callers that do
// not want the channel ceremony.
func (s *Store) QuerySync(f *filter.T) []*event.T {
	if f == nil {
		f = &filter.T{}
	}
	return sortAndLimit(s.matches(f), f.Limit)
}

// CountEvents returns the number of events matching a filter.
func (s *Store) CountEvents(c context.Context, f *filter.T) (count int, err error) {
	if f == nil {
		f = &filter.T{}
	}
	return len(s.matches(f)), nil
}

// GetByAddress returns the current canonical event for the given
// addressable slot, or nil when no event occupies it.
func (s *Store) GetByAddress(k kind.T, pubkey, identifier string) (ev *event.T) {
	s.mx.RLock()
	defer s.mx.RUnlock()
	if rec := s.byAddress[addressKey(k, pubkey, identifier)]; rec != nil {
		return rec.ev
	}
	return nil
}

// GetByID returns the stored event with the given id, superseded or not.
func (s *Store) GetByID(id eventid.T) (ev *event.T) {
	s.mx.RLock()
	defer s.mx.RUnlock()
	if rec := s.byID[id]; rec != nil {
		return rec.ev
	}
	return nil
}

// All returns a copy of the full raw log in insertion order, superseded
// events included, for auditing.
func (s *Store) All() (out []*event.T) {
	s.mx.RLock()
	defer s.mx.RUnlock()
	out = make([]*event.T, len(s.recs))
	for i, rec := range s.recs {
		out[i] = rec.ev
	}
	return
}

// Len returns the size of the raw log.
func (s *Store) Len() int {
	s.mx.RLock()
	defer s.mx.RUnlock()
	return len(s.recs)
}
