package testrelay

import (
	"errors"
	"sync"
	"time"

	"github.com/gitnostr/simulatr/pkg/nostr/event"
	"github.com/gitnostr/simulatr/pkg/nostr/filter"
	"github.com/gitnostr/simulatr/pkg/nostr/kind"
)

// ErrTimeout reports that no matching event was published within the
// waiting window.
var ErrTimeout = errors.New("timed out waiting for event")

// Matcher decides whether a published event satisfies a wait.
type Matcher func(*event.T) bool

// KindMatcher matches any event of the given kind.
func KindMatcher(k kind.T) Matcher {
	return func(ev *event.T) bool { return ev.Kind == k }
}

// FilterMatcher matches events the filter accepts.
func FilterMatcher(f *filter.T) Matcher {
	return func(ev *event.T) bool { return f.Matches(ev) }
}

type waiter struct {
	match Matcher
	ch    chan *event.T
	once  sync.Once
}

func (w *waiter) fire(ev *event.T) {
	w.once.Do(func() { w.ch <- ev })
}

// WaitForEvent blocks until a client publishes an event the matcher
// accepts, or the timeout elapses. Events already published before the
// call also satisfy the wait. Seeded events never do. Concurrent waiters
// with overlapping matchers each get the event.
func (h *Harness) WaitForEvent(match Matcher, timeout time.Duration) (*event.T, error) {
	w := &waiter{match: match, ch: make(chan *event.T, 1)}
	h.waitMx.Lock()
	h.waiters[w] = struct{}{}
	h.waitMx.Unlock()
	defer func() {
		h.waitMx.Lock()
		delete(h.waiters, w)
		h.waitMx.Unlock()
	}()

	// check the backlog after registering so nothing slips between the
	// scan and the live feed
	h.mx.Lock()
	backlog := make([]*event.T, len(h.published))
	copy(backlog, h.published)
	h.mx.Unlock()
	for _, ev := range backlog {
		if match(ev) {
			w.fire(ev)
			break
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case ev := <-w.ch:
		return ev, nil
	case <-timer.C:
		return nil, ErrTimeout
	}
}

// WaitForKind waits for any published event of the given kind.
func (h *Harness) WaitForKind(k kind.T, timeout time.Duration) (*event.T, error) {
	return h.WaitForEvent(KindMatcher(k), timeout)
}

// WaitForFilter waits for a published event the filter accepts.
func (h *Harness) WaitForFilter(f *filter.T, timeout time.Duration) (*event.T, error) {
	return h.WaitForEvent(FilterMatcher(f), timeout)
}

func (h *Harness) firePublished(ev *event.T) {
	h.waitMx.Lock()
	for w := range h.waiters {
		if w.match(ev) {
			w.fire(ev)
		}
	}
	h.waitMx.Unlock()
}
