// Package eventstore defines the persistence interface a relay serves
// queries from.
package eventstore

import (
	"context"
	"errors"

	"github.com/gitnostr/simulatr/pkg/nostr/event"
	"github.com/gitnostr/simulatr/pkg/nostr/filter"
	"github.com/gitnostr/simulatr/pkg/nostr/kind"
)

// ErrDupEvent is returned by SaveEvent when the event id is already
// stored. Relays acknowledge duplicates as accepted.
var ErrDupEvent = errors.New("duplicate: event already stored")

// Store is the persistence layer for nostr events handled by a relay.
type Store interface {
	// Init is called once before use, allowing a store to initialize its
	// internal resources.
	Init() (err error)
	// Close must be called after you're done using the store, to free up
	// resources.
	Close()
	// SaveEvent persists an event. Replaceable and addressable kinds
	// resolve their canonical slot here; the losing event stays in the
	// log. Returns ErrDupEvent when the id is already present.
	SaveEvent(c context.Context, ev *event.T) (err error)
	// QueryEvents is invoked upon a client's REQ. It returns a channel
	// with the matching events; the channel is closed after the events
	// are all delivered. A filter matching nothing yields a closed empty
	// channel, never an error.
	QueryEvents(c context.Context, f *filter.T) (ch event.C, err error)
	// CountEvents performs the same work as QueryEvents but only returns
	// the count of matching events.
	CountEvents(c context.Context, f *filter.T) (count int, err error)
	// GetByAddress returns the current canonical event for an addressable
	// slot, nil when the slot is empty.
	GetByAddress(k kind.T, pubkey, identifier string) (ev *event.T)
}
