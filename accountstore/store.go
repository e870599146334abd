// Package accountstore loads and saves account aggregates from/to an event store
package accountstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/aneshas/bankaccount/account"
	"github.com/aneshas/bankaccount/eventstore"
)

var (
	// ErrAccountNotFound is returned when the account stream does not exist
	ErrAccountNotFound = errors.New("account not found")

	// ErrUnexpectedEvent is returned when a stream holds an event
	// which belongs to another account
	ErrUnexpectedEvent = errors.New("unexpected event in account stream")
)

// EventStore represents event store
type EventStore interface {
	AppendStream(ctx context.Context, id account.ID, version int, events []eventstore.Envelope) error
	ReadStream(ctx context.Context, id account.ID) ([]eventstore.StoredEvent, error)
}

// NewStore constructs new event sourced account store.
// opts are passed to account.ReplayEvents when an account is loaded
// (eg. account.WithObserver to log replay progress)
func NewStore(eventStore EventStore, opts ...account.Option) *Store {
	return &Store{
		eventStore: eventStore,
		opts:       opts,
	}
}

// Store represents event sourced account store
type Store struct {
	eventStore EventStore
	opts       []account.Option
}

// Save appends uncommitted account events to the account stream and
// returns the account with the events committed.
// Optimistic concurrency is left to the event store, which is expected to
// reject the append if the stream moved past acc.Version()
func (s *Store) Save(ctx context.Context, acc account.Account) (account.Account, error) {
	changes := acc.Changes()

	if len(changes) == 0 {
		return acc, nil
	}

	events := make([]eventstore.Envelope, 0, len(changes))

	for _, evt := range changes {
		events = append(events, eventstore.Envelope{
			Event: evt,

			// Optional - set through context
			CausationID:   causationIDFromCtx(ctx),
			CorrelationID: correlationIDFromCtx(ctx),
			Meta:          metaFromCtx(ctx),
		})
	}

	err := s.eventStore.AppendStream(ctx, acc.ID(), acc.Version(), events)
	if err != nil {
		return account.Account{}, err
	}

	return acc.Commit(), nil
}

// ByID reads account events by its id and replays them into the account
func (s *Store) ByID(ctx context.Context, id account.ID) (account.Account, error) {
	storedEvents, err := s.eventStore.ReadStream(ctx, id)
	if err != nil {
		if errors.Is(err, eventstore.ErrStreamNotFound) {
			return account.Account{}, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
		}

		return account.Account{}, err
	}

	events := make([]account.Event, 0, len(storedEvents))

	for _, stored := range storedEvents {
		if stored.Event == nil || stored.Event.StreamID() != id {
			return account.Account{}, fmt.Errorf("%w: %s (%s) in stream %s", ErrUnexpectedEvent, stored.Type, stored.ID, id)
		}

		events = append(events, stored.Event)
	}

	acc := account.ReplayEvents(events, s.opts...)

	if acc.IsZero() {
		return account.Account{}, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
	}

	return acc, nil
}
