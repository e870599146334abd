package eventstore

import (
	"time"

	"github.com/aneshas/bankaccount/account"
)

// Envelope is an account event on its way into the store along with the
// tracing data recorded next to it. Only Event is required
type Envelope struct {
	Event account.Event

	// ID defaults to a new UUIDv7
	ID            string
	CausationID   string
	CorrelationID string
	Meta          map[string]string
}

// StoredEvent is an account event read back from the store
type StoredEvent struct {
	Event account.Event

	ID            string
	Sequence      uint64
	Type          string
	StreamID      account.ID
	StreamVersion int
	OccurredOn    time.Time

	CausationID   string
	CorrelationID string
	Meta          map[string]string
}
