// Package ambar projects account events pushed by an Ambar data destination
// (https://docs.ambar.cloud). Ambar streams the rows of the event store's
// account_events table, each one is decoded back into an
// eventstore.StoredEvent and handed to a projection
package ambar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aneshas/bankaccount/account"
	"github.com/aneshas/bankaccount/eventstore"
	"github.com/relvacode/iso8601"
)

var (
	// ErrRetry asks ambar to deliver the record again,
	// eg. the payload could not be decoded
	ErrRetry = errors.New("retry")

	// ErrNoRetry acknowledges a record the projection failed on.
	// Projections wrap it when the failure should only be logged
	ErrNoRetry = errors.New("no retry")

	// ErrKeepItGoing reports the failure to ambar and moves on to the next record
	ErrKeepItGoing = errors.New("keep it going")
)

// Decoder decodes stored account events (see eventstore.JSONEncoder)
type Decoder interface {
	Decode(eventstore.Encoded) (account.Event, error)
}

// New constructs a new Ambar projection handler
func New(dec Decoder) *Ambar {
	return &Ambar{dec: dec}
}

// Ambar is a projection handler for records pushed by ambar
type Ambar struct {
	dec Decoder
}

// Req is the ambar projection request
type Req struct {
	Payload Payload `json:"payload"`
}

// Payload is a row of the account_events table as pushed by ambar
type Payload struct {
	EventID       string  `json:"event_id"`
	Sequence      uint64  `json:"sequence"`
	StreamID      string  `json:"stream_id"`
	StreamVersion int     `json:"stream_version"`
	Type          string  `json:"type"`
	Data          string  `json:"data"`
	OccurredOn    string  `json:"occurred_on"`
	CausationID   *string `json:"causation_id"`
	CorrelationID *string `json:"correlation_id"`
	Meta          *string `json:"meta"`
}

// Project decodes the pushed record and projects it.
// Records of event types the decoder does not know are skipped, any other
// decoding failure is returned wrapped with ErrRetry
func (a *Ambar) Project(_ context.Context, projection eventstore.Projection, data []byte) error {
	var req Req

	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("%w: malformed request: %v", ErrRetry, err)
	}

	evt, err := req.Payload.stored(a.dec)
	if errors.Is(err, eventstore.ErrEventNotRegistered) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("%w: event %s: %v", ErrRetry, req.Payload.EventID, err)
	}

	return projection(evt)
}

func (p Payload) stored(dec Decoder) (eventstore.StoredEvent, error) {
	evt, err := dec.Decode(eventstore.Encoded{Type: p.Type, Data: p.Data})
	if err != nil {
		return eventstore.StoredEvent{}, err
	}

	stream, err := account.ParseID(p.StreamID)
	if err != nil {
		return eventstore.StoredEvent{}, err
	}

	if evt.StreamID() != stream {
		return eventstore.StoredEvent{}, fmt.Errorf("%s belongs to account %s, not %s", p.Type, evt.StreamID(), stream)
	}

	occurredOn, err := iso8601.ParseString(p.OccurredOn)
	if err != nil {
		return eventstore.StoredEvent{}, fmt.Errorf("occurred on: %w", err)
	}

	stored := eventstore.StoredEvent{
		Event:         evt,
		ID:            p.EventID,
		Sequence:      p.Sequence,
		Type:          p.Type,
		StreamID:      stream,
		StreamVersion: p.StreamVersion,
		OccurredOn:    occurredOn,
	}

	if p.CausationID != nil {
		stored.CausationID = *p.CausationID
	}

	if p.CorrelationID != nil {
		stored.CorrelationID = *p.CorrelationID
	}

	if p.Meta != nil {
		if err := json.Unmarshal([]byte(*p.Meta), &stored.Meta); err != nil {
			return eventstore.StoredEvent{}, fmt.Errorf("meta: %w", err)
		}
	}

	return stored, nil
}
