// Package eventstore is an append only log of account events kept in sqlite
// or postgres (gorm). Every account has its own stream keyed by the account
// id and versioned from 1. The whole log can be read or subscribed to in the
// order events were appended, which is how projections are built
package eventstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aneshas/bankaccount/account"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	// ErrStreamNotFound indicates that no events were appended to the account stream
	ErrStreamNotFound = errors.New("stream not found")

	// ErrConcurrencyCheckFailed indicates that the stream moved past the expected version
	ErrConcurrencyCheckFailed = errors.New("optimistic concurrency check failed: stream version exists")

	// ErrSubscriptionClosedByClient is produced by sub.Err after sub.Close()
	ErrSubscriptionClosedByClient = errors.New("subscription closed by client")

	// ErrEventNotRegistered is returned by the encoder for event types it does not know about
	ErrEventNotRegistered = errors.New("event not registered")
)

// Encoded is the stored form of an event and the name it is registered under
type Encoded struct {
	Type string
	Data string
}

// Encoder converts account events to and from their stored form
type Encoder interface {
	Encode(account.Event) (Encoded, error)
	Decode(Encoded) (account.Event, error)
}

// SQLite returns the dialector of a sqlite database file
func SQLite(path string) gorm.Dialector { return sqlite.Open(path) }

// Postgres returns the dialector of a postgres database (pgx driver)
func Postgres(dsn string) gorm.Dialector { return postgres.Open(dsn) }

// Open opens the event store on top of db and creates the event table
// if it does not exist
func Open(db gorm.Dialector, enc Encoder) (*EventStore, error) {
	if db == nil {
		return nil, errors.New("database must be provided")
	}

	if enc == nil {
		return nil, errors.New("encoder must be provided")
	}

	conn, err := gorm.Open(db, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open event store: %w", err)
	}

	if err := conn.AutoMigrate(&record{}); err != nil {
		return nil, fmt.Errorf("migrate event store: %w", err)
	}

	return &EventStore{db: conn, enc: enc}, nil
}

// EventStore is the gorm backed account event log
type EventStore struct {
	db  *gorm.DB
	enc Encoder
}

// Close closes the underlying sql connection
func (es *EventStore) Close() error {
	sqlDB, err := es.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// record is a row of the account_events table. Ambar pushes these rows
// as they are (see package ambar)
type record struct {
	Sequence      uint64 `gorm:"primaryKey;autoIncrement"`
	EventID       string `gorm:"uniqueIndex"`
	StreamID      string `gorm:"uniqueIndex:idx_stream_version"`
	StreamVersion int    `gorm:"uniqueIndex:idx_stream_version"`
	Type          string
	Data          string
	OccurredOn    time.Time
	CausationID   *string
	CorrelationID *string
	Meta          *string
}

func (record) TableName() string { return "account_events" }

// AppendStream appends events to the stream of account id.
// expectedVersion is the number of events the caller has seen in the
// stream (0 for a new account). If another writer appended in the
// meantime ErrConcurrencyCheckFailed is returned and nothing is stored.
// Every event must belong to the account
func (es *EventStore) AppendStream(ctx context.Context, id account.ID, expectedVersion int, events []Envelope) error {
	if id.IsZero() {
		return errors.New("account id must be provided")
	}

	if expectedVersion < 0 {
		return fmt.Errorf("expected version can't be negative: %d", expectedVersion)
	}

	if len(events) == 0 {
		return errors.New("at least one event must be provided")
	}

	records := make([]record, 0, len(events))

	for i, env := range events {
		rec, err := es.toRecord(id, expectedVersion+i+1, env)
		if err != nil {
			return err
		}

		records = append(records, rec)
	}

	err := es.db.WithContext(ctx).Create(&records).Error
	if isDuplicate(err) {
		return fmt.Errorf("%w: account %s at version %d", ErrConcurrencyCheckFailed, id, expectedVersion)
	}

	return err
}

func (es *EventStore) toRecord(stream account.ID, version int, env Envelope) (record, error) {
	if env.Event == nil {
		return record{}, errors.New("event must be provided")
	}

	if env.Event.StreamID() != stream {
		return record{}, fmt.Errorf("event of account %s can't be appended to %s", env.Event.StreamID(), stream)
	}

	encoded, err := es.enc.Encode(env.Event)
	if err != nil {
		return record{}, fmt.Errorf("encode %T: %w", env.Event, err)
	}

	rec := record{
		EventID:       env.ID,
		StreamID:      stream.String(),
		StreamVersion: version,
		Type:          encoded.Type,
		Data:          encoded.Data,
		OccurredOn:    env.Event.OccurredOn().UTC(),
		CausationID:   optional(env.CausationID),
		CorrelationID: optional(env.CorrelationID),
	}

	if rec.EventID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return record{}, err
		}

		rec.EventID = id.String()
	}

	if rec.OccurredOn.IsZero() {
		rec.OccurredOn = time.Now().UTC()
	}

	if len(env.Meta) > 0 {
		meta, err := json.Marshal(env.Meta)
		if err != nil {
			return record{}, err
		}

		rec.Meta = optional(string(meta))
	}

	return rec, nil
}

// ReadStream reads all events of account id ordered by stream version.
// ErrStreamNotFound is returned if there are none
func (es *EventStore) ReadStream(ctx context.Context, id account.ID) ([]StoredEvent, error) {
	if id.IsZero() {
		return nil, errors.New("account id must be provided")
	}

	var records []record

	err := es.db.
		WithContext(ctx).
		Where("stream_id = ?", id.String()).
		Order("stream_version").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: account %s", ErrStreamNotFound, id)
	}

	return es.decode(records)
}

// ReadAll reads the whole log (or the part after WithOffset) in batches
// of WithBatchSize and returns it in append order
func (es *EventStore) ReadAll(ctx context.Context, opts ...SubOpt) ([]StoredEvent, error) {
	cfg, err := newSubConfig(opts)
	if err != nil {
		return nil, err
	}

	var all []StoredEvent

	for {
		batch, err := es.readBatch(ctx, cfg.Offset, cfg.BatchSize)
		if err != nil {
			return nil, err
		}

		if len(batch) == 0 {
			return all, nil
		}

		all = append(all, batch...)
		cfg.Offset = batch[len(batch)-1].Sequence
	}
}

func (es *EventStore) readBatch(ctx context.Context, after uint64, limit int) ([]StoredEvent, error) {
	var records []record

	err := es.db.
		WithContext(ctx).
		Where("sequence > ?", after).
		Order("sequence").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	return es.decode(records)
}

func (es *EventStore) decode(records []record) ([]StoredEvent, error) {
	out := make([]StoredEvent, 0, len(records))

	for _, rec := range records {
		evt, err := rec.stored(es.enc)
		if err != nil {
			return nil, err
		}

		out = append(out, evt)
	}

	return out, nil
}

func (r record) stored(enc Encoder) (StoredEvent, error) {
	evt, err := enc.Decode(Encoded{Type: r.Type, Data: r.Data})
	if err != nil {
		return StoredEvent{}, fmt.Errorf("decode event %s: %w", r.EventID, err)
	}

	stream, err := account.ParseID(r.StreamID)
	if err != nil {
		return StoredEvent{}, fmt.Errorf("event %s: %w", r.EventID, err)
	}

	stored := StoredEvent{
		Event:         evt,
		ID:            r.EventID,
		Sequence:      r.Sequence,
		Type:          r.Type,
		StreamID:      stream,
		StreamVersion: r.StreamVersion,
		OccurredOn:    r.OccurredOn,
		CausationID:   deref(r.CausationID),
		CorrelationID: deref(r.CorrelationID),
	}

	if r.Meta != nil {
		if err := json.Unmarshal([]byte(*r.Meta), &stored.Meta); err != nil {
			return StoredEvent{}, fmt.Errorf("event %s meta: %w", r.EventID, err)
		}
	}

	return stored, nil
}

func isDuplicate(err error) bool {
	var sqliteErr sqlite3.Error

	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}

	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
