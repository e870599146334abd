package eventstore

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// SubConfig configures SubscribeAll and ReadAll (set using SubOpt)
type SubConfig struct {
	// Offset is the sequence of the last event already seen,
	// reading starts right after it
	Offset       uint64
	BatchSize    int
	PollInterval time.Duration
}

// SubOpt represents a SubscribeAll / ReadAll option
type SubOpt func(*SubConfig)

// WithOffset starts reading after the event with sequence seq
func WithOffset(seq uint64) SubOpt {
	return func(cfg *SubConfig) {
		cfg.Offset = seq
	}
}

// WithBatchSize sets how many events are read from the database at once
func WithBatchSize(size int) SubOpt {
	return func(cfg *SubConfig) {
		cfg.BatchSize = size
	}
}

// WithPollInterval sets how often a subscription polls the database
func WithPollInterval(d time.Duration) SubOpt {
	return func(cfg *SubConfig) {
		cfg.PollInterval = d
	}
}

func newSubConfig(opts []SubOpt) (SubConfig, error) {
	cfg := SubConfig{
		BatchSize:    100,
		PollInterval: 100 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.BatchSize < 1 {
		return SubConfig{}, fmt.Errorf("batch size should be at least 1, got %d", cfg.BatchSize)
	}

	if cfg.PollInterval <= 0 {
		return SubConfig{}, fmt.Errorf("poll interval should be positive, got %s", cfg.PollInterval)
	}

	return cfg, nil
}

// Subscription streams the event log as it grows.
//
// Err produces io.EOF each time the subscription has caught up with the
// log. Another io.EOF is only sent once the previous one was read, so
// reading Err is how a slow client applies backpressure. Any other error ends the
// subscription: ErrSubscriptionClosedByClient after Close, ctx.Err() when
// the context is done, or the database/decoding error that stopped it.
type Subscription struct {
	EventData chan StoredEvent
	Err       chan error

	done chan struct{}
	once *sync.Once
}

// Close stops the subscription. It is safe to call more than once and
// does not block, even if the client stopped reading
func (s Subscription) Close() {
	if s.done == nil {
		return
	}

	s.once.Do(func() { close(s.done) })
}

// SubscribeAll subscribes to the whole log (or the part after WithOffset)
func (es *EventStore) SubscribeAll(ctx context.Context, opts ...SubOpt) (Subscription, error) {
	cfg, err := newSubConfig(opts)
	if err != nil {
		return Subscription{}, err
	}

	sub := Subscription{
		EventData: make(chan StoredEvent, cfg.BatchSize),
		Err:       make(chan error, 1),
		done:      make(chan struct{}),
		once:      &sync.Once{},
	}

	go sub.poll(ctx, es, cfg)

	return sub, nil
}

func (s Subscription) poll(ctx context.Context, es *EventStore, cfg SubConfig) {
	tick := time.NewTicker(cfg.PollInterval)
	defer tick.Stop()

	offset := cfg.Offset

	for {
		if err := s.wait(ctx, tick.C); err != nil {
			s.stop(err)

			return
		}

		batch, err := es.readBatch(ctx, offset, cfg.BatchSize)
		if err != nil {
			s.stop(err)

			return
		}

		if len(batch) == 0 {
			if err := s.caughtUp(ctx); err != nil {
				s.stop(err)

				return
			}

			continue
		}

		for _, evt := range batch {
			if err := s.emit(ctx, evt); err != nil {
				s.stop(err)

				return
			}
		}

		offset = batch[len(batch)-1].Sequence
	}
}

func (s Subscription) wait(ctx context.Context, tick <-chan time.Time) error {
	select {
	case <-tick:
		return nil
	case <-s.done:
		return ErrSubscriptionClosedByClient
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s Subscription) emit(ctx context.Context, evt StoredEvent) error {
	select {
	case s.EventData <- evt:
		return nil
	case <-s.done:
		return ErrSubscriptionClosedByClient
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s Subscription) caughtUp(ctx context.Context) error {
	select {
	case s.Err <- io.EOF:
		return nil
	case <-s.done:
		return ErrSubscriptionClosedByClient
	case <-ctx.Done():
		return ctx.Err()
	}
}

// stop reports the error the subscription ended with. poll is the only
// writer of Err, so once an unread io.EOF is dropped the send can't block
func (s Subscription) stop(err error) {
	select {
	case <-s.Err:
	default:
	}

	s.Err <- err
}
