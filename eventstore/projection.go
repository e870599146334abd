package eventstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"
)

// EventStreamer is a source of the whole event log.
// EventStore is the implementation used by the service
type EventStreamer interface {
	SubscribeAll(context.Context, ...SubOpt) (Subscription, error)
}

// Projection handles a single event of the log.
// Projections must tolerate seeing an event more than once
type Projection func(StoredEvent) error

// ProjectorOpt represents projector configuration option
type ProjectorOpt func(*Projector)

// WithLogger sets the logger projection errors are reported to
// (log.Default() if not set)
func WithLogger(l *log.Logger) ProjectorOpt {
	return func(p *Projector) {
		p.logger = l
	}
}

// WithSubscriptionOpts sets the options every subscription is created with
// (eg. WithOffset to skip the part of the log a projection already has)
func WithSubscriptionOpts(opts ...SubOpt) ProjectorOpt {
	return func(p *Projector) {
		p.subOpts = opts
	}
}

// WithRetryDelay sets how long a failed projection waits before it is
// resubscribed (1s if not set)
func WithRetryDelay(d time.Duration) ProjectorOpt {
	return func(p *Projector) {
		p.retryDelay = d
	}
}

// NewProjector constructs a Projector
func NewProjector(s EventStreamer, opts ...ProjectorOpt) *Projector {
	p := Projector{
		streamer:   s,
		logger:     log.Default(),
		retryDelay: time.Second,
	}

	for _, opt := range opts {
		opt(&p)
	}

	return &p
}

// Projector feeds the event log to projections, each one from its own
// subscription so a slow or failing projection does not hold back the rest
type Projector struct {
	streamer    EventStreamer
	projections []Projection
	subOpts     []SubOpt
	retryDelay  time.Duration
	logger      *log.Logger
}

// Add registers projections. Add all of them before calling Run
func (p *Projector) Add(projections ...Projection) {
	p.projections = append(p.projections, projections...)
}

// Run blocks until ctx is done or every subscription has been closed.
// When a projection or its subscription fails, the error is logged and
// the projection is resubscribed after the retry delay, right after the
// last event it handled
func (p *Projector) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	for _, projection := range p.projections {
		wg.Add(1)

		go func(projection Projection) {
			defer wg.Done()

			p.follow(ctx, projection)
		}(projection)
	}

	wg.Wait()

	return nil
}

func (p *Projector) follow(ctx context.Context, projection Projection) {
	var last uint64

	for {
		opts := p.subOpts

		if last > 0 {
			opts = append(opts[:len(opts):len(opts)], WithOffset(last))
		}

		sub, err := p.streamer.SubscribeAll(ctx, opts...)
		if err != nil {
			p.logger.Printf("projector: subscribe: %v", err)

			return
		}

		last, err = consume(ctx, sub, projection, last)

		sub.Close()

		if err == nil {
			return
		}

		p.logger.Printf("projector: %v", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(p.retryDelay):
		}
	}
}

// consume projects events until the subscription ends and returns the
// sequence of the last projected event
func consume(ctx context.Context, sub Subscription, projection Projection, last uint64) (uint64, error) {
	for {
		select {
		case evt := <-sub.EventData:
			if err := projection(evt); err != nil {
				return last, fmt.Errorf("project %s (seq %d): %w", evt.Type, evt.Sequence, err)
			}

			last = evt.Sequence

		case err := <-sub.Err:
			switch {
			case err == nil, errors.Is(err, io.EOF):
			case errors.Is(err, ErrSubscriptionClosedByClient),
				errors.Is(err, context.Canceled),
				errors.Is(err, context.DeadlineExceeded):
				return last, nil
			default:
				return last, fmt.Errorf("subscription: %w", err)
			}

		case <-ctx.Done():
			return last, nil
		}
	}
}
