package account

import "time"

// Clock supplies event timestamps
type Clock func() time.Time

// IDGenerator supplies the id of a newly opened account
type IDGenerator func() (ID, error)

// Observer is notified after each replayed event has been folded
// into the account. It receives the account state after the fold
type Observer func(Account, Event)

// Cfg represents account configuration (configure using Option)
type Cfg struct {
	Clock       Clock
	IDGenerator IDGenerator
	Currency    string
	Observer    Observer
}

// Option represents account configuration option
type Option func(Cfg) Cfg

// WithClock sets the clock used to timestamp events produced by commands
func WithClock(c Clock) Option {
	return func(cfg Cfg) Cfg {
		cfg.Clock = c

		return cfg
	}
}

// WithIDGenerator sets the id generator used by Open
func WithIDGenerator(g IDGenerator) Option {
	return func(cfg Cfg) Cfg {
		cfg.IDGenerator = g

		return cfg
	}
}

// WithCurrency sets the ISO 4217 currency of an account opened with Open
func WithCurrency(code string) Option {
	return func(cfg Cfg) Cfg {
		cfg.Currency = code

		return cfg
	}
}

// WithObserver registers an observer called by ReplayEvents after every fold step
func WithObserver(o Observer) Option {
	return func(cfg Cfg) Cfg {
		cfg.Observer = o

		return cfg
	}
}

func newCfg(opts []Option) Cfg {
	cfg := Cfg{
		IDGenerator: NewID,
		Currency:    DefaultCurrency,
	}

	for _, opt := range opts {
		cfg = opt(cfg)
	}

	return cfg
}
