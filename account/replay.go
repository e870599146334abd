package account

// ReplayEvents rebuilds an account by folding events, in the given order,
// into a blank account. The events are trusted: no command validation is run,
// so the sequence must be one that was produced by the commands.
//
// An empty sequence yields a blank account (see Account.IsZero) which
// callers should treat as "no account".
// All replayed events count as committed.
//
// Supported options: WithObserver, WithClock.
func ReplayEvents(events []Event, opts ...Option) Account {
	cfg := newCfg(opts)

	a := Account{clock: cfg.Clock}

	for _, evt := range events {
		a = Fold(a, evt)

		if cfg.Observer != nil {
			cfg.Observer(a, evt)
		}
	}

	return a.Commit()
}
