// Package balances provides an in memory account balance read model
// built by projecting account events
package balances

import (
	"fmt"
	"sync"

	"github.com/aneshas/bankaccount/account"
	"github.com/aneshas/bankaccount/eventstore"
)

// Summary is the read model view of a single account
type Summary struct {
	AccountID     string        `json:"account_id"`
	Holder        string        `json:"holder"`
	Balance       account.Money `json:"balance"`
	Active        bool          `json:"active"`
	StreamVersion int           `json:"stream_version"`
}

// NewView constructs an empty balance view
func NewView() *View {
	return &View{
		accounts: make(map[string]entry),
	}
}

// View holds the latest known state of every projected account.
// It is safe for concurrent use
type View struct {
	mu       sync.RWMutex
	accounts map[string]entry
}

type entry struct {
	acc     account.Account
	version int
}

// Projection returns the projection keeping the view up to date.
// Events at or below the stream version already projected are skipped,
// which makes the projection safe to rerun from the start of the log
func (v *View) Projection() eventstore.Projection {
	return func(data eventstore.StoredEvent) error {
		if data.Event == nil {
			return fmt.Errorf("event %s (seq %d) has no payload", data.ID, data.Sequence)
		}

		return v.apply(data.StreamVersion, data.Event)
	}
}

// Restore projects events read from the store in one go, eg. the whole log
// at startup, and returns the sequence of the last one. Live projection
// continues after it (see eventstore.WithOffset)
func (v *View) Restore(events []eventstore.StoredEvent) (uint64, error) {
	project := v.Projection()

	var last uint64

	for _, evt := range events {
		if err := project(evt); err != nil {
			return last, err
		}

		last = evt.Sequence
	}

	return last, nil
}

func (v *View) apply(version int, evt account.Event) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	key := evt.StreamID().String()

	e := v.accounts[key]

	if version != 0 && version <= e.version {
		return nil
	}

	if version != 0 && version != e.version+1 {
		return fmt.Errorf("account %s: stream version gap: expected %d got %d", key, e.version+1, version)
	}

	e.acc = account.Fold(e.acc, evt).Commit()
	e.version++

	v.accounts[key] = e

	return nil
}

// Get returns the summary of an account
func (v *View) Get(id account.ID) (Summary, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	e, ok := v.accounts[id.String()]
	if !ok {
		return Summary{}, false
	}

	return summarize(e), true
}

// All returns summaries of all projected accounts
func (v *View) All() []Summary {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]Summary, 0, len(v.accounts))

	for _, e := range v.accounts {
		out = append(out, summarize(e))
	}

	return out
}

func summarize(e entry) Summary {
	return Summary{
		AccountID:     e.acc.ID().String(),
		Holder:        e.acc.Holder().String(),
		Balance:       e.acc.Balance(),
		Active:        e.acc.Active(),
		StreamVersion: e.version,
	}
}
