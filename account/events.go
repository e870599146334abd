package account

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event is implemented by the closed set of account domain events.
// Events are plain values and carry only what is needed to replay
// the state transition they describe.
type Event interface {
	// StreamID returns the id of the account stream the event belongs to
	StreamID() ID

	// OccurredOn returns the time the event was created at.
	// It is informational only and never affects folded state
	OccurredOn() time.Time

	isAccountEvent()
}

// AccountOpened domain event indicates that new account has been opened.
// It is always the first event of an account stream
type AccountOpened struct {
	AccountID      ID              `json:"account_id"`
	AccountHolder  CustomerID      `json:"account_holder"`
	InitialDeposit decimal.Decimal `json:"initial_deposit"`
	Currency       string          `json:"currency"`
	At             time.Time       `json:"occurred_on"`
}

// MoneyDeposited domain event indicates that a deposit has been made
type MoneyDeposited struct {
	AccountID   ID              `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	At          time.Time       `json:"occurred_on"`
}

// MoneyWithdrawn domain event indicates that money has been withdrawn
type MoneyWithdrawn struct {
	AccountID ID              `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
	At        time.Time       `json:"occurred_on"`
}

// MoneyTransferred domain event records the debit side of a transfer
// to another account
type MoneyTransferred struct {
	AccountID   ID              `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	ToAccountID ID              `json:"to_account_id"`
	Description string          `json:"description"`
	At          time.Time       `json:"occurred_on"`
}

// AccountClosed domain event indicates that the account has been closed.
// No events may follow it
type AccountClosed struct {
	AccountID ID        `json:"account_id"`
	Reason    string    `json:"reason"`
	At        time.Time `json:"occurred_on"`
}

func (e AccountOpened) StreamID() ID    { return e.AccountID }
func (e MoneyDeposited) StreamID() ID   { return e.AccountID }
func (e MoneyWithdrawn) StreamID() ID   { return e.AccountID }
func (e MoneyTransferred) StreamID() ID { return e.AccountID }
func (e AccountClosed) StreamID() ID    { return e.AccountID }

func (e AccountOpened) OccurredOn() time.Time    { return e.At }
func (e MoneyDeposited) OccurredOn() time.Time   { return e.At }
func (e MoneyWithdrawn) OccurredOn() time.Time   { return e.At }
func (e MoneyTransferred) OccurredOn() time.Time { return e.At }
func (e AccountClosed) OccurredOn() time.Time    { return e.At }

func (AccountOpened) isAccountEvent()    {}
func (MoneyDeposited) isAccountEvent()   {}
func (MoneyWithdrawn) isAccountEvent()   {}
func (MoneyTransferred) isAccountEvent() {}
func (AccountClosed) isAccountEvent()    {}

// Events returns a zero value of every account event type.
// Used to register the events with an encoder, eg:
//
//	eventstore.NewJSONEncoder(account.Events()...)
func Events() []Event {
	return []Event{
		AccountOpened{},
		MoneyDeposited{},
		MoneyWithdrawn{},
		MoneyTransferred{},
		AccountClosed{},
	}
}
