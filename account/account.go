// Package account implements a bank account as an event sourced aggregate.
//
// Account is an immutable value. Commands (Deposit, Withdraw, TransferTo, Close)
// validate the request against current state and, if it is legal, produce
// exactly one event which is folded into a new Account value. A rejected
// command returns an error and leaves the receiver as it was.
//
// The same Fold is used by ReplayEvents to rebuild an account from its
// stored history.
package account

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Account represents an account aggregate
type Account struct {
	id      ID
	holder  CustomerID
	balance Money
	active  bool

	events  []Event
	version int

	clock Clock
}

// Open opens a new account for the holder with the initial deposit.
// Opening with a zero deposit is allowed.
// The account id and event timestamp are taken from the configured
// IDGenerator and Clock (see WithIDGenerator and WithClock)
func Open(holder CustomerID, initialDeposit decimal.Decimal, opts ...Option) (Account, error) {
	if initialDeposit.IsNegative() {
		return Account{}, fmt.Errorf("%w: initial deposit can't be negative", ErrInvalidArgument)
	}

	cfg := newCfg(opts)

	cur, err := parseCurrency(cfg.Currency)
	if err != nil {
		return Account{}, err
	}

	id, err := cfg.IDGenerator()
	if err != nil {
		return Account{}, fmt.Errorf("generate account id: %w", err)
	}

	acc := Account{clock: cfg.Clock}

	return acc.apply(AccountOpened{
		AccountID:      id,
		AccountHolder:  holder,
		InitialDeposit: initialDeposit,
		Currency:       cur,
		At:             acc.now(),
	}), nil
}

// Deposit money
func (a Account) Deposit(amount decimal.Decimal, description string) (Account, error) {
	if err := a.mustBeActive(); err != nil {
		return Account{}, err
	}

	if !amount.IsPositive() {
		return Account{}, fmt.Errorf("%w: deposit must be positive", ErrInvalidArgument)
	}

	return a.apply(MoneyDeposited{
		AccountID:   a.id,
		Amount:      amount,
		Description: description,
		At:          a.now(),
	}), nil
}

// Withdraw money
func (a Account) Withdraw(amount decimal.Decimal) (Account, error) {
	if err := a.mustBeActive(); err != nil {
		return Account{}, err
	}

	if !amount.IsPositive() {
		return Account{}, fmt.Errorf("%w: withdrawal must be positive", ErrInvalidArgument)
	}

	if err := a.mustCover(amount); err != nil {
		return Account{}, err
	}

	return a.apply(MoneyWithdrawn{
		AccountID: a.id,
		Amount:    amount,
		At:        a.now(),
	}), nil
}

// TransferTo transfers money to another account.
// Only the debit of this account is recorded
func (a Account) TransferTo(to ID, amount decimal.Decimal, description string) (Account, error) {
	if err := a.mustBeActive(); err != nil {
		return Account{}, err
	}

	if !amount.IsPositive() {
		return Account{}, fmt.Errorf("%w: transfer must be positive", ErrInvalidArgument)
	}

	if err := a.mustCover(amount); err != nil {
		return Account{}, err
	}

	return a.apply(MoneyTransferred{
		AccountID:   a.id,
		Amount:      amount,
		ToAccountID: to,
		Description: description,
		At:          a.now(),
	}), nil
}

// Close closes the account. Only accounts with zero balance can be closed
func (a Account) Close(reason string) (Account, error) {
	if err := a.mustBeActive(); err != nil {
		return Account{}, err
	}

	if !a.balance.Amount.IsZero() {
		return Account{}, fmt.Errorf("%w: can't close with a non zero balance", ErrInvalidOperation)
	}

	return a.apply(AccountClosed{
		AccountID: a.id,
		Reason:    reason,
		At:        a.now(),
	}), nil
}

// ID returns the account id (zero for an account that was never opened)
func (a Account) ID() ID { return a.id }

// Holder returns the account holder
func (a Account) Holder() CustomerID { return a.holder }

// Balance returns the current balance
func (a Account) Balance() Money { return a.balance }

// Currency returns the account currency
func (a Account) Currency() string { return a.balance.Currency }

// Active reports whether the account is open
func (a Account) Active() bool { return a.active }

// IsZero reports whether the account was never opened,
// eg. it was replayed from an empty event sequence
func (a Account) IsZero() bool { return len(a.events) == 0 }

// Events returns a copy of the full ordered event history
func (a Account) Events() []Event {
	return append([]Event{}, a.events...)
}

// Changes returns the events produced by commands since the account
// was replayed or last committed
func (a Account) Changes() []Event {
	return append([]Event{}, a.events[a.version:]...)
}

// Version returns the number of committed events. It is used as the
// expected stream version when appending Changes to an event store
func (a Account) Version() int { return a.version }

// Commit marks all changes as committed
func (a Account) Commit() Account {
	a.version = len(a.events)

	return a
}

func (a Account) apply(e Event) Account {
	return Fold(a, e)
}

func (a Account) mustBeActive() error {
	if !a.active {
		return fmt.Errorf("%w: account is not active", ErrInvalidState)
	}

	return nil
}

func (a Account) mustCover(amount decimal.Decimal) error {
	if a.balance.Amount.LessThan(amount) {
		return fmt.Errorf("%w: insufficient balance", ErrInvalidOperation)
	}

	return nil
}

func (a Account) now() time.Time {
	if a.clock == nil {
		return time.Now().UTC()
	}

	return a.clock()
}
