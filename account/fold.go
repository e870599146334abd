package account

import "fmt"

// Fold applies a single event to the account and returns the next state.
//
// Fold is pure: the same account and event always produce the same result
// and the input account is left untouched. It does not check invariants,
// that is the job of the commands which produced the event in the first place.
// The event is always appended to the history.
func Fold(a Account, e Event) Account {
	switch evt := e.(type) {
	case AccountOpened:
		a.id = evt.AccountID
		a.holder = evt.AccountHolder
		a.balance = NewMoney(evt.InitialDeposit, evt.Currency)
		a.active = true

	case MoneyDeposited:
		a.balance = a.balance.Add(evt.Amount)

	case MoneyWithdrawn:
		a.balance = a.balance.Sub(evt.Amount)

	case MoneyTransferred:
		// only the debit side, crediting the target is not this account's concern
		a.balance = a.balance.Sub(evt.Amount)

	case AccountClosed:
		a.active = false

	default:
		panic(fmt.Errorf("%w: %T", ErrUnknownEvent, e))
	}

	n := len(a.events)

	// full slice expression forces a copy so folded values never share history
	a.events = append(a.events[:n:n], e)

	return a
}
