package accountstore

import (
	"context"

	"github.com/aneshas/bankaccount/account"
)

// Command runs an account command, eg:
//
//	func(acc account.Account) (account.Account, error) {
//		return acc.Deposit(amount, "salary")
//	}
type Command func(acc account.Account) (account.Account, error)

// NewExecutor creates a new executor for the given account store.
func NewExecutor(store *Store) Executor {
	return func(ctx context.Context, id account.ID, cmd Command) (account.Account, error) {
		return Exec(ctx, store, id, cmd)
	}
}

// Executor loads an account from the store, runs the command and saves the account back to the store.
type Executor func(ctx context.Context, id account.ID, cmd Command) (account.Account, error)

// Exec loads an account from the store, runs the command and saves the account back to the store.
// Nothing is saved if the command fails
func Exec(ctx context.Context, store *Store, id account.ID, cmd Command) (account.Account, error) {
	acc, err := store.ByID(ctx, id)
	if err != nil {
		return account.Account{}, err
	}

	acc, err = cmd(acc)
	if err != nil {
		return account.Account{}, err
	}

	return store.Save(ctx, acc)
}
