package accountstore_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/aneshas/bankaccount/account"
	"github.com/aneshas/bankaccount/accountstore"
	"github.com/aneshas/bankaccount/eventstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldLoadAndPersistAccount(t *testing.T) {
	var es eventStore

	es.storedEvents = stored(
		account.AccountOpened{AccountID: accID, AccountHolder: holder, InitialDeposit: dec("100"), Currency: "EUR", At: at},
	)

	exec := accountstore.NewExecutor(accountstore.NewStore(&es))

	acc, err := exec(context.Background(), accID, func(acc account.Account) (account.Account, error) {
		return acc.Withdraw(dec("40"))
	})

	require.NoError(t, err)
	assert.True(t, acc.Balance().Amount.Equal(dec("60")))
	assert.Equal(t, 2, acc.Version())

	assert.Equal(t, 1, es.version)
	assert.Equal(t, accID, es.id)
	require.Len(t, es.eventsToStore, 1)
	assert.IsType(t, account.MoneyWithdrawn{}, es.eventsToStore[0].Event)
}

func TestShouldReportExecError(t *testing.T) {
	var es eventStore

	es.storedEvents = stored(
		account.AccountOpened{AccountID: accID, AccountHolder: holder, InitialDeposit: dec("100"), Currency: "EUR", At: at},
	)

	exec := accountstore.NewExecutor(accountstore.NewStore(&es))

	wantErr := fmt.Errorf("error")

	_, err := exec(context.Background(), accID, func(acc account.Account) (account.Account, error) {
		return account.Account{}, wantErr
	})

	assert.ErrorIs(t, err, wantErr)
	assert.Nil(t, es.eventsToStore)
}

func TestShouldNotSaveRejectedCommand(t *testing.T) {
	var es eventStore

	es.storedEvents = stored(
		account.AccountOpened{AccountID: accID, AccountHolder: holder, InitialDeposit: dec("100"), Currency: "EUR", At: at},
	)

	_, err := accountstore.Exec(context.Background(), accountstore.NewStore(&es), accID, func(acc account.Account) (account.Account, error) {
		return acc.Close("done")
	})

	assert.ErrorIs(t, err, account.ErrInvalidOperation)
	assert.Nil(t, es.eventsToStore)
}

func TestShouldReportAccountNotFoundError(t *testing.T) {
	es := eventStore{wantErr: eventstore.ErrStreamNotFound}

	exec := accountstore.NewExecutor(accountstore.NewStore(&es))

	_, err := exec(context.Background(), accID, func(acc account.Account) (account.Account, error) {
		return acc, nil
	})

	assert.ErrorIs(t, err, accountstore.ErrAccountNotFound)
}
