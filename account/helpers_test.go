package account_test

import (
	"testing"
	"time"

	"github.com/aneshas/bankaccount/account"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	accountID = account.ID{UUID: uuid.MustParse("0190a0f6-7a3e-7cc1-8b1f-3d2f4c5e6a7b")}
	otherID   = account.ID{UUID: uuid.MustParse("0190a0f6-7a3e-7cc1-8b1f-000000000002")}
	holder    = account.CustomerID{UUID: uuid.MustParse("5b6e1c1e-2b8a-4d6c-9f1e-7a1b2c3d4e5f")}

	fixedTime = time.Date(2024, 10, 12, 20, 7, 22, 0, time.UTC)
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func fixedOpts() []account.Option {
	return []account.Option{
		account.WithIDGenerator(func() (account.ID, error) { return accountID, nil }),
		account.WithClock(func() time.Time { return fixedTime }),
	}
}

func open(t *testing.T, deposit string) account.Account {
	t.Helper()

	acc, err := account.Open(holder, dec(deposit), fixedOpts()...)
	if err != nil {
		t.Fatal(err)
	}

	return acc
}

func closed(t *testing.T) account.Account {
	t.Helper()

	acc, err := open(t, "0").Close("moving abroad")
	if err != nil {
		t.Fatal(err)
	}

	return acc
}
