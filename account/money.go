package account

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// DefaultCurrency is used for accounts opened without WithCurrency
const DefaultCurrency = "EUR"

// Money is an amount in a given currency
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// NewMoney constructs Money
func NewMoney(amount decimal.Decimal, cur string) Money {
	return Money{Amount: amount, Currency: cur}
}

// Add returns a new Money increased by amount
func (m Money) Add(amount decimal.Decimal) Money {
	return Money{Amount: m.Amount.Add(amount), Currency: m.Currency}
}

// Sub returns a new Money decreased by amount
func (m Money) Sub(amount decimal.Decimal) Money {
	return Money{Amount: m.Amount.Sub(amount), Currency: m.Currency}
}

// Equal compares amounts numerically (1.0 equals 1) and currencies exactly
func (m Money) Equal(o Money) bool {
	return m.Currency == o.Currency && m.Amount.Equal(o.Amount)
}

// String implements fmt.Stringer
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Amount.StringFixed(2), m.Currency)
}

func parseCurrency(code string) (string, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", fmt.Errorf("%w: currency %q: %v", ErrInvalidArgument, code, err)
	}

	return unit.String(), nil
}
