// Package testutil provides ambar payloads carrying account events for tests
package testutil

import (
	"encoding/json"
	"testing"

	"github.com/aneshas/bankaccount/account"
	"github.com/aneshas/bankaccount/ambar"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountID is the stream the test event belongs to
var AccountID = account.ID{UUID: uuid.MustParse("0190a0f6-7a3e-7cc1-8b1f-3d2f4c5e6a7b")}

// Event is the account event carried by AmbarPayload
var Event = account.AccountOpened{
	AccountID:      AccountID,
	AccountHolder:  account.CustomerID{UUID: uuid.MustParse("5b6e1c1e-2b8a-4d6c-9f1e-7a1b2c3d4e5f")},
	InitialDeposit: decimal.RequireFromString("100"),
	Currency:       "EUR",
}

// AmbarPayload is a test payload
var AmbarPayload = ambar.Payload{
	EventID:       "event-id",
	Sequence:      1,
	StreamID:      AccountID.String(),
	StreamVersion: 1,
	Type:          "AccountOpened",
	Data:          eventData(),
	OccurredOn:    "2024-10-12T20:07:22.436271+00",
}

func eventData() string {
	data, err := json.Marshal(Event)
	if err != nil {
		panic(err)
	}

	return string(data)
}

// Payload wraps p in an ambar request body
func Payload(t *testing.T, p ambar.Payload) []byte {
	t.Helper()

	data, err := json.Marshal(ambar.Req{
		Payload: p,
	})
	if err != nil {
		t.Fatal(err)
	}

	return data
}
