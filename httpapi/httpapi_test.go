package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aneshas/bankaccount/account"
	"github.com/aneshas/bankaccount/accountstore"
	"github.com/aneshas/bankaccount/balances"
	"github.com/aneshas/bankaccount/eventstore"
	"github.com/aneshas/bankaccount/httpapi"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in memory event store which projects appended
// events to the balance view right away
type memStore struct {
	mu      sync.Mutex
	streams map[string][]eventstore.StoredEvent
	project eventstore.Projection
}

func (m *memStore) AppendStream(_ context.Context, id account.ID, version int, events []eventstore.Envelope) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := id.String()

	if len(m.streams[key]) != version {
		return eventstore.ErrConcurrencyCheckFailed
	}

	for _, evt := range events {
		version++

		stored := eventstore.StoredEvent{
			Event:         evt.Event,
			ID:            uuid.NewString(),
			StreamID:      id,
			StreamVersion: version,
			OccurredOn:    evt.Event.OccurredOn(),
			CausationID:   evt.CausationID,
			CorrelationID: evt.CorrelationID,
			Meta:          evt.Meta,
		}

		m.streams[key] = append(m.streams[key], stored)

		if m.project != nil {
			if err := m.project(stored); err != nil {
				return err
			}
		}
	}

	return nil
}

func (m *memStore) ReadStream(_ context.Context, id account.ID) ([]eventstore.StoredEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	events, ok := m.streams[id.String()]
	if !ok {
		return nil, eventstore.ErrStreamNotFound
	}

	return events, nil
}

var (
	holder = "5b6e1c1e-2b8a-4d6c-9f1e-7a1b2c3d4e5f"
	at     = time.Date(2024, 10, 12, 20, 7, 22, 0, time.UTC)
)

func server(t *testing.T) (*echo.Echo, *memStore) {
	t.Helper()

	view := balances.NewView()

	ms := &memStore{
		streams: make(map[string][]eventstore.StoredEvent),
		project: view.Projection(),
	}

	e := echo.New()

	e.Use(middleware.RequestID())

	httpapi.New(
		accountstore.NewStore(ms),
		view,
		account.WithClock(func() time.Time { return at }),
	).Register(e)

	return e, ms
}

func do(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	return doWithHeaders(t, e, method, path, body, nil)
}

func doWithHeaders(t *testing.T, e *echo.Echo, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	return rec
}

func openAccount(t *testing.T, e *echo.Echo, deposit string) httpapi.AccountResp {
	t.Helper()

	rec := do(t, e, http.MethodPost, "/accounts", `{"holder":"`+holder+`","initial_deposit":"`+deposit+`"}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp httpapi.AccountResp

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	return resp
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) httpapi.AccountResp {
	t.Helper()

	var resp httpapi.AccountResp

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	return resp
}

func TestShouldOpenAccount(t *testing.T) {
	e, ms := server(t)

	resp := openAccount(t, e, "100")

	assert.Equal(t, holder, resp.Holder)
	assert.True(t, resp.Balance.Amount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "EUR", resp.Balance.Currency)
	assert.True(t, resp.Active)
	assert.Equal(t, 1, resp.Version)
	assert.Len(t, ms.streams[resp.ID], 1)
}

func TestShouldOpenAccountInCurrency(t *testing.T) {
	e, _ := server(t)

	rec := do(t, e, http.MethodPost, "/accounts", `{"holder":"`+holder+`","initial_deposit":1,"currency":"CHF"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "CHF", decode(t, rec).Balance.Currency)
}

func TestShouldRejectInvalidOpenRequests(t *testing.T) {
	e, _ := server(t)

	for name, body := range map[string]string{
		"negative deposit": `{"holder":"` + holder + `","initial_deposit":"-0.01"}`,
		"bad holder":       `{"holder":"nobody","initial_deposit":"1"}`,
		"bad currency":     `{"holder":"` + holder + `","initial_deposit":"1","currency":"EURO"}`,
		"malformed json":   `{"holder":`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := do(t, e, http.MethodPost, "/accounts", body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestShouldRunAccountLifecycle(t *testing.T) {
	e, _ := server(t)

	acc := openAccount(t, e, "100")
	path := "/accounts/" + acc.ID
	other := uuid.Must(uuid.NewV7()).String()

	rec := do(t, e, http.MethodPost, path+"/deposits", `{"amount":"50","description":"salary"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode(t, rec).Balance.Amount.Equal(decimal.NewFromInt(150)))

	rec = do(t, e, http.MethodPost, path+"/withdrawals", `{"amount":"30"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, e, http.MethodPost, path+"/transfers", `{"to_account_id":"`+other+`","amount":"120","description":"rent"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode(t, rec).Balance.Amount.IsZero())

	rec = do(t, e, http.MethodPost, path+"/close", `{"reason":"moving abroad"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.False(t, decode(t, rec).Active)
	assert.Equal(t, 5, decode(t, rec).Version)

	rec = do(t, e, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode(t, rec).Active)

	rec = do(t, e, http.MethodGet, path+"/events", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var events []struct {
		Type string `json:"type"`
	}

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))

	var types []string

	for _, evt := range events {
		types = append(types, evt.Type)
	}

	assert.Equal(t, []string{"AccountOpened", "MoneyDeposited", "MoneyWithdrawn", "MoneyTransferred", "AccountClosed"}, types)

	rec = do(t, e, http.MethodGet, "/balances/"+acc.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary balances.Summary

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.False(t, summary.Active)
	assert.Equal(t, 5, summary.StreamVersion)
}

func TestShouldMapErrorsToStatusCodes(t *testing.T) {
	e, _ := server(t)

	funded := "/accounts/" + openAccount(t, e, "10").ID

	empty := "/accounts/" + openAccount(t, e, "0").ID
	require.Equal(t, http.StatusOK, do(t, e, http.MethodPost, empty+"/close", `{"reason":"r"}`).Code)

	cases := []struct {
		name string
		path string
		body string
		want int
	}{
		{"zero deposit", funded + "/deposits", `{"amount":"0"}`, http.StatusBadRequest},
		{"bad account id", "/accounts/foo/deposits", `{"amount":"1"}`, http.StatusBadRequest},
		{"bad target", funded + "/transfers", `{"to_account_id":"x","amount":"1"}`, http.StatusBadRequest},
		{"insufficient balance", funded + "/transfers", `{"to_account_id":"` + uuid.NewString() + `","amount":"11"}`, http.StatusUnprocessableEntity},
		{"non zero close", funded + "/close", `{"reason":"r"}`, http.StatusUnprocessableEntity},
		{"closed account", empty + "/deposits", `{"amount":"1"}`, http.StatusConflict},
		{"unknown account", "/accounts/" + uuid.NewString() + "/deposits", `{"amount":"1"}`, http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, e, http.MethodPost, tc.path, tc.body)

			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}

	rec := do(t, e, http.MethodGet, funded, "")
	assert.True(t, decode(t, rec).Balance.Amount.Equal(decimal.NewFromInt(10)))
}

func TestShouldReportConcurrencyConflict(t *testing.T) {
	e, ms := server(t)

	acc := openAccount(t, e, "10")

	id, err := account.ParseID(acc.ID)
	require.NoError(t, err)

	store := accountstore.NewStore(ms)

	stale, err := store.ByID(context.Background(), id)
	require.NoError(t, err)

	// another writer moves the stream forward
	rec := do(t, e, http.MethodPost, "/accounts/"+acc.ID+"/deposits", `{"amount":"5"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	stale, err = stale.Withdraw(decimal.NewFromInt(10))
	require.NoError(t, err)

	_, err = store.Save(context.Background(), stale)

	assert.ErrorIs(t, err, eventstore.ErrConcurrencyCheckFailed)
	assert.Len(t, ms.streams[acc.ID], 2)
}

func TestShouldNotFindUnprojectedBalance(t *testing.T) {
	e, _ := server(t)

	rec := do(t, e, http.MethodGet, "/balances/"+uuid.NewString(), "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestShouldStoreRequestTracingWithEvents(t *testing.T) {
	e, ms := server(t)

	acc := openAccount(t, e, "10")

	rec := doWithHeaders(t, e, http.MethodPost, "/accounts/"+acc.ID+"/deposits", `{"amount":"5"}`, map[string]string{
		echo.HeaderXRequestID:     "request-1",
		httpapi.HeaderCausationID: "event-1",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	deposited := ms.streams[acc.ID][1]

	assert.Equal(t, "request-1", deposited.CorrelationID)
	assert.Equal(t, "event-1", deposited.CausationID)
	assert.Equal(t, "192.0.2.1", deposited.Meta["remote_ip"])
}

func TestShouldCorrelateEventsWithGeneratedRequestID(t *testing.T) {
	e, ms := server(t)

	rec := do(t, e, http.MethodPost, "/accounts", `{"holder":"`+holder+`","initial_deposit":"1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	reqID := rec.Header().Get(echo.HeaderXRequestID)
	require.NotEmpty(t, reqID)

	opened := ms.streams[decode(t, rec).ID][0]

	assert.Equal(t, reqID, opened.CorrelationID)
	assert.Empty(t, opened.CausationID)
}
