// Package httpapi exposes account commands and queries over http (echo)
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"reflect"

	"github.com/aneshas/bankaccount/account"
	"github.com/aneshas/bankaccount/accountstore"
	"github.com/aneshas/bankaccount/balances"
	"github.com/aneshas/bankaccount/eventstore"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// HeaderCausationID carries the id of the event a command was issued in
// reaction to. It is stored as the causation id of the resulting events
const HeaderCausationID = "X-Causation-ID"

// New constructs account http handlers.
// opts are used when opening new accounts (eg. account.WithClock)
func New(store *accountstore.Store, view *balances.View, opts ...account.Option) *Handlers {
	return &Handlers{
		store: store,
		exec:  accountstore.NewExecutor(store),
		view:  view,
		opts:  opts,
	}
}

// Handlers represents account http handlers
type Handlers struct {
	store *accountstore.Store
	exec  accountstore.Executor
	view  *balances.View
	opts  []account.Option
}

// Register registers account routes with the echo instance
func (h *Handlers) Register(e *echo.Echo) {
	e.POST("/accounts", h.Open)
	e.GET("/accounts/:id", h.Get)
	e.GET("/accounts/:id/events", h.Events)
	e.POST("/accounts/:id/deposits", h.Deposit)
	e.POST("/accounts/:id/withdrawals", h.Withdraw)
	e.POST("/accounts/:id/transfers", h.Transfer)
	e.POST("/accounts/:id/close", h.Close)

	if h.view != nil {
		e.GET("/balances/:id", h.Balance)
	}
}

// OpenReq is the open account request
type OpenReq struct {
	Holder         string          `json:"holder"`
	InitialDeposit decimal.Decimal `json:"initial_deposit"`
	Currency       string          `json:"currency"`
}

// DepositReq is the deposit request
type DepositReq struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// WithdrawReq is the withdrawal request
type WithdrawReq struct {
	Amount decimal.Decimal `json:"amount"`
}

// TransferReq is the transfer request
type TransferReq struct {
	ToAccountID string          `json:"to_account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// CloseReq is the close account request
type CloseReq struct {
	Reason string `json:"reason"`
}

// AccountResp is the account representation
type AccountResp struct {
	ID      string        `json:"id"`
	Holder  string        `json:"holder"`
	Balance account.Money `json:"balance"`
	Active  bool          `json:"active"`
	Version int           `json:"version"`
}

// EventResp is a single entry of the account history
type EventResp struct {
	Type  string        `json:"type"`
	Event account.Event `json:"event"`
}

// Open opens a new account
func (h *Handlers) Open(c echo.Context) error {
	var req OpenReq

	if err := c.Bind(&req); err != nil {
		return err
	}

	holder, err := account.ParseCustomerID(req.Holder)
	if err != nil {
		return httpErr(err)
	}

	opts := h.opts

	if req.Currency != "" {
		opts = append(opts[:len(opts):len(opts)], account.WithCurrency(req.Currency))
	}

	acc, err := account.Open(holder, req.InitialDeposit, opts...)
	if err != nil {
		return httpErr(err)
	}

	acc, err = h.store.Save(commandCtx(c), acc)
	if err != nil {
		return httpErr(err)
	}

	return c.JSON(http.StatusCreated, toResp(acc))
}

// Get returns the account replayed from its event stream
func (h *Handlers) Get(c echo.Context) error {
	acc, err := h.byID(c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toResp(acc))
}

// Events returns the account event history
func (h *Handlers) Events(c echo.Context) error {
	acc, err := h.byID(c)
	if err != nil {
		return err
	}

	events := acc.Events()

	out := make([]EventResp, 0, len(events))

	for _, evt := range events {
		out = append(out, EventResp{
			Type:  reflect.TypeOf(evt).Name(),
			Event: evt,
		})
	}

	return c.JSON(http.StatusOK, out)
}

// Deposit deposits money to the account
func (h *Handlers) Deposit(c echo.Context) error {
	var req DepositReq

	if err := c.Bind(&req); err != nil {
		return err
	}

	return h.run(c, func(acc account.Account) (account.Account, error) {
		return acc.Deposit(req.Amount, req.Description)
	})
}

// Withdraw withdraws money from the account
func (h *Handlers) Withdraw(c echo.Context) error {
	var req WithdrawReq

	if err := c.Bind(&req); err != nil {
		return err
	}

	return h.run(c, func(acc account.Account) (account.Account, error) {
		return acc.Withdraw(req.Amount)
	})
}

// Transfer transfers money to another account
func (h *Handlers) Transfer(c echo.Context) error {
	var req TransferReq

	if err := c.Bind(&req); err != nil {
		return err
	}

	to, err := account.ParseID(req.ToAccountID)
	if err != nil {
		return httpErr(err)
	}

	return h.run(c, func(acc account.Account) (account.Account, error) {
		return acc.TransferTo(to, req.Amount, req.Description)
	})
}

// Close closes the account
func (h *Handlers) Close(c echo.Context) error {
	var req CloseReq

	if err := c.Bind(&req); err != nil {
		return err
	}

	return h.run(c, func(acc account.Account) (account.Account, error) {
		return acc.Close(req.Reason)
	})
}

// Balance returns the account summary from the balance read model.
// The read model is eventually consistent with the account stream
func (h *Handlers) Balance(c echo.Context) error {
	id, err := account.ParseID(c.Param("id"))
	if err != nil {
		return httpErr(err)
	}

	summary, ok := h.view.Get(id)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "account not projected")
	}

	return c.JSON(http.StatusOK, summary)
}

func (h *Handlers) run(c echo.Context, cmd accountstore.Command) error {
	id, err := account.ParseID(c.Param("id"))
	if err != nil {
		return httpErr(err)
	}

	acc, err := h.exec(commandCtx(c), id, cmd)
	if err != nil {
		return httpErr(err)
	}

	return c.JSON(http.StatusOK, toResp(acc))
}

func (h *Handlers) byID(c echo.Context) (account.Account, error) {
	id, err := account.ParseID(c.Param("id"))
	if err != nil {
		return account.Account{}, httpErr(err)
	}

	acc, err := h.store.ByID(c.Request().Context(), id)
	if err != nil {
		return account.Account{}, httpErr(err)
	}

	return acc, nil
}

// commandCtx carries the request tracing data into the saved events.
// The request id (see middleware.RequestID) becomes the correlation id
func commandCtx(c echo.Context) context.Context {
	ctx := c.Request().Context()

	reqID := c.Response().Header().Get(echo.HeaderXRequestID)
	if reqID == "" {
		reqID = c.Request().Header.Get(echo.HeaderXRequestID)
	}

	if reqID != "" {
		ctx = accountstore.CtxWithCorrelationID(ctx, reqID)
	}

	if causationID := c.Request().Header.Get(HeaderCausationID); causationID != "" {
		ctx = accountstore.CtxWithCausationID(ctx, causationID)
	}

	return accountstore.CtxWithMeta(ctx, map[string]string{
		"remote_ip": c.RealIP(),
	})
}

func toResp(acc account.Account) AccountResp {
	return AccountResp{
		ID:      acc.ID().String(),
		Holder:  acc.Holder().String(),
		Balance: acc.Balance(),
		Active:  acc.Active(),
		Version: acc.Version(),
	}
}

func httpErr(err error) error {
	switch {
	case errors.Is(err, account.ErrInvalidArgument):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())

	case errors.Is(err, accountstore.ErrAccountNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())

	case errors.Is(err, account.ErrInvalidState),
		errors.Is(err, eventstore.ErrConcurrencyCheckFailed):
		return echo.NewHTTPError(http.StatusConflict, err.Error())

	case errors.Is(err, account.ErrInvalidOperation):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())

	default:
		return err
	}
}
