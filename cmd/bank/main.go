package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aneshas/bankaccount/account"
	"github.com/aneshas/bankaccount/accountstore"
	"github.com/aneshas/bankaccount/ambar"
	"github.com/aneshas/bankaccount/ambar/echoambar"
	"github.com/aneshas/bankaccount/balances"
	"github.com/aneshas/bankaccount/config"
	"github.com/aneshas/bankaccount/eventstore"
	"github.com/aneshas/bankaccount/httpapi"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg, err := config.Load()
	checkErr(err)

	enc := eventstore.NewJSONEncoder(account.Events()...)

	estore, err := eventstore.Open(cfg.Database(), enc)
	checkErr(err)

	defer estore.Close()

	var opts []account.Option

	if cfg.LogReplay {
		opts = append(opts, account.WithObserver(accountstore.LogReplay(log.Default())))
	}

	store := accountstore.NewStore(estore, opts...)
	view := balances.NewView()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// the view starts from the whole log, the projector then follows
	// whatever is appended after the last restored event
	events, err := estore.ReadAll(ctx, eventstore.WithBatchSize(cfg.BatchSize))
	checkErr(err)

	last, err := view.Restore(events)
	checkErr(err)

	log.Printf("balances restored from %d events (last seq %d)", len(events), last)

	e := echo.New()

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	httpapi.New(store, view).Register(e)

	if cfg.AmbarEnabled() {
		// ambar pushes the event table to us, no need to poll it
		g := e.Group("/projections", middleware.BasicAuth(func(username, password string, c echo.Context) (bool, error) {
			return username == cfg.AmbarUser && password == cfg.AmbarPassword, nil
		}))

		g.POST("/balances/v1", echoambar.Wrap(ambar.New(enc))(view.Projection()))
	} else {
		projector := eventstore.NewProjector(
			estore,
			eventstore.WithSubscriptionOpts(
				eventstore.WithOffset(last),
				eventstore.WithBatchSize(cfg.BatchSize),
				eventstore.WithPollInterval(cfg.PollInterval),
			),
		)

		projector.Add(view.Projection())

		go func() {
			_ = projector.Run(ctx)
		}()
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := e.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

func checkErr(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
