// Command replay rebuilds a single account from its event stream and
// logs the state after every applied event
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/aneshas/bankaccount/account"
	"github.com/aneshas/bankaccount/accountstore"
	"github.com/aneshas/bankaccount/config"
	"github.com/aneshas/bankaccount/eventstore"
)

func main() {
	id := flag.String("account", "", "id of the account to replay")

	flag.Parse()

	accID, err := account.ParseID(*id)
	checkErr(err)

	cfg, err := config.Load()
	checkErr(err)

	estore, err := eventstore.Open(cfg.Database(), eventstore.NewJSONEncoder(account.Events()...))
	checkErr(err)

	defer estore.Close()

	logger := log.New(os.Stdout, "", 0)

	store := accountstore.NewStore(estore, account.WithObserver(accountstore.LogReplay(logger)))

	acc, err := store.ByID(context.Background(), accID)
	checkErr(err)

	logger.Printf(
		"account=%s holder=%s balance=%s active=%t events=%d",
		acc.ID(),
		acc.Holder(),
		acc.Balance(),
		acc.Active(),
		acc.Version(),
	)
}

func checkErr(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
