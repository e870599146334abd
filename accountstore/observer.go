package accountstore

import (
	"log"
	"reflect"

	"github.com/aneshas/bankaccount/account"
)

// LogReplay returns a replay observer which logs every folded event along
// with the resulting balance. Pass it to NewStore using account.WithObserver
func LogReplay(l *log.Logger) account.Observer {
	return func(acc account.Account, evt account.Event) {
		l.Printf(
			"account=%s event=%s balance=%s",
			acc.ID(),
			reflect.TypeOf(evt).Name(),
			acc.Balance(),
		)
	}
}
