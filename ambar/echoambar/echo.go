// Package echoambar adapts ambar projections to echo handlers
package echoambar

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/aneshas/bankaccount/ambar"
	"github.com/aneshas/bankaccount/eventstore"
	"github.com/labstack/echo/v4"
)

var _ Projector = (*ambar.Ambar)(nil)

// Projector projects a single pushed record
type Projector interface {
	Project(ctx context.Context, projection eventstore.Projection, data []byte) error
}

// Wrap adapts the projector to an echo.HandlerFunc serving one projection.
// The outcome is reported in the reply body (see ambar.ReplyFor),
// the http status is always 200
func Wrap(a Projector) func(projection eventstore.Projection) echo.HandlerFunc {
	return func(projection eventstore.Projection) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()

			body, err := io.ReadAll(r.Body)
			if err != nil {
				return err
			}

			err = a.Project(r.Context(), projection, body)

			switch {
			case err == nil, errors.Is(err, ambar.ErrKeepItGoing):
			case errors.Is(err, ambar.ErrNoRetry):
				c.Logger().Warnf("ambar projection: %v", err)
			default:
				c.Logger().Errorf("ambar projection: %v", err)
			}

			return c.JSON(http.StatusOK, ambar.ReplyFor(err))
		}
	}
}
