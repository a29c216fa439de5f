// Package apperr handles errors that cannot be returned to a caller.
package apperr

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// Handle logs an error that is not propagated, e.g. a failed blob release
// after the owning record was removed
func Handle(ctx context.Context, err error) {
	if err == nil {
		return
	}

	logger := ctxlog.From(ctx)
	if ge := goerr.Unwrap(err); ge != nil {
		logger.Error("application error", "error", err, "values", ge.Values())
		return
	}
	logger.Error("application error", "error", err)
}
