// Package services contains the server-side business logic. Services take
// the acting identity explicitly, run every store call under a bounded
// timeout and return errors tagged with the kinds from package common.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/confkeeper/internal/common"
	"github.com/dmitrijs2005/confkeeper/internal/logging"
	"github.com/dmitrijs2005/confkeeper/internal/timex"
)

const defaultStoreTimeout = 10 * time.Second

// withTimeout bounds a store round trip.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = defaultStoreTimeout
	}
	return context.WithTimeout(ctx, d)
}

// storeFailure classifies err and logs infrastructure failures. Domain
// errors are returned unchanged.
func storeFailure(ctx context.Context, log logging.Logger, op string, err error) error {
	err = common.StoreError(err)
	if errors.Is(err, common.ErrStoreUnavailable) {
		log.Error(ctx, "store failure", "op", op, "error", err)
	}
	return err
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

func parseTime(s string, fail error) (time.Time, error) {
	t, err := timex.ParseISO(s)
	if err != nil {
		return time.Time{}, fail
	}
	return t, nil
}

var errLoginRequired = common.NewError(common.ErrorUnauthorized, "Login required")
