package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"ward/internal/retry"
)

const sqliteBusyCode = 5

// busyPolicy covers lock contention between the daemon and CLI handles,
// beyond what busy_timeout absorbs inside SQLite.
var busyPolicy = retry.NewPolicy(retry.BackoffExponential, 10*time.Millisecond, 200*time.Millisecond, 4)

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// retryOnBusy reruns op while the database reports it is locked. Any other
// error is returned immediately.
func retryOnBusy(ctx context.Context, op func() error) error {
	return busyPolicy.Do(ctx, func(int) error {
		err := op()
		if err != nil && !isSQLiteBusy(err) {
			return retry.Permanent(err)
		}
		return err
	})
}
