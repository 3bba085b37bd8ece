package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type codedError int

func (c codedError) Error() string { return "sqlite error" }
func (c codedError) Code() int     { return int(c) }

func TestIsSQLiteBusy(t *testing.T) {
	assert.True(t, isSQLiteBusy(codedError(5)))
	assert.True(t, isSQLiteBusy(codedError(5|(1<<8))), "extended busy codes count")
	assert.True(t, isSQLiteBusy(errors.New("database is locked (5) (SQLITE_BUSY)")))
	assert.False(t, isSQLiteBusy(codedError(19)))
	assert.False(t, isSQLiteBusy(nil))
}

func TestRetryOnBusyRetriesUntilUnlocked(t *testing.T) {
	calls := 0
	err := retryOnBusy(context.Background(), func() error {
		calls++
		if calls < 3 {
			return codedError(5)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryOnBusyStopsOnOtherErrors(t *testing.T) {
	boom := errors.New("constraint failed")
	calls := 0
	err := retryOnBusy(context.Background(), func() error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestRetryOnBusyGivesUpAfterBudget(t *testing.T) {
	calls := 0
	err := retryOnBusy(context.Background(), func() error {
		calls++
		return codedError(5)
	})
	require.Error(t, err)
	assert.True(t, isSQLiteBusy(err))
	assert.Equal(t, busyPolicy.MaxRetries+1, calls)
}
