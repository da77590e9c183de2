package lease

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLocker_ExclusiveUntilReleased(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLocker()

	first, err := l.Acquire(ctx, "advance-tour-statuses", time.Minute)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "advance-tour-statuses", time.Minute)
	assert.ErrorIs(t, err, ErrHeld)

	other, err := l.Acquire(ctx, "refresh-weather", time.Minute)
	require.NoError(t, err)
	require.NoError(t, other.Release(ctx))

	require.NoError(t, first.Release(ctx))
	again, err := l.Acquire(ctx, "advance-tour-statuses", time.Minute)
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}

func TestLocalLocker_ExpiredLeaseCanBeTakenOver(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	l := NewLocalLocker()
	l.now = func() time.Time { return now }

	stale, err := l.Acquire(ctx, "send-tour-reminders", time.Minute)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	fresh, err := l.Acquire(ctx, "send-tour-reminders", time.Minute)
	require.NoError(t, err)

	// releasing the stale lease must not drop the new holder
	require.NoError(t, stale.Release(ctx))
	_, err = l.Acquire(ctx, "send-tour-reminders", time.Minute)
	assert.ErrorIs(t, err, ErrHeld)

	require.NoError(t, fresh.Release(ctx))
}
