package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledger-recon/backend/internal/application/adapter"
	domainerror "github.com/ledger-recon/backend/internal/domain/error"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func exerciseLocker(t *testing.T, locker adapter.VenueLocker) {
	ctx := context.Background()
	venueID := uuid.New()

	unlock, err := locker.TryLock(ctx, venueID)
	require.NoError(t, err)

	_, err = locker.TryLock(ctx, venueID)
	assert.ErrorIs(t, err, domainerror.ErrBatchInProgress)

	otherUnlock, err := locker.TryLock(ctx, uuid.New())
	require.NoError(t, err, "other venues are independent")
	require.NoError(t, otherUnlock(ctx))

	require.NoError(t, unlock(ctx))

	again, err := locker.TryLock(ctx, venueID)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestRedisVenueLocker(t *testing.T) {
	_, client := newRedis(t)
	exerciseLocker(t, NewRedisVenueLocker(client, time.Minute))
}

func TestRedisVenueLocker_ExpiredLockIsNotReleasedByOldHolder(t *testing.T) {
	mr, client := newRedis(t)
	locker := NewRedisVenueLocker(client, time.Second)
	ctx := context.Background()
	venueID := uuid.New()

	staleUnlock, err := locker.TryLock(ctx, venueID)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	_, err = locker.TryLock(ctx, venueID)
	require.NoError(t, err, "expired lock can be taken over")

	require.NoError(t, staleUnlock(ctx))

	_, err = locker.TryLock(ctx, venueID)
	assert.ErrorIs(t, err, domainerror.ErrBatchInProgress, "stale holder must not delete the new lock")
}

func TestLocalVenueLocker(t *testing.T) {
	exerciseLocker(t, NewLocalVenueLocker())
}
