// Package lock implements per-venue locks that keep batch runs single-writer.
package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ledger-recon/backend/internal/application/adapter"
	domainerror "github.com/ledger-recon/backend/internal/domain/error"
)

const keyPrefix = "recon:batch-lock:"

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisVenueLocker implements adapter.VenueLocker on Redis SET NX PX.
// The TTL bounds how long a crashed holder can block a venue.
type RedisVenueLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisVenueLocker creates a new RedisVenueLocker.
func NewRedisVenueLocker(client *redis.Client, ttl time.Duration) *RedisVenueLocker {
	return &RedisVenueLocker{client: client, ttl: ttl}
}

// TryLock obtains the venue lock or returns domainerror.ErrBatchInProgress.
func (l *RedisVenueLocker) TryLock(ctx context.Context, venueID uuid.UUID) (adapter.UnlockFunc, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}

	key := keyPrefix + venueID.String()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire venue lock: %w", err)
	}
	if !ok {
		return nil, domainerror.ErrBatchInProgress
	}

	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("failed to release venue lock: %w", err)
		}
		return nil
	}, nil
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate lock token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// LocalVenueLocker implements adapter.VenueLocker within a single process.
// It is used when Redis is not configured.
type LocalVenueLocker struct {
	mu     sync.Mutex
	venues map[uuid.UUID]struct{}
}

// NewLocalVenueLocker creates a new LocalVenueLocker.
func NewLocalVenueLocker() *LocalVenueLocker {
	return &LocalVenueLocker{venues: make(map[uuid.UUID]struct{})}
}

// TryLock obtains the venue lock or returns domainerror.ErrBatchInProgress.
func (l *LocalVenueLocker) TryLock(_ context.Context, venueID uuid.UUID) (adapter.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, held := l.venues[venueID]; held {
		return nil, domainerror.ErrBatchInProgress
	}
	l.venues[venueID] = struct{}{}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			l.mu.Lock()
			delete(l.venues, venueID)
			l.mu.Unlock()
		})
		return nil
	}, nil
}
