package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
)

// releaseScript deletes the lock only while it still holds our token, so an
// expired lock that another writer has since taken is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// AggregateLock grants one writer per aggregate using SET NX with a TTL.
// Key format: lock:<kind>:<id>
type AggregateLock struct {
	client *redis.Client
	log    zerolog.Logger
}

// NewAggregateLock creates an AggregateLock wrapping the given Redis client.
func NewAggregateLock(client *redis.Client, log zerolog.Logger) *AggregateLock {
	return &AggregateLock{client: client, log: log}
}

// Acquire takes the lock for key or returns domain.ErrLocked if it is held.
func (l *AggregateLock) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token, err := lockToken()
	if err != nil {
		return nil, err
	}
	ok, err := l.client.SetNX(ctx, l.key(key), token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, domain.ErrLocked
	}

	return func() {
		// The caller's ctx may already be cancelled when the lock is released.
		releaseCtx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{l.key(key)}, token).Err(); err != nil {
			l.log.Warn().Err(err).Str("key", key).Msg("lock release failed")
		}
	}, nil
}

func (l *AggregateLock) key(key string) string {
	return "lock:" + key
}

func lockToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("lock token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
