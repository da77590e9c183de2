// Package lease provides per-job mutual exclusion so that two runs of the
// same sweep never overlap, across processes when Redis is configured.
package lease

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrHeld is returned when another holder owns the lease.
var ErrHeld = errors.New("lease is held by another runner")

type Lease interface {
	Release(ctx context.Context) error
}

type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (Lease, error)
}

// releaseScript deletes the key only if it still carries our token, so an
// expired lease taken over by another runner is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLocker struct {
	client *redis.Client
	prefix string
}

func NewRedisLocker(client *redis.Client, prefix string) *RedisLocker {
	return &RedisLocker{client: client, prefix: prefix}
}

func (l *RedisLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (Lease, error) {
	key := l.prefix + name
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lease %s: %w", key, err)
	}
	if !ok {
		return nil, ErrHeld
	}
	return &redisLease{client: l.client, key: key, token: token}, nil
}

type redisLease struct {
	client *redis.Client
	key    string
	token  string
}

func (r *redisLease) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, r.client, []string{r.key}, r.token).Err(); err != nil {
		return fmt.Errorf("release lease %s: %w", r.key, err)
	}
	return nil
}

// LocalLocker keeps leases in process memory. Used when Redis is not configured.
type LocalLocker struct {
	mu     sync.Mutex
	now    func() time.Time
	leases map[string]localEntry
}

type localEntry struct {
	token     string
	expiresAt time.Time
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{now: time.Now, leases: make(map[string]localEntry)}
}

func (l *LocalLocker) Acquire(_ context.Context, name string, ttl time.Duration) (Lease, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, ok := l.leases[name]; ok && now.Before(e.expiresAt) {
		return nil, ErrHeld
	}
	token := uuid.NewString()
	l.leases[name] = localEntry{token: token, expiresAt: now.Add(ttl)}
	return &localLease{locker: l, name: name, token: token}, nil
}

type localLease struct {
	locker *LocalLocker
	name   string
	token  string
}

func (ll *localLease) Release(context.Context) error {
	ll.locker.mu.Lock()
	defer ll.locker.mu.Unlock()
	if e, ok := ll.locker.leases[ll.name]; ok && e.token == ll.token {
		delete(ll.locker.leases, ll.name)
	}
	return nil
}
