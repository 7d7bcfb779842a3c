package sync

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// RunGuard ensures at most one reconciliation run executes at a time.
// TryAcquire reports ok=false when another run holds the guard.
type RunGuard interface {
	TryAcquire(ctx context.Context) (release func(), ok bool, err error)
}

// MemoryRunGuard is a process-wide guard. It does not survive restarts and
// does not coordinate separate instances.
type MemoryRunGuard struct {
	mu      sync.Mutex
	running bool
}

// NewMemoryRunGuard creates an idle guard
func NewMemoryRunGuard() *MemoryRunGuard {
	return &MemoryRunGuard{}
}

// TryAcquire implements RunGuard
func (g *MemoryRunGuard) TryAcquire(context.Context) (func(), bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		return nil, false, nil
	}
	g.running = true

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			g.running = false
			g.mu.Unlock()
		})
	}, true, nil
}

// RedisRunGuard coordinates runs across instances with a redis lock. A run
// that outlives the TTL loses the lock.
type RedisRunGuard struct {
	locker *redislock.Client
	key    string
	ttl    time.Duration
}

// DefaultLockKey is the redis key guarding timesheet sync runs.
const DefaultLockKey = "lock:timesheet-sync"

// NewRedisRunGuard creates a guard over an existing redis client
func NewRedisRunGuard(client *redis.Client, key string, ttl time.Duration) *RedisRunGuard {
	if key == "" {
		key = DefaultLockKey
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisRunGuard{locker: redislock.New(client), key: key, ttl: ttl}
}

// TryAcquire implements RunGuard
func (g *RedisRunGuard) TryAcquire(ctx context.Context) (func(), bool, error) {
	lock, err := g.locker.Obtain(ctx, g.key, g.ttl, nil)
	if stderrors.Is(err, redislock.ErrNotObtained) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return func() {
		_ = lock.Release(context.Background())
	}, true, nil
}
