package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/turtacn/dimpat/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/dimpat/pkg/errors"
)

var (
	ErrLockNotAcquired = errors.New(errors.ErrCodeServiceUnavailable, "run lock held by another process")
	ErrLockNotHeld     = errors.New(errors.ErrCodeValidation, "lock not held by this owner")
)

var unlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

type LockOption func(*RunLocker)

func WithLockTTL(ttl time.Duration) LockOption {
	return func(l *RunLocker) { l.ttl = ttl }
}

func WithRetryDelay(delay time.Duration) LockOption {
	return func(l *RunLocker) { l.retryDelay = delay }
}

func WithRetryCount(count int) LockOption {
	return func(l *RunLocker) { l.retryCount = count }
}

// RunLocker hands out SET NX leases so that two dimpat processes never
// write the same organization and run date at once.
type RunLocker struct {
	client     *Client
	logger     logging.Logger
	ttl        time.Duration
	retryDelay time.Duration
	retryCount int
}

func NewRunLocker(client *Client, log logging.Logger, opts ...LockOption) *RunLocker {
	if log == nil {
		log = logging.NewNopLogger()
	}
	l := &RunLocker{
		client:     client,
		logger:     log,
		ttl:        client.config.LockTTL,
		retryDelay: 500 * time.Millisecond,
		retryCount: 3,
	}
	if l.ttl == 0 {
		l.ttl = 10 * time.Minute
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *RunLocker) lockKey(key string) string {
	return l.client.config.KeyPrefix + "lock:run:" + key
}

// Acquire takes the lease for key, retrying retryCount times.
func (l *RunLocker) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	if l.client.isClosed() {
		return nil, ErrClientClosed
	}
	full := l.lockKey(key)
	owner := uuid.NewString()

	for i := 0; i <= l.retryCount; i++ {
		ok, err := l.client.rdb.SetNX(ctx, full, owner, l.ttl).Result()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeCacheError, "failed to acquire run lock")
		}
		if ok {
			l.logger.Debug("Acquired run lock", logging.String("key", full))
			return func(ctx context.Context) error { return l.release(ctx, full, owner) }, nil
		}
		if i == l.retryCount {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retryDelay):
		}
	}
	return nil, ErrLockNotAcquired
}

func (l *RunLocker) release(ctx context.Context, key, owner string) error {
	n, err := unlockScript.Run(ctx, l.client.rdb, []string{key}, owner).Int64()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to release run lock")
	}
	if n == 0 {
		return ErrLockNotHeld
	}
	return nil
}

//Personal.AI order the ending
