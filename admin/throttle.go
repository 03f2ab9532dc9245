package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/xy-planning-network/acrsample"
)

const (
	DefaultMaxFailures    = 5
	DefaultThrottleWindow = 15 * time.Minute
	redisThrottlePrefix   = "acrsample:admin:login:"
)

var (
	_ Throttle = new(MemoryThrottle)
	_ Throttle = RedisThrottle{}
)

// A Throttle counts failed login attempts per key within a sliding window.
type Throttle interface {
	// Failures reports how many failures key has accrued in the current window.
	Failures(ctx context.Context, key string) (int, error)

	// Fail records a failure for key, opening a new window when none is open.
	Fail(ctx context.Context, key string) error

	// Reset forgets every failure for key.
	Reset(ctx context.Context, key string) error
}

// throttleKey pairs a username with the IP address it was submitted from.
func throttleKey(username, ip string) string {
	return strings.ToLower(strings.TrimSpace(username)) + "|" + ip
}

type failures struct {
	count int
	first time.Time
}

// A MemoryThrottle keeps failures in a map.
//
// Server restarts reset this map.
// MemoryThrottle ought not be used when running more than one server.
type MemoryThrottle struct {
	mu     sync.Mutex
	now    func() time.Time
	val    map[string]failures
	window time.Duration
}

// NewMemoryThrottle constructs a *MemoryThrottle whose windows last window.
func NewMemoryThrottle(window time.Duration) *MemoryThrottle {
	if window <= 0 {
		window = DefaultThrottleWindow
	}

	return &MemoryThrottle{now: time.Now, val: make(map[string]failures), window: window}
}

// Failures implements Throttle.
func (t *MemoryThrottle) Failures(ctx context.Context, key string) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	f, ok := t.val[key]
	if !ok {
		return 0, nil
	}

	if t.now().Sub(f.first) >= t.window {
		delete(t.val, key)
		return 0, nil
	}

	return f.count, nil
}

// Fail implements Throttle.
//
// For each call to Fail, lapsed windows are evicted.
func (t *MemoryThrottle) Fail(ctx context.Context, key string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for k, f := range t.val {
		if now.Sub(f.first) >= t.window {
			delete(t.val, k)
		}
	}

	f, ok := t.val[key]
	if !ok {
		f = failures{first: now}
	}

	f.count++
	t.val[key] = f
	return nil
}

// Reset implements Throttle.
func (t *MemoryThrottle) Reset(_ context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.val, key)
	return nil
}

// A RedisThrottle keeps failures in a Redis backend,
// letting the key's TTL close the window.
type RedisThrottle struct {
	client *redis.Client
	window time.Duration
}

// NewRedisThrottle constructs a RedisThrottle with the options passed in.
func NewRedisThrottle(opts *redis.Options, window time.Duration) RedisThrottle {
	if window <= 0 {
		window = DefaultThrottleWindow
	}

	return RedisThrottle{client: redis.NewClient(opts), window: window}
}

// Failures implements Throttle.
func (t RedisThrottle) Failures(ctx context.Context, key string) (int, error) {
	n, err := t.client.Get(ctx, redisThrottlePrefix+key).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}

	if err != nil {
		return 0, fmt.Errorf("%w: %s", acrsample.ErrUnexpected, err)
	}

	return n, nil
}

// Fail implements Throttle.
//
// The counter is created with the window as its TTL and incremented in one transaction,
// so a counter never outlives its window.
func (t RedisThrottle) Fail(ctx context.Context, key string) error {
	k := redisThrottlePrefix + key
	_, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, k, 0, t.window)
		pipe.Incr(ctx, k)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %s", acrsample.ErrUnexpected, err)
	}

	return nil
}

// Reset implements Throttle.
func (t RedisThrottle) Reset(ctx context.Context, key string) error {
	if err := t.client.Del(ctx, redisThrottlePrefix+key).Err(); err != nil {
		return fmt.Errorf("%w: %s", acrsample.ErrUnexpected, err)
	}

	return nil
}

// Close releases the connection to Redis.
func (t RedisThrottle) Close() error { return t.client.Close() }
