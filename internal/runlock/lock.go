package runlock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// Lock is a Redis lease guaranteeing a single active auto-call run across
// all instances of the service.
type Lock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	token  string
}

// New constructs a run lock.
func New(client *redis.Client, key string, ttl time.Duration) *Lock {
	if key == "" {
		key = "outreach:dialer:run"
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Lock{client: client, key: key, ttl: ttl}
}

// Acquire attempts to take the lease. Returns false if another run holds it.
func (l *Lock) Acquire(ctx context.Context) (bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("run lock: acquire: %w", err)
	}
	if ok {
		l.token = token
	}
	return ok, nil
}

// Refresh extends the lease while the holder is still making progress.
func (l *Lock) Refresh(ctx context.Context) error {
	script := redis.NewScript(`
local key = KEYS[1]
local token = ARGV[1]
local ttl = tonumber(ARGV[2])
if redis.call('GET', key) == token then
  redis.call('PEXPIRE', key, ttl)
  return 1
end
return 0
`)
	res, err := script.Run(ctx, l.client, []string{l.key}, l.token, l.ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("run lock: refresh: %w", err)
	}
	if res != 1 {
		return fmt.Errorf("run lock: lease lost")
	}
	return nil
}

// Release drops the lease if this instance still owns it.
func (l *Lock) Release(ctx context.Context) error {
	script := redis.NewScript(`
local key = KEYS[1]
local token = ARGV[1]
if redis.call('GET', key) == token then
  return redis.call('DEL', key)
end
return 0
`)
	if _, err := script.Run(ctx, l.client, []string{l.key}, l.token).Int(); err != nil {
		return fmt.Errorf("run lock: release: %w", err)
	}
	return nil
}
