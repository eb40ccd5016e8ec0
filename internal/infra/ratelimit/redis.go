package ratelimit

import (
	"context"
	"errors"
	"time"

	"ipshield/internal/domain"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ipshield:quota:"

// RedisLimiter shares quota counters across replicas.
type RedisLimiter struct {
	client *redis.Client
	now    func() time.Time
}

// spendScript adds the cost and takes it back again when it overdraws the
// quota, so rejected requests leave the counter untouched.
var spendScript = redis.NewScript(`
local cost = tonumber(ARGV[2])
local units = tonumber(ARGV[3])
local spent = redis.call("INCRBY", KEYS[1], cost)
if spent == cost then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local allowed = 1
if spent > units then
  spent = redis.call("DECRBY", KEYS[1], cost)
  allowed = 0
end
return {allowed, spent, redis.call("PTTL", KEYS[1])}
`)

func NewRedisLimiter(addr, password string, db int, now func() time.Time) (*RedisLimiter, error) {
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	if now == nil {
		now = time.Now
	}
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 2 * time.Second,
		MaxRetries:  1,
	})
	return &RedisLimiter{client: client, now: now}, nil
}

func (r *RedisLimiter) Close() error {
	return r.client.Close()
}

func (r *RedisLimiter) Spend(ctx context.Context, caller string, class domain.QuotaClass, cost int, quota domain.Quota) (domain.QuotaDecision, error) {
	if !quota.Enabled() {
		return domain.QuotaDecision{Class: class, Allowed: true}, nil
	}
	if cost < 1 {
		cost = 1
	}
	windowMillis := quota.Window.Milliseconds()
	if windowMillis <= 0 {
		windowMillis = 1000
	}
	raw, err := spendScript.Run(ctx, r.client, []string{redisKeyPrefix + quotaKey(caller, class)}, windowMillis, cost, quota.Units).Result()
	if err != nil {
		return domain.QuotaDecision{}, err
	}
	return decodeSpend(raw, class, quota, r.now())
}

func decodeSpend(raw any, class domain.QuotaClass, quota domain.Quota, now time.Time) (domain.QuotaDecision, error) {
	values, ok := raw.([]any)
	if !ok || len(values) < 3 {
		return domain.QuotaDecision{}, errors.New("unexpected quota script reply")
	}
	allowed, ok1 := values[0].(int64)
	spent, ok2 := values[1].(int64)
	if !ok1 || !ok2 {
		return domain.QuotaDecision{}, errors.New("invalid quota script reply")
	}
	resetAt := now
	if ttl, _ := values[2].(int64); ttl > 0 {
		resetAt = now.Add(time.Duration(ttl) * time.Millisecond)
	}
	remaining := quota.Units - int(spent)
	if remaining < 0 {
		remaining = 0
	}
	return domain.QuotaDecision{
		Class:     class,
		Allowed:   allowed == 1,
		Units:     quota.Units,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}
