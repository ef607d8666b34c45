package lockout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLocked is returned by Check while an identifier is inside its
// lockout window.
var ErrLocked = errors.New("account temporarily locked")

// ErrRedisUnavailable wraps any backend failure.
var ErrRedisUnavailable = errors.New("redis unavailable")

// Config holds the failed-login accounting parameters.
type Config struct {
	Threshold    int           // failures before the account locks
	LockDuration time.Duration // how long the lock (and the counter window) lasts
	ThrottleByIP bool          // additionally count failures per source IP
}

// Limiter tracks failed login attempts per identifier (and optionally per
// IP) in Redis fixed windows. Once the threshold is crossed, Check fails
// fast until the window expires, without any credential verification.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a Limiter backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

func identifierKey(identifier string) string {
	return "lf:u:" + identifier
}

func ipKey(ip string) string {
	return "lf:i:" + ip
}

// Check reports whether the identifier (or IP) is currently locked out.
func (l *Limiter) Check(ctx context.Context, identifier, ip string) error {
	if err := l.checkCounter(ctx, identifierKey(identifier)); err != nil {
		return err
	}

	if l.config.ThrottleByIP && ip != "" {
		if err := l.checkCounter(ctx, ipKey(ip)); err != nil {
			return err
		}
	}

	return nil
}

// RecordFailure counts one failed attempt and reports whether this
// failure crossed the lockout threshold.
func (l *Limiter) RecordFailure(ctx context.Context, identifier, ip string) (bool, error) {
	count, err := l.incrementWithTTL(ctx, identifierKey(identifier))
	if err != nil {
		return false, err
	}
	locked := count >= int64(l.config.Threshold)

	if l.config.ThrottleByIP && ip != "" {
		ipCount, err := l.incrementWithTTL(ctx, ipKey(ip))
		if err != nil {
			return locked, err
		}
		if ipCount >= int64(l.config.Threshold) {
			locked = true
		}
	}

	return locked, nil
}

// Reset clears the failure counters after a successful login or a
// password change.
func (l *Limiter) Reset(ctx context.Context, identifier, ip string) error {
	keys := []string{identifierKey(identifier)}
	if l.config.ThrottleByIP && ip != "" {
		keys = append(keys, ipKey(ip))
	}

	if err := l.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Failures returns the current failure count for an identifier. Missing
// keys return zero and do not reveal account existence.
func (l *Limiter) Failures(ctx context.Context, identifier string) (int, error) {
	count, err := l.redis.Get(ctx, identifierKey(identifier)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

func (l *Limiter) checkCounter(ctx context.Context, key string) error {
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	if count >= int64(l.config.Threshold) {
		return ErrLocked
	}
	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: the TTL is set on the first failure only.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.LockDuration).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}
