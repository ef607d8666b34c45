package revocation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps any backend failure. Callers on the
// verification path treat it as fail-closed.
var ErrRedisUnavailable = errors.New("redis unavailable")

// Entry records why a token id was revoked. Entries self-destruct via key
// TTL once the access token they block could no longer be valid anyway.
type Entry struct {
	TokenID    string    `json:"token_id"`
	IdentityID string    `json:"identity_id"`
	Reason     string    `json:"reason"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Registry is the shared set of invalidated access-token ids. It must be
// backed by a store visible to every process instance that verifies
// tokens; a per-process set silently reopens revoked credentials on other
// instances.
type Registry struct {
	redis  redis.UniversalClient
	prefix string
}

// New creates a Registry using the given Redis client and key prefix.
func New(redisClient redis.UniversalClient, prefix string) *Registry {
	if prefix == "" {
		prefix = "rv"
	}
	return &Registry{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (r *Registry) key(tokenID string) string {
	return r.prefix + ":" + tokenID
}

// Revoke marks a token id as invalid until expiresAt. Revoking an already
// expired token is a no-op: expiry alone rejects it.
func (r *Registry) Revoke(ctx context.Context, tokenID, identityID, reason string, expiresAt time.Time) error {
	if tokenID == "" {
		return errors.New("empty token id")
	}

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}

	entry := Entry{
		TokenID:    tokenID,
		IdentityID: identityID,
		Reason:     reason,
		ExpiresAt:  expiresAt,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	if err := r.redis.Set(ctx, r.key(tokenID), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// IsRevoked reports whether a token id is present in the registry.
func (r *Registry) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.redis.Exists(ctx, r.key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n > 0, nil
}

// Get returns the revocation entry for a token id, or found=false when the
// id is not (or no longer) revoked.
func (r *Registry) Get(ctx context.Context, tokenID string) (Entry, bool, error) {
	data, err := r.redis.Get(ctx, r.key(tokenID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, false, err
	}
	return entry, true, nil
}
