package session

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when no record exists for the given id.
var ErrNotFound = errors.New("session record not found")

// ErrExpired is returned when the record exists but its expiry has passed.
var ErrExpired = errors.New("session record expired")

// ErrCorruptRecord is returned when a stored record fails to decode.
var ErrCorruptRecord = errors.New("session record corrupt")

// ErrRedisUnavailable wraps any backend failure.
var ErrRedisUnavailable = errors.New("redis unavailable")

// ErrReuseDetected is the sentinel unwrapped by [ReplayError]. It fires
// when a presented refresh secret was valid once but is no longer the
// active secret for its record.
var ErrReuseDetected = errors.New("refresh secret reuse detected")

// ReplayError reports refresh-secret reuse together with the owning
// identity, so the caller can cascade revocation across every session of
// that identity.
type ReplayError struct {
	UserID string
	Stage  string // "marker" (record already gone) or "mismatch" (stale secret against live record)
}

func (e *ReplayError) Error() string {
	return "refresh secret reuse detected (" + e.Stage + ")"
}

func (e *ReplayError) Unwrap() error { return ErrReuseDetected }

const (
	rotateStatusNotFound int64 = 0
	rotateStatusExpired  int64 = 1
	rotateStatusMarker   int64 = 2
	rotateStatusMismatch int64 = 3
	rotateStatusRotated  int64 = 4
)

// rotateScript is the atomic consume-and-replace step. Exactly one of two
// racing callers observes the stored hash; the loser lands on the
// mismatch branch or, once the record is gone, on the consumed marker.
//
// The marker value is "<consumed hash hex>:<uid>". The hash hex is a
// fixed 64 characters, so the uid starts at offset 66. The marker branch
// only flags a replay when the presented hash IS the consumed one; any
// other secret against a missing record is a plain not-found.
const rotateScript = `
local record_key = KEYS[1]
local marker_key = KEYS[2]
local provided = ARGV[1]
local next_hash = ARGV[2]
local next_jti = ARGV[3]
local now = tonumber(ARGV[4])
local ttl_ms = tonumber(ARGV[5])
local marker_ms = tonumber(ARGV[6])
local user_prefix = ARGV[7]
local record_id = ARGV[8]
local next_ea = ARGV[9]

if redis.call("EXISTS", record_key) == 0 then
  local marker = redis.call("GET", marker_key)
  if marker and string.sub(marker, 1, 64) == provided then
    return {2, string.sub(marker, 66)}
  end
  return {0}
end

local uid = redis.call("HGET", record_key, "uid")
local stored = redis.call("HGET", record_key, "rh")
local ea = tonumber(redis.call("HGET", record_key, "ea") or "0")
local user_key = user_prefix .. uid

if ea <= now then
  redis.call("DEL", record_key)
  redis.call("SREM", user_key, record_id)
  return {1}
end

if stored ~= provided then
  redis.call("DEL", record_key)
  redis.call("SREM", user_key, record_id)
  redis.call("SET", marker_key, provided .. ":" .. uid, "PX", marker_ms)
  return {3, uid}
end

redis.call("HSET", record_key, "rh", next_hash, "jti", next_jti, "ea", next_ea)
redis.call("PEXPIRE", record_key, ttl_ms)
redis.call("SET", marker_key, provided .. ":" .. uid, "PX", marker_ms)
local vals = redis.call("HMGET", record_key, "uid", "role", "tv", "fp", "ip", "jti", "ca", "ea")
return {4, vals[1], vals[2], vals[3], vals[4], vals[5], vals[6], vals[7], vals[8]}
`

var rotateLua = redis.NewScript(rotateScript)

const removeScript = `
local uid = redis.call("HGET", KEYS[1], "uid")
redis.call("DEL", KEYS[2])
if not uid then
  return 0
end
redis.call("DEL", KEYS[1])
redis.call("SREM", ARGV[1] .. uid, ARGV[2])
return 1
`

var removeLua = redis.NewScript(removeScript)

// Store keeps one Redis hash per live refresh record plus a per-identity
// index set. It is shared state: every process instance rotates and
// revokes against the same keys.
type Store struct {
	redis       redis.UniversalClient
	prefix      string
	reuseWindow time.Duration
}

// NewStore creates a session Store. prefix namespaces all keys;
// reuseWindow bounds how long a consumed secret stays recognizable as
// "was valid before" for replay detection.
func NewStore(redisClient redis.UniversalClient, prefix string, reuseWindow time.Duration) *Store {
	if prefix == "" {
		prefix = "sn"
	}
	if reuseWindow <= 0 {
		reuseWindow = 10 * time.Minute
	}
	return &Store{
		redis:       redisClient,
		prefix:      prefix,
		reuseWindow: reuseWindow,
	}
}

func (s *Store) recordKey(recordID string) string {
	return s.prefix + ":r:" + recordID
}

func (s *Store) userKeyPrefix() string {
	return s.prefix + ":u:"
}

func (s *Store) userKey(userID string) string {
	return s.userKeyPrefix() + userID
}

func (s *Store) markerKey(recordID string) string {
	return s.prefix + ":c:" + recordID
}

// Add persists a new refresh record and indexes it under its identity.
func (s *Store) Add(ctx context.Context, rec *Record, ttl time.Duration) error {
	if rec == nil || rec.RecordID == "" || rec.UserID == "" {
		return errors.New("incomplete session record")
	}

	recordKey := s.recordKey(rec.RecordID)
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, recordKey, rec.fields())
		pipe.PExpire(ctx, recordKey, ttl)
		pipe.SAdd(ctx, s.userKey(rec.UserID), rec.RecordID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// Get fetches a record without mutating any state. Expired records are
// treated as absent.
func (s *Store) Get(ctx context.Context, recordID string) (*Record, error) {
	m, err := s.redis.HGetAll(ctx, s.recordKey(recordID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(m) == 0 {
		return nil, ErrNotFound
	}

	rec, err := recordFromMap(recordID, m)
	if err != nil {
		return nil, err
	}
	if time.Now().Unix() >= rec.ExpiresAt {
		return nil, ErrExpired
	}

	return rec, nil
}

// ConsumeAndReplace atomically verifies providedHash against the stored
// refresh hash and swaps in nextHash and nextTokenID, renewing the record
// lifetime. If two callers race on the same providedHash, exactly one
// succeeds; the other gets a [ReplayError]. A secret that was consumed by
// an earlier rotation and is presented again within the reuse window also
// yields a [ReplayError]; any other secret against a missing record is a
// plain [ErrNotFound].
func (s *Store) ConsumeAndReplace(
	ctx context.Context,
	recordID string,
	providedHash, nextHash [32]byte,
	nextTokenID string,
	ttl time.Duration,
) (*Record, error) {
	now := time.Now()
	nextExpiry := now.Add(ttl).Unix()

	result, err := rotateLua.Run(
		ctx,
		s.redis,
		[]string{s.recordKey(recordID), s.markerKey(recordID)},
		hex.EncodeToString(providedHash[:]),
		hex.EncodeToString(nextHash[:]),
		nextTokenID,
		now.Unix(),
		ttl.Milliseconds(),
		s.reuseWindow.Milliseconds(),
		s.userKeyPrefix(),
		recordID,
		strconv.FormatInt(nextExpiry, 10),
	).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	parts, ok := result.([]interface{})
	if !ok || len(parts) == 0 {
		return nil, fmt.Errorf("%w: invalid rotate script response", ErrRedisUnavailable)
	}
	code, ok := parts[0].(int64)
	if !ok {
		return nil, fmt.Errorf("%w: invalid rotate script status", ErrRedisUnavailable)
	}

	switch code {
	case rotateStatusNotFound:
		return nil, ErrNotFound
	case rotateStatusExpired:
		return nil, ErrExpired
	case rotateStatusMarker:
		return nil, &ReplayError{UserID: luaString(parts, 1), Stage: "marker"}
	case rotateStatusMismatch:
		return nil, &ReplayError{UserID: luaString(parts, 1), Stage: "mismatch"}
	case rotateStatusRotated:
		if len(parts) < 9 {
			return nil, fmt.Errorf("%w: short rotate script response", ErrRedisUnavailable)
		}
		m := map[string]string{
			fieldUserID:       luaString(parts, 1),
			fieldRole:         luaString(parts, 2),
			fieldTokenVersion: luaString(parts, 3),
			fieldFingerprint:  luaString(parts, 4),
			fieldIP:           luaString(parts, 5),
			fieldAccessID:     luaString(parts, 6),
			fieldCreatedAt:    luaString(parts, 7),
			fieldExpiresAt:    luaString(parts, 8),
		}
		rec, err := recordFromMap(recordID, m)
		if err != nil {
			return nil, err
		}
		rec.RefreshHash = nextHash
		return rec, nil
	default:
		return nil, fmt.Errorf("%w: unknown rotate script status", ErrRedisUnavailable)
	}
}

// Remove deletes one record, its index entry, and its consumed marker.
// Removing an absent record is not an error; logout is idempotent, and
// clearing the marker keeps a post-logout refresh retry from reading as
// a replay.
func (s *Store) Remove(ctx context.Context, recordID string) error {
	err := removeLua.Run(
		ctx,
		s.redis,
		[]string{s.recordKey(recordID), s.markerKey(recordID)},
		s.userKeyPrefix(),
		recordID,
	).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// RevokeAll deletes every record for an identity and returns the records
// that were live, so the caller can best-effort revoke their access-token
// ids. Pairs with a token-version bump at the identity record.
func (s *Store) RevokeAll(ctx context.Context, userID string) ([]*Record, error) {
	userKey := s.userKey(userID)

	recordIDs, err := s.redis.SMembers(ctx, userKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	var live []*Record
	if len(recordIDs) > 0 {
		pipe := s.redis.Pipeline()
		cmds := make([]*redis.MapStringStringCmd, len(recordIDs))
		for i, rid := range recordIDs {
			cmds[i] = pipe.HGetAll(ctx, s.recordKey(rid))
		}
		if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}

		nowUnix := time.Now().Unix()
		for i, cmd := range cmds {
			m, cmdErr := cmd.Result()
			if cmdErr != nil || len(m) == 0 {
				continue
			}
			rec, decErr := recordFromMap(recordIDs[i], m)
			if decErr != nil || nowUnix >= rec.ExpiresAt {
				continue
			}
			live = append(live, rec)
		}
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, rid := range recordIDs {
			pipe.Del(ctx, s.recordKey(rid))
			pipe.Del(ctx, s.markerKey(rid))
		}
		pipe.Del(ctx, userKey)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return live, nil
}

// ActiveCount returns the number of indexed records for an identity.
func (s *Store) ActiveCount(ctx context.Context, userID string) (int, error) {
	count, err := s.redis.SCard(ctx, s.userKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return int(count), nil
}

// WasConsumed reports whether a record id carries a recently-consumed
// marker, returning the owning identity when it does.
func (s *Store) WasConsumed(ctx context.Context, recordID string) (string, bool, error) {
	value, err := s.redis.Get(ctx, s.markerKey(recordID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Marker layout: 64 hex chars of consumed hash, ":", owning uid.
	if len(value) < 66 || value[64] != ':' {
		return "", false, ErrCorruptRecord
	}
	return value[65:], true, nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}

func luaString(parts []interface{}, i int) string {
	if i >= len(parts) {
		return ""
	}
	switch v := parts[i].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}
