package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRegistry(t *testing.T) (*Registry, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return New(rdb, ""), mr
}

func TestRevokeAndCheck(t *testing.T) {
	registry, _ := newTestRegistry(t)
	ctx := context.Background()

	if err := registry.Revoke(ctx, "jti-1", "user-1", "logout", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	revoked, err := registry.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if !revoked {
		t.Fatal("jti-1 should be revoked")
	}

	revoked, err = registry.IsRevoked(ctx, "jti-2")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if revoked {
		t.Fatal("jti-2 was never revoked")
	}
}

func TestRevokeExpiredTokenIsNoOp(t *testing.T) {
	registry, _ := newTestRegistry(t)
	ctx := context.Background()

	if err := registry.Revoke(ctx, "jti-old", "user-1", "logout", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("revoke expired: %v", err)
	}

	revoked, err := registry.IsRevoked(ctx, "jti-old")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if revoked {
		t.Fatal("revoking an already expired token should store nothing")
	}
}

func TestEntryExpiresWithToken(t *testing.T) {
	registry, mr := newTestRegistry(t)
	ctx := context.Background()

	if err := registry.Revoke(ctx, "jti-ttl", "user-1", "logout", time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	revoked, err := registry.IsRevoked(ctx, "jti-ttl")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if revoked {
		t.Fatal("entry should expire with the token lifetime")
	}
}

func TestGetEntry(t *testing.T) {
	registry, _ := newTestRegistry(t)
	ctx := context.Background()

	expiry := time.Now().Add(time.Hour).Truncate(time.Second)
	if err := registry.Revoke(ctx, "jti-3", "user-9", "replay", expiry); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	entry, found, err := registry.Get(ctx, "jti-3")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found {
		t.Fatal("entry should be present")
	}
	if entry.IdentityID != "user-9" || entry.Reason != "replay" {
		t.Fatalf("entry = %+v", entry)
	}

	_, found, err = registry.Get(ctx, "jti-absent")
	if err != nil {
		t.Fatalf("get absent: %v", err)
	}
	if found {
		t.Fatal("absent id should report found=false")
	}
}

func TestRevokeEmptyID(t *testing.T) {
	registry, _ := newTestRegistry(t)

	if err := registry.Revoke(context.Background(), "", "user-1", "logout", time.Now().Add(time.Hour)); err == nil {
		t.Fatal("empty token id should be rejected")
	}
}
