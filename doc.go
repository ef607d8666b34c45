// Package authcore provides the session and access-control core of an
// auth system: argon2id credential hashing with a legacy upgrade path,
// JWT access tokens, rotating opaque refresh tokens with replay
// detection, a Redis-backed revocation registry, and hierarchy-based
// role checks.
//
// The package is designed for concurrent server workloads: Manager
// methods are safe to call from multiple goroutines after [New].
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Manager], [Config], and
// value types (Identity, TokenPair, Principal, RoleCheck). Storage
// layout, token encoding, and audit dispatch live in the sub-packages
// and under internal/; callers interact with them only through the
// Manager, except for the read-only [role.Hierarchy] handed out by
// [Manager.Roles].
//
// # What this package must NOT do
//
//   - Persist identities. The caller owns the identity backend and
//     supplies it as an [IdentityProvider].
//   - Expose Redis clients or key layouts in its public API.
//   - Distinguish "unknown identifier" from "wrong password" in any
//     caller-observable way.
//
// # Performance contract
//
// Verify is the hot path: one signature check plus one Redis EXISTS and
// one provider lookup per call. Login pays the argon2id derivation;
// Refresh is a single Lua round-trip plus a provider lookup.
package authcore
