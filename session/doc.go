// Package session provides Redis-backed refresh-token records and the
// atomic consume-and-replace rotation step.
//
// # State machine
//
// A record moves ACTIVE → consumed (normal rotation, same record id with a
// new secret hash) or ACTIVE → revoked (logout / mass invalidation, record
// deleted). Rotation and mismatch deletion leave a short-lived marker
// carrying the consumed secret's hash, so replaying that exact secret is
// recognized as "was valid before" rather than silently reported as
// missing. Remove and RevokeAll clear the marker: after a clean logout or
// sweep, any retry is a plain not-found, never a replay.
//
// # Architecture boundaries
//
// This package owns Redis layout and atomicity. It does not interpret
// access tokens, compare token versions, or decide what a replay implies —
// the Manager cascades revocation when it sees a [ReplayError].
//
// # What this package must NOT do
//
//   - Import authcore, token, or revocation (no upward imports).
//   - Store a refresh secret in plaintext.
//   - Resolve a rotation race to more than one winner.
package session
