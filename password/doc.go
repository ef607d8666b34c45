// Package password provides one-way credential hashing with transparent
// scheme migration.
//
// # Schemes
//
// The current scheme is argon2id in PHC string format. The legacy scheme is
// bcrypt; legacy digests still verify but always report NeedsUpgrade so the
// caller can re-hash with the current scheme after a successful login. The
// upgrade write itself is the caller's responsibility.
//
// # What this package must NOT do
//
//   - Persist anything.
//   - Reveal, via error or timing, whether a failed verification was caused
//     by a wrong secret or an unrecognized digest format.
package password
