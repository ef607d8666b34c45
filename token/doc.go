// Package token mints and verifies the signed access tokens used by
// authcore, and defines the opaque refresh-token wire format.
//
// Access tokens are self-describing JWTs (sub, role, tv, jti, exp, iat,
// iss) signed with Ed25519 or HMAC-SHA256. Refresh tokens are unrelated to
// the JWT format: a random 16-byte record id plus a random 32-byte secret,
// base64url-encoded, carrying no decodable structure.
package token
