// Package revocation provides the shared, expiry-bounded set of
// invalidated access-token ids consulted before trusting any access token.
//
// Entries live in Redis with a TTL equal to the remaining lifetime of the
// token they block, so the store garbage-collects itself; no sweeper runs.
// Because Redis is shared, a revocation performed by one process instance
// is immediately visible to every other instance.
package revocation
