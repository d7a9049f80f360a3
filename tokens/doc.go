// Package tokens persists refresh tokens in Redis and enforces
// single-use rotation.
//
// A record is keyed by the SHA-256 hash of the signed token string, so
// the store never holds a usable credential at rest. The value carries
// the owning user ID and issue time; record lifetime is the Redis key
// TTL. A per-user index set supports bulk revocation on logout-all,
// password change, and password reset.
//
// Rotation runs as a Lua compare-and-delete: the old record is checked
// and removed and the replacement written in one atomic script, so when
// the same token is presented twice concurrently exactly one caller
// wins and the loser observes [ErrNotFound].
package tokens
