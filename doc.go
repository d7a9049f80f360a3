// Package eventra is the authentication and authorization core of the
// Eventra event-planning backend. It issues HS256 JWT access tokens and
// rotating, single-use refresh tokens, verifies emails and resets passwords
// with one-time codes, and enforces the planner/vendor/admin role model.
//
// Everything durable lives in Redis: user records, code hashes, refresh
// token records, and throttle counters. Construct one [Core] through
// [Builder.Build] and share it; all Core methods are safe for concurrent
// use.
//
// # Architecture boundaries
//
// Package eventra is the public surface: [Core], [Builder], [Config], the
// error taxonomy, and the value types flows return. The stores it
// orchestrates live in sub-packages (users, otp, tokens, jwt, password) and
// never reach the public API; HTTP concerns live entirely in httpapi and
// middleware.
//
// # Token model
//
// Access tokens are short-lived and verified statelessly. Refresh tokens
// are long-lived, persisted by hash, and single-use: every exchange
// atomically retires the presented token, so of any number of concurrent
// exchanges exactly one succeeds and a replayed token is reported as reuse.
// Password changes and resets revoke every outstanding refresh token.
package eventra
