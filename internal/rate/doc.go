// Package rate provides Redis-backed fixed-window rate limiting for
// security-sensitive account workflows.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on the first hit.
// Key layout under the configured prefix:
//   - rl:lu:  - login failures per identifier
//   - rl:lip: - login failures per IP
//   - rl:otp: - OTP issue requests per scope and identifier
//   - rl:r:   - refresh attempts per user
//
// A throttle whose attempt budget is zero or negative is disabled.
//
// # What this package must NOT do
//
//   - Decide HTTP status codes or response bodies.
//   - Be imported outside the eventra module.
package rate
