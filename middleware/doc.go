// Package middleware exposes the HTTP authentication gate built on top of
// eventra.Core.
//
// # Gate
//
//   - [Required] - every request must carry a valid bearer token for an
//     active account; failures are rejected with 401 or 403.
//   - [Optional] - a valid token attaches an identity, anything else passes
//     through anonymously.
//
// The gate reads the Authorization header, calls Core.Authenticate, and
// injects the resolved identity into the request context, where handlers
// recover it with [IdentityFrom].
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Core calls. It does NOT
// implement authentication logic itself; every decision is delegated to
// Core.Authenticate.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Core).
//   - Access Redis (Core handles I/O).
//   - Make role or ownership decisions (the policy helpers do that).
package middleware
