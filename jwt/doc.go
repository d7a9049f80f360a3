// Package jwt issues and verifies the access and refresh tokens of the
// authentication core. The two token kinds are signed with distinct HS256
// secrets so that leaking one secret never forges the other kind, and every
// parse enforces algorithm, issuer, audience, and expiry with bounded leeway.
package jwt
