// Package otp issues and verifies the short-lived numeric codes used for
// email verification and password reset. A code is bound to one user and
// one purpose, expires after a configured window, and is consumed at most
// once: the verify path runs a single Redis Lua script so that no two
// verifications can both succeed on the same stored code.
package otp
