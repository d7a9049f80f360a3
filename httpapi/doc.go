// Package httpapi is the JSON surface over the auth core and the event
// store.
//
// Every response, success or failure, uses one envelope:
//
//	{"success": bool, "message": "...", "data": {...}, "errors": [{"field", "message"}]}
//
// Handlers decode, run exactly one core or store operation, and map its
// error through the shared taxonomy: validation 400, authentication 401,
// authorization 403, lookups 404, duplicate email 409, throttles 429, and
// everything unmapped a logged 500 with a fixed message.
//
// # Architecture boundaries
//
// Handlers never touch Redis, hash passwords, or parse tokens; those live
// behind [eventra.Core] and [events.Store]. The one bridge this package
// owns is id-to-email resolution for the verification endpoints, whose
// clients hold the user id from signup rather than the address.
package httpapi
