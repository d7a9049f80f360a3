package middleware

import (
	"net/http"

	"github.com/eventrahq/eventra"
)

// Optional wires the gate in [ModeOptional]: a valid bearer token attaches
// an identity, everything else proceeds anonymously.
func Optional(core *eventra.Core) func(http.Handler) http.Handler {
	return Gate(core, ModeOptional)
}
