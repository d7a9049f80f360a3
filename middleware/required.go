package middleware

import (
	"net/http"

	"github.com/eventrahq/eventra"
)

// Required wires the gate in [ModeRequired]: every request must present a
// valid bearer token for an active account.
func Required(core *eventra.Core) func(http.Handler) http.Handler {
	return Gate(core, ModeRequired)
}
