package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/eventrahq/eventra"
)

// Mode selects how the gate treats requests without a usable credential.
type Mode int

const (
	// ModeRequired rejects any request that does not carry a valid bearer
	// token for an active account.
	ModeRequired Mode = iota
	// ModeOptional attaches an identity when a valid token is present and
	// passes everything else through anonymously.
	ModeOptional
)

type identityContextKey struct{}

// IdentityFrom recovers the identity the gate attached to the request
// context. The second return is false on anonymous requests.
func IdentityFrom(ctx context.Context) (*eventra.Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(*eventra.Identity)
	return id, ok
}

// Gate returns middleware that resolves the Authorization bearer token
// through Core.Authenticate and injects the identity into the request
// context. The account's active flag is re-checked on every request, so a
// deactivation takes effect before the access token expires.
func Gate(core *eventra.Core, mode Mode) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if core == nil {
				reject(w, http.StatusUnauthorized, "authentication required")
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				if mode == ModeOptional {
					next.ServeHTTP(w, r)
					return
				}
				reject(w, http.StatusUnauthorized, "authentication required")
				return
			}

			id, err := core.Authenticate(r.Context(), token)
			if err != nil {
				if mode == ModeOptional {
					next.ServeHTTP(w, r)
					return
				}
				if errors.Is(err, eventra.ErrAccountDisabled) {
					reject(w, http.StatusForbidden, "account deactivated")
					return
				}
				reject(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}

func reject(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": message,
	})
}
