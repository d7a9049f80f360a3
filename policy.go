package eventra

import (
	"fmt"
	"strings"

	"github.com/eventrahq/eventra/users"
)

// RequireRole checks that the identity holds one of the allowed roles.
// A nil identity reads as unauthenticated, not as a role mismatch.
func RequireRole(id *Identity, roles ...string) error {
	if id == nil {
		return ErrUnauthorized
	}
	for _, r := range roles {
		if id.Role == r {
			return nil
		}
	}
	return fmt.Errorf("%w: requires %s, have %s", ErrRoleForbidden, strings.Join(roles, " or "), id.Role)
}

// RequireOwner checks that the identity owns the resource. Admins pass
// regardless of ownership.
func RequireOwner(id *Identity, ownerID string) error {
	if id == nil {
		return ErrUnauthorized
	}
	if id.Role == users.RoleAdmin || id.ID == ownerID {
		return nil
	}
	return fmt.Errorf("%w: resource belongs to another account", ErrNotOwner)
}
