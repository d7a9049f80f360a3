package eventra

import (
	"errors"
	"strings"
	"testing"

	"github.com/eventrahq/eventra/users"
)

func TestRequireRole(t *testing.T) {
	planner := &Identity{ID: "u1", Role: users.RolePlanner}

	if err := RequireRole(nil, users.RolePlanner); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("nil identity = %v, want ErrUnauthorized", err)
	}
	if err := RequireRole(planner, users.RolePlanner); err != nil {
		t.Fatalf("matching role rejected: %v", err)
	}
	if err := RequireRole(planner, users.RoleVendor, users.RolePlanner); err != nil {
		t.Fatalf("role in allowed set rejected: %v", err)
	}

	err := RequireRole(planner, users.RoleAdmin)
	if !errors.Is(err, ErrRoleForbidden) {
		t.Fatalf("wrong role = %v, want ErrRoleForbidden", err)
	}
	if !strings.Contains(err.Error(), users.RoleAdmin) || !strings.Contains(err.Error(), users.RolePlanner) {
		t.Fatalf("error should name required and held roles, got %q", err)
	}
}

func TestRequireOwner(t *testing.T) {
	owner := &Identity{ID: "u1", Role: users.RoleVendor}
	other := &Identity{ID: "u2", Role: users.RoleVendor}
	admin := &Identity{ID: "u3", Role: users.RoleAdmin}

	if err := RequireOwner(nil, "u1"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("nil identity = %v, want ErrUnauthorized", err)
	}
	if err := RequireOwner(owner, "u1"); err != nil {
		t.Fatalf("owner rejected: %v", err)
	}
	if err := RequireOwner(admin, "u1"); err != nil {
		t.Fatalf("admin override rejected: %v", err)
	}
	if err := RequireOwner(other, "u1"); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("non-owner = %v, want ErrNotOwner", err)
	}
}
