package httpapi

import (
	"net/http"
	"testing"
	"time"

	"github.com/eventrahq/eventra"
)

func eventBody(title string) map[string]any {
	return map[string]any{
		"title":  title,
		"date":   time.Now().AddDate(0, 1, 0).UTC().Format(time.RFC3339),
		"venue":  "Riverside Hall",
		"budget": 12000.0,
	}
}

func (f *fixture) createEvent(t *testing.T, access, title string) string {
	t.Helper()
	status, env := f.request(t, http.MethodPost, "/api/events", access, eventBody(title))
	if status != http.StatusCreated {
		t.Fatalf("create event returned %d: %+v", status, env)
	}
	id, ok := dataMap(t, env, "event")["id"].(string)
	if !ok || id == "" {
		t.Fatalf("create event returned no id: %+v", env)
	}
	return id
}

func TestEventLifecycle(t *testing.T) {
	f := newFixture(t)
	userID, access, _ := f.verifiedSession(t, "planner@example.com", "Str0ngPass", "planner")

	status, env := f.request(t, http.MethodPost, "/api/events", access, eventBody("Launch Gala"))
	if status != http.StatusCreated || !env.Success {
		t.Fatalf("create returned %d: %+v", status, env)
	}
	ev := dataMap(t, env, "event")
	if ev["ownerId"] != userID {
		t.Fatalf("event owner should be the caller: %#v", ev)
	}
	if ev["status"] != "draft" {
		t.Fatalf("expected default status draft, got %v", ev["status"])
	}
	eventID := ev["id"].(string)

	status, env = f.request(t, http.MethodGet, "/api/events/"+eventID, access, nil)
	if status != http.StatusOK || dataMap(t, env, "event")["title"] != "Launch Gala" {
		t.Fatalf("get returned %d: %+v", status, env)
	}

	status, env = f.request(t, http.MethodPut, "/api/events/"+eventID, access, map[string]any{
		"title":  "Launch Gala 2026",
		"status": "planned",
	})
	if status != http.StatusOK {
		t.Fatalf("update returned %d: %+v", status, env)
	}
	updated := dataMap(t, env, "event")
	if updated["title"] != "Launch Gala 2026" || updated["status"] != "planned" {
		t.Fatalf("patch not applied: %#v", updated)
	}
	if updated["venue"] != "Riverside Hall" {
		t.Fatalf("untouched field must survive the patch: %#v", updated)
	}

	status, env = f.request(t, http.MethodGet, "/api/events", access, nil)
	if status != http.StatusOK {
		t.Fatalf("list returned %d: %+v", status, env)
	}
	obj := env.Data.(map[string]any)
	list, ok := obj["events"].([]any)
	if !ok || len(list) != 1 {
		t.Fatalf("expected one listed event, got %#v", obj["events"])
	}

	status, env = f.request(t, http.MethodDelete, "/api/events/"+eventID, access, nil)
	if status != http.StatusOK || !env.Success {
		t.Fatalf("delete returned %d: %+v", status, env)
	}

	status, env = f.request(t, http.MethodGet, "/api/events/"+eventID, access, nil)
	if status != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", status)
	}
	if env.Message != eventra.ErrEventNotFound.Error() {
		t.Fatalf("unexpected message: %+v", env)
	}
}

func TestEventCreateRoleGate(t *testing.T) {
	f := newFixture(t)
	_, vendorAccess, _ := f.verifiedSession(t, "vendor@example.com", "Str0ngPass", "vendor")
	_, adminAccess, _ := f.verifiedSession(t, "admin@example.com", "Str0ngPass", "admin")

	status, env := f.request(t, http.MethodPost, "/api/events", vendorAccess, eventBody("Vendor Party"))
	if status != http.StatusForbidden {
		t.Fatalf("vendor create: expected 403, got %d: %+v", status, env)
	}
	if env.Message != eventra.ErrRoleForbidden.Error() {
		t.Fatalf("unexpected message: %+v", env)
	}

	status, _ = f.request(t, http.MethodPost, "/api/events", adminAccess, eventBody("Admin Summit"))
	if status != http.StatusCreated {
		t.Fatalf("admin create: expected 201, got %d", status)
	}
}

func TestEventOwnershipEnforced(t *testing.T) {
	f := newFixture(t)
	_, ownerAccess, _ := f.verifiedSession(t, "owner@example.com", "Str0ngPass", "planner")
	_, otherAccess, _ := f.verifiedSession(t, "other@example.com", "Str0ngPass", "planner")
	_, adminAccess, _ := f.verifiedSession(t, "root@example.com", "Str0ngPass", "admin")

	eventID := f.createEvent(t, ownerAccess, "Private Retreat")

	for _, tc := range []struct {
		name   string
		method string
		body   any
	}{
		{"get", http.MethodGet, nil},
		{"update", http.MethodPut, map[string]any{"title": "Hijacked"}},
		{"delete", http.MethodDelete, nil},
	} {
		status, env := f.request(t, tc.method, "/api/events/"+eventID, otherAccess, tc.body)
		if status != http.StatusForbidden {
			t.Fatalf("%s by non-owner: expected 403, got %d: %+v", tc.name, status, env)
		}
		if env.Message != eventra.ErrNotOwner.Error() {
			t.Fatalf("%s: unexpected message: %+v", tc.name, env)
		}
	}

	// Admins bypass ownership.
	status, _ := f.request(t, http.MethodGet, "/api/events/"+eventID, adminAccess, nil)
	if status != http.StatusOK {
		t.Fatalf("admin get: expected 200, got %d", status)
	}

	// The owner still holds the event untouched.
	status, env := f.request(t, http.MethodGet, "/api/events/"+eventID, ownerAccess, nil)
	if status != http.StatusOK || dataMap(t, env, "event")["title"] != "Private Retreat" {
		t.Fatalf("owner view changed: %d: %+v", status, env)
	}
}

func TestEventListOwnerQuery(t *testing.T) {
	f := newFixture(t)
	ownerID, ownerAccess, _ := f.verifiedSession(t, "lister@example.com", "Str0ngPass", "planner")
	_, otherAccess, _ := f.verifiedSession(t, "peer@example.com", "Str0ngPass", "planner")
	_, adminAccess, _ := f.verifiedSession(t, "boss@example.com", "Str0ngPass", "admin")

	f.createEvent(t, ownerAccess, "Board Meeting")
	f.createEvent(t, ownerAccess, "Team Offsite")

	status, env := f.request(t, http.MethodGet, "/api/events?owner="+ownerID, adminAccess, nil)
	if status != http.StatusOK {
		t.Fatalf("admin owner query returned %d: %+v", status, env)
	}
	if list, ok := env.Data.(map[string]any)["events"].([]any); !ok || len(list) != 2 {
		t.Fatalf("admin should see the owner's two events: %+v", env.Data)
	}

	status, env = f.request(t, http.MethodGet, "/api/events?owner="+ownerID, otherAccess, nil)
	if status != http.StatusForbidden {
		t.Fatalf("peer owner query: expected 403, got %d: %+v", status, env)
	}

	// A plain list stays scoped to the caller.
	status, env = f.request(t, http.MethodGet, "/api/events", otherAccess, nil)
	if status != http.StatusOK {
		t.Fatalf("peer list returned %d", status)
	}
	if list, ok := env.Data.(map[string]any)["events"].([]any); !ok || len(list) != 0 {
		t.Fatalf("peer should see an empty list: %+v", env.Data)
	}
}

func TestEventValidationErrors(t *testing.T) {
	f := newFixture(t)
	_, access, _ := f.verifiedSession(t, "strict@example.com", "Str0ngPass", "planner")

	status, env := f.request(t, http.MethodPost, "/api/events", access, map[string]any{
		"budget": -5.0,
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %+v", status, env)
	}
	fields := map[string]bool{}
	for _, fe := range env.Errors {
		fields[fe.Field] = true
	}
	for _, want := range []string{"title", "date", "budget"} {
		if !fields[want] {
			t.Fatalf("missing %s field error: %+v", want, env.Errors)
		}
	}

	status, env = f.request(t, http.MethodPost, "/api/events", access, map[string]any{
		"title":  "Bad Status",
		"date":   time.Now().UTC().Format(time.RFC3339),
		"status": "imaginary",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("bad status: expected 400, got %d", status)
	}

	eventID := f.createEvent(t, access, "Valid Event")
	status, env = f.request(t, http.MethodPut, "/api/events/"+eventID, access, map[string]any{
		"title": "   ",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("blank patched title: expected 400, got %d: %+v", status, env)
	}
}

func TestEventRoutesRequireAuth(t *testing.T) {
	f := newFixture(t)

	for _, tc := range []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodPost, "/api/events", eventBody("Nope")},
		{http.MethodGet, "/api/events", nil},
		{http.MethodGet, "/api/events/some-id", nil},
		{http.MethodDelete, "/api/events/some-id", nil},
	} {
		status, env := f.request(t, tc.method, tc.path, "", tc.body)
		if status != http.StatusUnauthorized {
			t.Fatalf("%s %s without token: expected 401, got %d", tc.method, tc.path, status)
		}
		if env.Success {
			t.Fatalf("%s %s: expected failure envelope: %+v", tc.method, tc.path, env)
		}
	}
}
