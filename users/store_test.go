package users

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/eventrahq/eventra/password"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run error: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	// Minimal argon2 cost keeps the suite fast; production parameters are
	// exercised in the password package.
	hasher, err := password.New(password.Params{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltBytes:   16,
		KeyBytes:    16,
	})
	if err != nil {
		t.Fatalf("password.New error: %v", err)
	}

	return NewStore(rdb, "test:", hasher)
}

func plannerInput() CreateInput {
	return CreateInput{
		Email:    "Amal@Example.com",
		Password: "Abcdefg1",
		FullName: "Amal Perera",
		Role:     RolePlanner,
	}
}

func TestCreateAndFind(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, plannerInput())
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected a generated id")
	}
	if created.Email != "amal@example.com" {
		t.Fatalf("email not folded: %q", created.Email)
	}
	if !created.IsActive || created.EmailVerified {
		t.Fatalf("unexpected defaults: active=%v verified=%v", created.IsActive, created.EmailVerified)
	}
	if created.Planner == nil || created.Vendor != nil {
		t.Fatal("expected a planner payload and no vendor payload")
	}
	if created.PasswordHash == "" || created.PasswordHash == "Abcdefg1" {
		t.Fatal("password must be stored hashed")
	}

	byID, err := s.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID error: %v", err)
	}
	if byID.Email != created.Email || byID.PasswordHash != created.PasswordHash {
		t.Fatal("record did not round-trip through the store")
	}

	byEmail, err := s.FindByEmail(ctx, "AMAL@example.COM")
	if err != nil {
		t.Fatalf("FindByEmail error: %v", err)
	}
	if byEmail.ID != created.ID {
		t.Fatal("case-folded email lookup resolved the wrong record")
	}
}

func TestCreateDuplicateEmailConflicts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Create(ctx, plannerInput()); err != nil {
		t.Fatalf("first Create error: %v", err)
	}

	dup := plannerInput()
	dup.Email = "amal@EXAMPLE.com" // same address, different case
	dup.FullName = "Somebody Else"
	if _, err := s.Create(ctx, dup); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestFindMissing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.FindByID(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("FindByID: expected ErrNotFound, got %v", err)
	}
	if _, err := s.FindByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("FindByEmail: expected ErrNotFound, got %v", err)
	}
}

func TestVerifyPassword(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.Create(ctx, plannerInput())
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if !s.VerifyPassword("Abcdefg1", u.PasswordHash) {
		t.Fatal("expected correct password to verify")
	}
	if s.VerifyPassword("Wrong-pass1", u.PasswordHash) {
		t.Fatal("expected wrong password to fail")
	}
	if s.VerifyPassword("Abcdefg1", "garbage-hash") {
		t.Fatal("expected undecodable hash to fail quietly")
	}
}

func TestUpdatePassword(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.Create(ctx, plannerInput())
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	oldHash := u.PasswordHash

	if err := s.UpdatePassword(ctx, u.ID, "Newpass99"); err != nil {
		t.Fatalf("UpdatePassword error: %v", err)
	}

	after, err := s.FindByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("FindByID error: %v", err)
	}
	if after.PasswordHash == oldHash {
		t.Fatal("expected a fresh hash after password update")
	}
	if !s.VerifyPassword("Newpass99", after.PasswordHash) {
		t.Fatal("expected new password to verify")
	}
	if !after.UpdatedAt.After(u.UpdatedAt) && !after.UpdatedAt.Equal(u.UpdatedAt) {
		t.Fatal("expected UpdatedAt to move forward")
	}
}

func TestUpdateProfileAllowedFieldsOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.Create(ctx, plannerInput())
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	name := "Amal P."
	phone := "+94 71 555 0101"
	bio := "Weddings and corporate events."
	updated, err := s.UpdateProfile(ctx, u.ID, Patch{
		FullName:    &name,
		PhoneNumber: &phone,
		Planner:     &PlannerPatch{Bio: &bio},
		// Vendor patch on a planner must be ignored.
		Vendor: &VendorPatch{BusinessName: &name},
	})
	if err != nil {
		t.Fatalf("UpdateProfile error: %v", err)
	}

	if updated.FullName != "Amal P." || updated.PhoneNumber != phone {
		t.Fatalf("patch did not apply: %+v", updated)
	}
	if updated.Planner == nil || updated.Planner.Bio != bio {
		t.Fatal("planner payload patch did not apply")
	}
	if updated.Vendor != nil {
		t.Fatal("vendor patch must not apply to a planner record")
	}

	// Credentials and role are unreachable through the patch path.
	if updated.Role != RolePlanner || updated.Email != u.Email || updated.PasswordHash != u.PasswordHash {
		t.Fatal("protected fields changed through profile update")
	}
}

func TestSetActiveAndSetEmailVerified(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.Create(ctx, plannerInput())
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if err := s.SetEmailVerified(ctx, u.ID); err != nil {
		t.Fatalf("SetEmailVerified error: %v", err)
	}
	if err := s.SetActive(ctx, u.ID, false); err != nil {
		t.Fatalf("SetActive error: %v", err)
	}

	after, err := s.FindByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("FindByID error: %v", err)
	}
	if !after.EmailVerified {
		t.Fatal("expected EmailVerified=true")
	}
	if after.IsActive {
		t.Fatal("expected IsActive=false")
	}
}
