package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/eventrahq/eventra/password"
)

var (
	// ErrNotFound is returned when no record exists for the lookup key.
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when the case-folded email already indexes
	// another account.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUnavailable wraps Redis transport failures so callers can
	// distinguish an outage from a miss.
	ErrUnavailable = errors.New("user store unavailable")
)

// Store persists user records. Records live at <prefix>user:id:<id> as JSON;
// a string key <prefix>user:email:<folded> maps each unique email to its id.
type Store struct {
	rdb    redis.UniversalClient
	prefix string
	hasher *password.Hasher
}

// NewStore wires a Store over the given Redis client. The hasher is owned
// by the store: plaintext passwords enter through Create, VerifyPassword,
// and UpdatePassword and never leave this package.
func NewStore(rdb redis.UniversalClient, prefix string, hasher *password.Hasher) *Store {
	return &Store{rdb: rdb, prefix: prefix, hasher: hasher}
}

func (s *Store) idKey(id string) string       { return s.prefix + "user:id:" + id }
func (s *Store) emailKey(email string) string { return s.prefix + "user:email:" + FoldEmail(email) }

// storage encoding: User with the hash re-attached. The shadow field wins
// over the embedded json:"-" one, so the hash round-trips through Redis but
// never through an API marshal of User itself.
type record struct {
	*User
	PasswordHash string `json:"passwordHash"`
}

func encode(u *User) ([]byte, error) {
	return json.Marshal(record{User: u, PasswordHash: u.PasswordHash})
}

func decode(raw []byte) (*User, error) {
	rec := record{User: &User{}}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode user record: %w", err)
	}
	rec.User.PasswordHash = rec.PasswordHash
	return rec.User, nil
}

// Create hashes the password and writes a new record with the defaults
// IsActive=true and EmailVerified=false. The email uniqueness race is
// settled by SET NX on the email index: exactly one concurrent Create for
// the same folded email can win.
func (s *Store) Create(ctx context.Context, in CreateInput) (*User, error) {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	u := &User{
		ID:            uuid.NewString(),
		Email:         FoldEmail(in.Email),
		PasswordHash:  hash,
		FullName:      in.FullName,
		Role:          in.Role,
		PhoneNumber:   in.PhoneNumber,
		IsActive:      true,
		EmailVerified: false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	switch u.Role {
	case RoleVendor:
		u.Vendor = &VendorProfile{}
	case RolePlanner:
		u.Planner = &PlannerProfile{}
	}

	raw, err := encode(u)
	if err != nil {
		return nil, err
	}

	claimed, err := s.rdb.SetNX(ctx, s.emailKey(u.Email), u.ID, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !claimed {
		return nil, ErrEmailTaken
	}

	if err := s.rdb.Set(ctx, s.idKey(u.ID), raw, 0).Err(); err != nil {
		// Release the claimed index so the email is not stranded.
		if delErr := s.rdb.Del(ctx, s.emailKey(u.Email)).Err(); delErr != nil {
			log.Print("eventra: failed to release email index after create failure")
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return u, nil
}

// FindByEmail resolves the case-folded email index and loads the record.
func (s *Store) FindByEmail(ctx context.Context, email string) (*User, error) {
	id, err := s.rdb.Get(ctx, s.emailKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return s.FindByID(ctx, id)
}

// FindByID loads a record by user id.
func (s *Store) FindByID(ctx context.Context, id string) (*User, error) {
	raw, err := s.rdb.Get(ctx, s.idKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return decode(raw)
}

// VerifyPassword reports whether plain matches the stored hash. A mismatch
// or an undecodable hash is simply false; this function never errors on
// wrong input.
func (s *Store) VerifyPassword(plain, hash string) bool {
	ok, err := s.hasher.Verify(plain, hash)
	return err == nil && ok
}

// NeedsRehash reports whether the stored hash predates the current cost
// parameters. Errors decode as "no" so a corrupt hash cannot block login.
func (s *Store) NeedsRehash(hash string) bool {
	needs, err := s.hasher.NeedsRehash(hash)
	return err == nil && needs
}

// UpdatePassword re-hashes and persists a new password, bumping UpdatedAt.
func (s *Store) UpdatePassword(ctx context.Context, id, newPlain string) error {
	hash, err := s.hasher.Hash(newPlain)
	if err != nil {
		return err
	}
	return s.mutate(ctx, id, func(u *User) {
		u.PasswordHash = hash
	})
}

// UpdateProfile merges the allowed patch fields into the record. Fields not
// representable in Patch (email, role, password) cannot travel this path.
func (s *Store) UpdateProfile(ctx context.Context, id string, patch Patch) (*User, error) {
	var updated *User
	err := s.mutate(ctx, id, func(u *User) {
		patch.apply(u)
		updated = u
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetEmailVerified marks the account's email as proven.
func (s *Store) SetEmailVerified(ctx context.Context, id string) error {
	return s.mutate(ctx, id, func(u *User) {
		u.EmailVerified = true
	})
}

// SetActive flips the account's active flag. Deactivation blocks every
// authentication path; it does not delete the record.
func (s *Store) SetActive(ctx context.Context, id string, active bool) error {
	return s.mutate(ctx, id, func(u *User) {
		u.IsActive = active
	})
}

// mutate loads, edits, and rewrites one record, bumping UpdatedAt.
// Profile-grade data tolerates last-write-wins; the single-use invariants
// of the system live in the OTP and refresh-token stores, not here.
func (s *Store) mutate(ctx context.Context, id string, fn func(*User)) error {
	u, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}

	fn(u)
	u.UpdatedAt = time.Now().UTC()

	raw, err := encode(u)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.idKey(id), raw, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
