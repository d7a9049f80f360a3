package tokens

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound is returned when no live record exists for the token.
	// Rotation reports it for unknown, expired, and already-rotated
	// tokens alike; callers cannot distinguish replay from expiry.
	ErrNotFound = errors.New("refresh record not found")
	// ErrOwnerMismatch is returned when a live record exists but belongs
	// to a different user than the caller claimed.
	ErrOwnerMismatch = errors.New("refresh record owner mismatch")
	// ErrCorruptRecord is returned when a stored value does not parse.
	ErrCorruptRecord = errors.New("refresh record corrupt")
	// ErrUnavailable wraps Redis transport failures so callers can
	// distinguish an outage from a miss.
	ErrUnavailable = errors.New("token store unavailable")
)

const (
	rotateStatusNotLive       int64 = 0
	rotateStatusOwnerMismatch int64 = 1
	rotateStatusRotated       int64 = 2
)

const rotateScript = `
local old_key = KEYS[1]
local new_key = KEYS[2]
local index_key = KEYS[3]

local old_hash = ARGV[1]
local new_hash = ARGV[2]
local new_value = ARGV[3]
local ttl_ms = tonumber(ARGV[4])
local owner = ARGV[5]

local value = redis.call("GET", old_key)
if not value then
  return 0
end

local sep = string.find(value, "|", 1, true)
if not sep or string.sub(value, 1, sep - 1) ~= owner then
  return 1
end

redis.call("DEL", old_key)
redis.call("SREM", index_key, old_hash)
redis.call("SET", new_key, new_value, "PX", ttl_ms)
redis.call("SADD", index_key, new_hash)
redis.call("PEXPIRE", index_key, ttl_ms)
return 2
`

var rotateLua = redis.NewScript(rotateScript)

// Record is the stored view of one refresh token. Expiry is not carried
// here: it is the Redis key TTL, and an expired record simply stops
// existing.
type Record struct {
	UserID   string
	IssuedAt time.Time
}

// Store is a Redis-backed refresh-token store. Records live at
// <prefix>rt:<sha256-hex>; the set <prefix>rtu:<userID> indexes a
// user's live hashes for bulk revocation.
type Store struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewStore wires a Store over the given Redis client.
func NewStore(rdb redis.UniversalClient, prefix string) *Store {
	return &Store{rdb: rdb, prefix: prefix}
}

func (s *Store) key(hash string) string       { return s.prefix + "rt:" + hash }
func (s *Store) userKey(userID string) string { return s.prefix + "rtu:" + userID }

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func encodeValue(userID string, issued time.Time) string {
	return userID + "|" + strconv.FormatInt(issued.Unix(), 10)
}

func parseValue(v string) (string, time.Time, error) {
	userID, rest, ok := strings.Cut(v, "|")
	if !ok || userID == "" {
		return "", time.Time{}, ErrCorruptRecord
	}
	unix, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return "", time.Time{}, ErrCorruptRecord
	}
	return userID, time.Unix(unix, 0).UTC(), nil
}

// Save persists a freshly issued token for ttl. The per-user index
// inherits the same ttl; every member's record expires no later than
// the index, so the index never outlives its last live token by more
// than one refresh lifetime.
func (s *Store) Save(ctx context.Context, userID, token string, issued time.Time, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("refresh ttl must be positive, got %v", ttl)
	}

	hash := hashToken(token)
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(hash), encodeValue(userID, issued), ttl)
		pipe.SAdd(ctx, s.userKey(userID), hash)
		pipe.Expire(ctx, s.userKey(userID), ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Rotate atomically consumes the old token and persists the new one.
// The swap runs in a single Lua script, so when two callers present the
// same old token exactly one sees nil and the other [ErrNotFound].
//
// The stored owner is checked against userID before anything is
// mutated; a mismatch leaves the old record intact and returns
// [ErrOwnerMismatch].
func (s *Store) Rotate(ctx context.Context, userID, oldToken, newToken string, issued time.Time, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("refresh ttl must be positive, got %v", ttl)
	}

	oldHash := hashToken(oldToken)
	newHash := hashToken(newToken)

	result, err := rotateLua.Run(
		ctx,
		s.rdb,
		[]string{s.key(oldHash), s.key(newHash), s.userKey(userID)},
		oldHash,
		newHash,
		encodeValue(userID, issued),
		ttl.Milliseconds(),
		userID,
	).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	code, ok := result.(int64)
	if !ok {
		return fmt.Errorf("%w: invalid rotate script response", ErrUnavailable)
	}

	switch code {
	case rotateStatusNotLive:
		return ErrNotFound
	case rotateStatusOwnerMismatch:
		return ErrOwnerMismatch
	case rotateStatusRotated:
		return nil
	default:
		return fmt.Errorf("%w: unknown rotate script status %d", ErrUnavailable, code)
	}
}

// Revoke removes a single token. Revoking a token that is already gone
// is not an error.
func (s *Store) Revoke(ctx context.Context, userID, token string) error {
	hash := hashToken(token)
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(hash))
		pipe.SRem(ctx, s.userKey(userID), hash)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// RevokeAll removes every live token for a user and returns how many
// records were deleted.
//
// ATOMICITY NOTE: this is not fully atomic. It reads the user's index
// (SMembers) and then deletes the records (TxPipelined DEL); a token
// saved between the two phases is not captured. The window is extremely
// narrow and the stray token expires naturally or falls to the next
// RevokeAll call.
func (s *Store) RevokeAll(ctx context.Context, userID string) (int, error) {
	userKey := s.userKey(userID)

	hashes, err := s.rdb.SMembers(ctx, userKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	keys := make([]string, 0, len(hashes))
	for _, h := range hashes {
		keys = append(keys, s.key(h))
	}

	var removed *redis.IntCmd
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(keys) > 0 {
			removed = pipe.Del(ctx, keys...)
		}
		pipe.Del(ctx, userKey)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if removed == nil {
		return 0, nil
	}
	n, err := removed.Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return int(n), nil
}

// Get fetches the record for a token without mutating any state.
// Returns [ErrNotFound] when the token was never saved, was revoked, or
// has expired.
func (s *Store) Get(ctx context.Context, token string) (*Record, error) {
	v, err := s.rdb.Get(ctx, s.key(hashToken(token))).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	userID, issued, err := parseValue(v)
	if err != nil {
		return nil, err
	}
	return &Record{UserID: userID, IssuedAt: issued}, nil
}
