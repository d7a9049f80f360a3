package otp

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eventrahq/eventra/internal"
)

// Purpose scopes a code to the flow that issued it. A code issued for one
// purpose never validates under another.
type Purpose uint8

const (
	PurposeEmailVerification Purpose = 1
	PurposePasswordReset     Purpose = 2
)

// String returns the wire name of the purpose, used in storage keys and
// audit metadata.
func (p Purpose) String() string {
	switch p {
	case PurposeEmailVerification:
		return "email_verification"
	case PurposePasswordReset:
		return "password_reset"
	default:
		return "unknown"
	}
}

var (
	// ErrCodeInvalid is returned when no live code exists for the
	// user+purpose or the presented code does not match.
	ErrCodeInvalid = errors.New("otp code invalid")
	// ErrCodeExpired is returned when a stored code exists but its window
	// has passed.
	ErrCodeExpired = errors.New("otp code expired")
	// ErrTooManyAttempts is returned when the mismatch budget for a stored
	// code is exhausted; the code is destroyed when this fires.
	ErrTooManyAttempts = errors.New("otp attempts exceeded")
	// ErrUnavailable wraps Redis transport failures.
	ErrUnavailable = errors.New("otp store unavailable")
)

const recordVersionV1 = 1

// Stored record layout, fixed 44 bytes:
// version(1) purpose(1) attempts(2 BE) expiresAt(8 BE) codeHash(32).
const recordSize = 44

// consumeLua atomically performs GET→validate→DEL on a code record.
// KEYS[1] = record key
// ARGV[1] = provided code hash (32 bytes)
// ARGV[2] = expected purpose (byte value as string)
// ARGV[3] = max attempts
// ARGV[4] = current unix timestamp
//
// Returns the record bytes on success, otherwise an error string:
// "not_found", "expired", "purpose_mismatch", "attempts_exceeded",
// "code_mismatch".
var consumeLua = redis.NewScript(`
local data = redis.call('GET', KEYS[1])
if not data then
  return {err='not_found'}
end

local providedHash = ARGV[1]
local expectedPurpose = tonumber(ARGV[2])
local maxAttempts = tonumber(ARGV[3])
local nowUnix = tonumber(ARGV[4])

if string.len(data) ~= 44 or string.byte(data, 1) ~= 1 then
  redis.call('DEL', KEYS[1])
  return {err='not_found'}
end

local purpose = string.byte(data, 2)
local attempts = string.byte(data, 3) * 256 + string.byte(data, 4)

local expiresAt = 0
for i = 5, 12 do
  expiresAt = expiresAt * 256 + string.byte(data, i)
end

if nowUnix > expiresAt then
  redis.call('DEL', KEYS[1])
  return {err='expired'}
end

if purpose ~= expectedPurpose then
  redis.call('DEL', KEYS[1])
  return {err='purpose_mismatch'}
end

local storedHash = string.sub(data, 13, 44)
if storedHash ~= providedHash then
  attempts = attempts + 1
  if attempts >= maxAttempts then
    redis.call('DEL', KEYS[1])
    return {err='attempts_exceeded'}
  end
  local newData = string.sub(data, 1, 2) .. string.char(math.floor(attempts / 256), attempts % 256) .. string.sub(data, 5)
  local ttlMs = redis.call('PTTL', KEYS[1])
  if ttlMs <= 0 then
    redis.call('DEL', KEYS[1])
    return {err='expired'}
  end
  redis.call('SET', KEYS[1], newData, 'PX', ttlMs)
  return {err='code_mismatch'}
end

redis.call('DEL', KEYS[1])
return data
`)

// Config bounds the manager. Digits is the code length, TTL the validity
// window, MaxAttempts the mismatch budget per stored code.
type Config struct {
	Digits      int
	TTL         time.Duration
	MaxAttempts int
}

// Manager issues and consumes one-time codes. One live code exists per
// user+purpose: issuing again overwrites, which invalidates any prior
// outstanding code for that pair.
type Manager struct {
	rdb    redis.UniversalClient
	prefix string
	config Config
}

// NewManager validates the configuration and returns a Manager.
func NewManager(rdb redis.UniversalClient, prefix string, cfg Config) (*Manager, error) {
	if cfg.Digits < 6 || cfg.Digits > 10 {
		return nil, errors.New("otp: digits must be between 6 and 10")
	}
	if cfg.TTL < time.Minute || cfg.TTL > 24*time.Hour {
		return nil, errors.New("otp: ttl must be between 1m and 24h")
	}
	if cfg.MaxAttempts < 1 || cfg.MaxAttempts > 100 {
		return nil, errors.New("otp: max attempts must be between 1 and 100")
	}
	return &Manager{rdb: rdb, prefix: prefix, config: cfg}, nil
}

func (m *Manager) key(userID string, purpose Purpose) string {
	return m.prefix + "otp:" + purpose.String() + ":" + userID
}

// TTL reports the configured validity window.
func (m *Manager) TTL() time.Duration { return m.config.TTL }

// Issue generates a fresh code for the user+purpose, stores its hash with
// the configured expiry, and returns the plaintext code for delivery.
func (m *Manager) Issue(ctx context.Context, userID string, purpose Purpose) (string, error) {
	code, err := internal.NewOTP(m.config.Digits)
	if err != nil {
		return "", err
	}

	record := encodeRecord(purpose, 0, time.Now().Add(m.config.TTL).Unix(), sha256.Sum256([]byte(code)))
	if err := m.rdb.Set(ctx, m.key(userID, purpose), record, m.config.TTL).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return code, nil
}

// Verify consumes the live code for the user+purpose. On success the stored
// record is gone before Verify returns, so a second call with the same code
// fails with ErrCodeInvalid. Mismatches burn an attempt; expiry and
// purpose scoping are enforced inside the script.
func (m *Manager) Verify(ctx context.Context, userID, code string, purpose Purpose) error {
	providedHash := sha256.Sum256([]byte(code))

	result, err := consumeLua.Run(ctx, m.rdb,
		[]string{m.key(userID, purpose)},
		string(providedHash[:]),
		int(purpose),
		m.config.MaxAttempts,
		time.Now().Unix(),
	).Result()
	if err != nil {
		switch err.Error() {
		case "not_found", "purpose_mismatch", "code_mismatch":
			return ErrCodeInvalid
		case "expired":
			return ErrCodeExpired
		case "attempts_exceeded":
			return ErrTooManyAttempts
		default:
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	data, ok := result.(string)
	if !ok || len(data) != recordSize {
		return fmt.Errorf("%w: unexpected lua result", ErrUnavailable)
	}

	// Lua string comparison is not constant-time; recheck here before
	// treating the consume as a success.
	if subtle.ConstantTimeCompare([]byte(data[12:44]), providedHash[:]) != 1 {
		return ErrCodeInvalid
	}

	return nil
}

// Invalidate removes any live code for the user+purpose. Used once a flow
// completes so a leftover code cannot be replayed into a new flow.
func (m *Manager) Invalidate(ctx context.Context, userID string, purpose Purpose) error {
	if err := m.rdb.Del(ctx, m.key(userID, purpose)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func encodeRecord(purpose Purpose, attempts uint16, expiresAt int64, codeHash [32]byte) []byte {
	buf := make([]byte, 0, recordSize)
	buf = append(buf, recordVersionV1, byte(purpose))
	buf = binary.BigEndian.AppendUint16(buf, attempts)
	buf = binary.BigEndian.AppendUint64(buf, uint64(expiresAt))
	buf = append(buf, codeHash[:]...)
	return buf
}
