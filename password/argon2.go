package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	algorithm = "argon2id"

	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltBytes   uint32 = 16
	minKeyBytes    uint32 = 16
)

// DefaultMaxBytes caps password length when Params.MaxBytes is zero. The
// argon2 work factor scales with input length, so unbounded input is a
// denial-of-service vector.
const DefaultMaxBytes = 1024

var (
	// ErrEmptyPassword is returned when an empty string reaches the hasher.
	// Length and character-class policy is enforced before hashing, not here.
	ErrEmptyPassword = errors.New("password must not be empty")

	// ErrPasswordTooLong is returned when input exceeds the configured cap.
	ErrPasswordTooLong = errors.New("password exceeds maximum length")
)

// Params are the argon2id cost parameters. Memory is in KiB. MaxBytes
// bounds accepted input length; zero selects DefaultMaxBytes.
type Params struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltBytes   uint32
	KeyBytes    uint32
	MaxBytes    int
}

// Hasher produces and verifies PHC-encoded argon2id hashes. A Hasher is
// immutable after construction and safe for concurrent use.
type Hasher struct {
	params Params
}

// New validates the cost parameters and returns a Hasher.
func New(p Params) (*Hasher, error) {
	switch {
	case p.Memory < minMemoryKB:
		return nil, errors.New("password: memory must be >= 8192 KiB")
	case p.Time < minTimeCost:
		return nil, errors.New("password: time must be >= 1")
	case p.Parallelism < minParallelism:
		return nil, errors.New("password: parallelism must be >= 1")
	case p.SaltBytes < minSaltBytes:
		return nil, errors.New("password: salt must be >= 16 bytes")
	case p.KeyBytes < minKeyBytes:
		return nil, errors.New("password: key must be >= 16 bytes")
	case p.MaxBytes < 0:
		return nil, errors.New("password: max bytes must not be negative")
	}
	if p.MaxBytes == 0 {
		p.MaxBytes = DefaultMaxBytes
	}
	return &Hasher{params: p}, nil
}

// Hash derives an argon2id hash with a fresh random salt and returns it in
// PHC form: $argon2id$v=19$m=...,t=...,p=...$<salt>$<hash>.
func (h *Hasher) Hash(plain string) (string, error) {
	// Raw string bytes as provided; no Unicode normalization.
	if plain == "" {
		return "", ErrEmptyPassword
	}
	if len(plain) > h.params.MaxBytes {
		return "", ErrPasswordTooLong
	}

	salt := make([]byte, h.params.SaltBytes)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(plain), salt, h.params.Time, h.params.Memory, h.params.Parallelism, h.params.KeyBytes)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithm,
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the hash under the parameters embedded in encoded and
// compares in constant time. A mismatch is (false, nil); only a malformed
// or unsupported encoding produces an error.
func (h *Hasher) Verify(plain, encoded string) (bool, error) {
	if len(plain) > h.params.MaxBytes {
		return false, ErrPasswordTooLong
	}
	rec, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}

	key := argon2.IDKey([]byte(plain), rec.salt, rec.time, rec.memory, rec.parallelism, uint32(len(rec.key)))

	return subtle.ConstantTimeCompare(key, rec.key) == 1, nil
}

// NeedsRehash reports whether encoded was produced with weaker parameters
// than the Hasher currently carries.
func (h *Hasher) NeedsRehash(encoded string) (bool, error) {
	rec, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}
	if h.params.Memory > rec.memory || h.params.Time > rec.time || h.params.Parallelism > rec.parallelism {
		return true, nil
	}
	return h.params.KeyBytes != uint32(len(rec.key)), nil
}

type phcRecord struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func parsePHC(encoded string) (*phcRecord, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, errors.New("password: malformed PHC string")
	}
	if parts[1] != algorithm {
		return nil, errors.New("password: unsupported algorithm")
	}

	version, ok := strings.CutPrefix(parts[2], "v=")
	if !ok {
		return nil, errors.New("password: missing version field")
	}
	if v, err := strconv.Atoi(version); err != nil || v != argon2.Version {
		return nil, errors.New("password: unsupported argon2 version")
	}

	var rec phcRecord
	var seen int
	for _, pair := range strings.Split(parts[3], ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, errors.New("password: malformed parameter field")
		}
		switch k {
		case "m":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil || n < uint64(minMemoryKB) {
				return nil, errors.New("password: bad memory parameter")
			}
			rec.memory = uint32(n)
		case "t":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil || n < uint64(minTimeCost) {
				return nil, errors.New("password: bad time parameter")
			}
			rec.time = uint32(n)
		case "p":
			n, err := strconv.ParseUint(v, 10, 8)
			if err != nil || n < uint64(minParallelism) {
				return nil, errors.New("password: bad parallelism parameter")
			}
			rec.parallelism = uint8(n)
		default:
			return nil, errors.New("password: unknown parameter")
		}
		seen++
	}
	if seen != 3 || rec.memory == 0 || rec.time == 0 || rec.parallelism == 0 {
		return nil, errors.New("password: incomplete parameter field")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) < int(minSaltBytes) {
		return nil, errors.New("password: bad salt field")
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return nil, errors.New("password: bad hash field")
	}

	rec.salt = salt
	rec.key = key
	return &rec, nil
}
