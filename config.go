package eventra

import (
	"bytes"
	"errors"
	"time"
)

// Config carries every tunable of the core. Populate it once, pass it to the
// builder, and treat it as immutable afterwards; the builder keeps a deep
// copy so later mutation of the caller's value has no effect.
type Config struct {
	Redis     RedisConfig
	JWT       JWTConfig
	Password  PasswordConfig
	OTP       OTPConfig
	Account   AccountConfig
	RateLimit RateLimitConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
REDIS CONFIG
====================================
*/

// RedisConfig locates the Redis instance backing users, codes, refresh
// tokens, and throttles. KeyPrefix namespaces every key the core writes.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig carries the HS256 signing material and token lifetimes. The two
// secrets must differ so neither token kind verifies under the other's key.
type JWTConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Leeway        time.Duration
	Issuer        string
	Audience      string
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig carries the argon2id cost parameters. Memory is in KiB.
// UpgradeOnLogin re-hashes stored credentials at login when these parameters
// have been raised since the hash was written.
type PasswordConfig struct {
	Memory         uint32
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	UpgradeOnLogin bool
}

/*
====================================
OTP CONFIG
====================================
*/

// OTPConfig bounds one-time codes: length in digits, validity window, and
// the wrong-guess budget per issued code.
type OTPConfig struct {
	Digits      int
	TTL         time.Duration
	MaxAttempts int
}

/*
====================================
ACCOUNT CONFIG
====================================
*/

// AccountConfig carries account-lifecycle policy.
type AccountConfig struct {
	// RequireVerifiedLogin blocks login until the account's email has been
	// confirmed. Leave it on unless a deployment verifies out of band.
	RequireVerifiedLogin bool
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig bounds the fixed-window throttles. A zero or negative
// budget disables that throttle.
type RateLimitConfig struct {
	EnableIPThrottle bool
	MaxLoginFailures int
	LoginCooldown    time.Duration
	MaxOTPRequests   int
	OTPCooldown      time.Duration
	MaxRefreshes     int
	RefreshCooldown  time.Duration
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the async audit pipeline. When DropIfFull is set a
// full buffer drops events instead of blocking the authentication path.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig controls the in-process counters and latency histograms.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns a production-sane baseline. JWT secrets are not
// defaulted; every deployment must supply its own.
func DefaultConfig() Config {
	return Config{
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			KeyPrefix: "eventra:",
		},
		JWT: JWTConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 30 * 24 * time.Hour,
			Leeway:     30 * time.Second,
			Issuer:     "eventra",
		},
		Password: PasswordConfig{
			Memory:         64 * 1024,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			UpgradeOnLogin: true,
		},
		OTP: OTPConfig{
			Digits:      6,
			TTL:         10 * time.Minute,
			MaxAttempts: 5,
		},
		Account: AccountConfig{
			RequireVerifiedLogin: true,
		},
		RateLimit: RateLimitConfig{
			EnableIPThrottle: true,
			MaxLoginFailures: 5,
			LoginCooldown:    15 * time.Minute,
			MaxOTPRequests:   3,
			OTPCooldown:      15 * time.Minute,
			MaxRefreshes:     30,
			RefreshCooldown:  time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

// Validate rejects configurations that would weaken the system or fail at
// first use. It runs once inside the builder, before anything touches Redis.
func (c *Config) Validate() error {
	if c.Redis.Addr == "" {
		return errors.New("config: redis address is required")
	}
	if c.Redis.DB < 0 {
		return errors.New("config: redis DB must not be negative")
	}

	if len(c.JWT.AccessSecret) < 32 {
		return errors.New("config: JWT access secret must be at least 32 bytes")
	}
	if len(c.JWT.RefreshSecret) < 32 {
		return errors.New("config: JWT refresh secret must be at least 32 bytes")
	}
	if bytes.Equal(c.JWT.AccessSecret, c.JWT.RefreshSecret) {
		return errors.New("config: access and refresh secrets must differ")
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("config: access TTL must be positive")
	}
	if c.JWT.RefreshTTL <= c.JWT.AccessTTL {
		return errors.New("config: refresh TTL must exceed access TTL")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("config: leeway must be between 0 and 2m")
	}

	if c.Password.Memory < 8*1024 {
		return errors.New("config: argon2 memory must be at least 8192 KiB")
	}
	if c.Password.Time < 1 {
		return errors.New("config: argon2 time cost must be at least 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("config: argon2 parallelism must be at least 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("config: salt length must be at least 16 bytes")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("config: key length must be at least 16 bytes")
	}

	if c.OTP.Digits < 6 || c.OTP.Digits > 10 {
		return errors.New("config: OTP digits must be between 6 and 10")
	}
	if c.OTP.TTL < time.Minute || c.OTP.TTL > 24*time.Hour {
		return errors.New("config: OTP TTL must be between 1m and 24h")
	}
	if c.OTP.MaxAttempts < 1 || c.OTP.MaxAttempts > 100 {
		return errors.New("config: OTP max attempts must be between 1 and 100")
	}

	if c.RateLimit.MaxLoginFailures > 0 && c.RateLimit.LoginCooldown <= 0 {
		return errors.New("config: login cooldown required when login throttle is enabled")
	}
	if c.RateLimit.MaxOTPRequests > 0 && c.RateLimit.OTPCooldown <= 0 {
		return errors.New("config: OTP cooldown required when OTP throttle is enabled")
	}
	if c.RateLimit.MaxRefreshes > 0 && c.RateLimit.RefreshCooldown <= 0 {
		return errors.New("config: refresh cooldown required when refresh throttle is enabled")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("config: audit buffer size must be positive")
	}

	return nil
}

// cloneConfig deep-copies a Config, including the secret byte slices, so the
// built core never aliases caller-owned memory.
func cloneConfig(c Config) Config {
	out := c
	out.JWT.AccessSecret = cloneBytes(c.JWT.AccessSecret)
	out.JWT.RefreshSecret = cloneBytes(c.JWT.RefreshSecret)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
