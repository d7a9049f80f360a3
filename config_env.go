package eventra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// FromEnv builds a Config from EVENTRA_* environment variables layered over
// [DefaultConfig]. Unset variables keep their defaults; the two JWT secrets
// have no default and must be present for [Config.Validate] to pass.
//
//	EVENTRA_REDIS_ADDR              redis host:port
//	EVENTRA_REDIS_PASSWORD          redis AUTH password
//	EVENTRA_REDIS_DB                redis logical database number
//	EVENTRA_REDIS_PREFIX            key prefix, default "eventra:"
//	EVENTRA_JWT_ACCESS_SECRET       access signing secret, >= 32 bytes
//	EVENTRA_JWT_REFRESH_SECRET      refresh signing secret, >= 32 bytes
//	EVENTRA_JWT_ACCESS_TTL          e.g. "15m"
//	EVENTRA_JWT_REFRESH_TTL         e.g. "720h"
//	EVENTRA_JWT_ISSUER              iss claim
//	EVENTRA_JWT_AUDIENCE            aud claim, empty disables the check
//	EVENTRA_REQUIRE_VERIFIED_LOGIN  "true"/"false"
//	EVENTRA_OTP_DIGITS              code length
//	EVENTRA_OTP_TTL                 code validity window
//	EVENTRA_OTP_MAX_ATTEMPTS        wrong-guess budget per code
//	EVENTRA_LOGIN_MAX_FAILURES      login throttle budget, 0 disables
//	EVENTRA_LOGIN_COOLDOWN          login throttle window
//	EVENTRA_LOGIN_IP_THROTTLE       "true"/"false"
//	EVENTRA_OTP_MAX_REQUESTS        OTP issue throttle budget, 0 disables
//	EVENTRA_OTP_COOLDOWN            OTP issue throttle window
//	EVENTRA_REFRESH_MAX             refresh throttle budget, 0 disables
//	EVENTRA_REFRESH_COOLDOWN        refresh throttle window
//	EVENTRA_AUDIT_ENABLED           "true"/"false"
//	EVENTRA_METRICS_ENABLED         "true"/"false"
func FromEnv() (Config, error) {
	cfg := DefaultConfig()
	var err error

	envString(&cfg.Redis.Addr, "EVENTRA_REDIS_ADDR")
	envString(&cfg.Redis.Password, "EVENTRA_REDIS_PASSWORD")
	envInt(&cfg.Redis.DB, "EVENTRA_REDIS_DB", &err)
	envString(&cfg.Redis.KeyPrefix, "EVENTRA_REDIS_PREFIX")

	envSecret(&cfg.JWT.AccessSecret, "EVENTRA_JWT_ACCESS_SECRET")
	envSecret(&cfg.JWT.RefreshSecret, "EVENTRA_JWT_REFRESH_SECRET")
	envDuration(&cfg.JWT.AccessTTL, "EVENTRA_JWT_ACCESS_TTL", &err)
	envDuration(&cfg.JWT.RefreshTTL, "EVENTRA_JWT_REFRESH_TTL", &err)
	envString(&cfg.JWT.Issuer, "EVENTRA_JWT_ISSUER")
	envString(&cfg.JWT.Audience, "EVENTRA_JWT_AUDIENCE")

	envBool(&cfg.Account.RequireVerifiedLogin, "EVENTRA_REQUIRE_VERIFIED_LOGIN", &err)

	envInt(&cfg.OTP.Digits, "EVENTRA_OTP_DIGITS", &err)
	envDuration(&cfg.OTP.TTL, "EVENTRA_OTP_TTL", &err)
	envInt(&cfg.OTP.MaxAttempts, "EVENTRA_OTP_MAX_ATTEMPTS", &err)

	envInt(&cfg.RateLimit.MaxLoginFailures, "EVENTRA_LOGIN_MAX_FAILURES", &err)
	envDuration(&cfg.RateLimit.LoginCooldown, "EVENTRA_LOGIN_COOLDOWN", &err)
	envBool(&cfg.RateLimit.EnableIPThrottle, "EVENTRA_LOGIN_IP_THROTTLE", &err)
	envInt(&cfg.RateLimit.MaxOTPRequests, "EVENTRA_OTP_MAX_REQUESTS", &err)
	envDuration(&cfg.RateLimit.OTPCooldown, "EVENTRA_OTP_COOLDOWN", &err)
	envInt(&cfg.RateLimit.MaxRefreshes, "EVENTRA_REFRESH_MAX", &err)
	envDuration(&cfg.RateLimit.RefreshCooldown, "EVENTRA_REFRESH_COOLDOWN", &err)

	envBool(&cfg.Audit.Enabled, "EVENTRA_AUDIT_ENABLED", &err)
	envBool(&cfg.Metrics.Enabled, "EVENTRA_METRICS_ENABLED", &err)

	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ServerConfig holds the HTTP listener settings. It lives beside [Config]
// rather than inside it because the core never serves HTTP itself.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultServerConfig returns the listener baseline.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:            ":8080",
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     2 * time.Minute,
		ShutdownTimeout: 15 * time.Second,
	}
}

// ServerFromEnv builds a ServerConfig from EVENTRA_HTTP_* variables layered
// over [DefaultServerConfig].
//
//	EVENTRA_HTTP_ADDR              listen address, default ":8080"
//	EVENTRA_HTTP_READ_TIMEOUT      e.g. "10s"
//	EVENTRA_HTTP_WRITE_TIMEOUT     e.g. "30s"
//	EVENTRA_HTTP_IDLE_TIMEOUT      e.g. "2m"
//	EVENTRA_HTTP_SHUTDOWN_TIMEOUT  graceful drain window on SIGTERM
func ServerFromEnv() (ServerConfig, error) {
	cfg := DefaultServerConfig()
	var err error

	envString(&cfg.Addr, "EVENTRA_HTTP_ADDR")
	envDuration(&cfg.ReadTimeout, "EVENTRA_HTTP_READ_TIMEOUT", &err)
	envDuration(&cfg.WriteTimeout, "EVENTRA_HTTP_WRITE_TIMEOUT", &err)
	envDuration(&cfg.IdleTimeout, "EVENTRA_HTTP_IDLE_TIMEOUT", &err)
	envDuration(&cfg.ShutdownTimeout, "EVENTRA_HTTP_SHUTDOWN_TIMEOUT", &err)

	if err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

// The helpers below overwrite the destination only when the variable is set,
// and record the first parse failure in *err so FromEnv reports one error.

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func envSecret(dst *[]byte, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = []byte(v)
	}
}

func envInt(dst *int, key string, err *error) {
	v, ok := os.LookupEnv(key)
	if !ok || *err != nil {
		return
	}
	n, perr := strconv.Atoi(v)
	if perr != nil {
		*err = fmt.Errorf("parse %s: %w", key, perr)
		return
	}
	*dst = n
}

func envBool(dst *bool, key string, err *error) {
	v, ok := os.LookupEnv(key)
	if !ok || *err != nil {
		return
	}
	b, perr := strconv.ParseBool(v)
	if perr != nil {
		*err = fmt.Errorf("parse %s: %w", key, perr)
		return
	}
	*dst = b
}

func envDuration(dst *time.Duration, key string, err *error) {
	v, ok := os.LookupEnv(key)
	if !ok || *err != nil {
		return
	}
	d, perr := time.ParseDuration(v)
	if perr != nil {
		*err = fmt.Errorf("parse %s: %w", key, perr)
		return
	}
	*dst = d
}
