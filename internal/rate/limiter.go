package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds rate limiter tuning parameters. A zero or negative
// attempt budget disables the corresponding throttle.
type Config struct {
	EnableIPThrottle bool
	MaxLoginFailures int
	LoginCooldown    time.Duration
	MaxOTPRequests   int
	OTPCooldown      time.Duration
	MaxRefreshes     int
	RefreshCooldown  time.Duration
}

// Limiter enforces fixed-window rate limits for login, OTP issue, and
// refresh operations using Redis counters.
type Limiter struct {
	rdb    redis.UniversalClient
	prefix string
	config Config
}

// New creates a rate [Limiter] backed by the given Redis client.
func New(rdb redis.UniversalClient, prefix string, cfg Config) *Limiter {
	return &Limiter{rdb: rdb, prefix: prefix, config: cfg}
}

func (l *Limiter) loginUserKey(identifier string) string { return l.prefix + "rl:lu:" + identifier }
func (l *Limiter) loginIPKey(ip string) string           { return l.prefix + "rl:lip:" + ip }
func (l *Limiter) refreshKey(userID string) string       { return l.prefix + "rl:r:" + userID }

func (l *Limiter) otpKey(scope, identifier string) string {
	return l.prefix + "rl:otp:" + scope + ":" + identifier
}

// CheckLogin reports whether the identifier+IP pair is still within the
// failed-login budget. It does not count the attempt; callers record
// failures with [Limiter.IncrementLogin].
func (l *Limiter) CheckLogin(ctx context.Context, identifier, ip string) error {
	if l.config.MaxLoginFailures <= 0 {
		return nil
	}

	if err := l.checkCounter(ctx, l.loginUserKey(identifier), l.config.MaxLoginFailures); err != nil {
		return err
	}
	if l.config.EnableIPThrottle && ip != "" {
		if err := l.checkCounter(ctx, l.loginIPKey(ip), l.config.MaxLoginFailures); err != nil {
			return err
		}
	}
	return nil
}

// IncrementLogin records a failed login attempt for the identifier+IP
// pair. Returns [ErrRateLimited] once the window budget is exhausted.
func (l *Limiter) IncrementLogin(ctx context.Context, identifier, ip string) error {
	if l.config.MaxLoginFailures <= 0 {
		return nil
	}

	count, err := l.incrementWithTTL(ctx, l.loginUserKey(identifier), l.config.LoginCooldown)
	if err != nil {
		return err
	}
	limited := count > int64(l.config.MaxLoginFailures)

	if l.config.EnableIPThrottle && ip != "" {
		count, err = l.incrementWithTTL(ctx, l.loginIPKey(ip), l.config.LoginCooldown)
		if err != nil {
			return err
		}
		if count > int64(l.config.MaxLoginFailures) {
			limited = true
		}
	}

	if limited {
		return ErrRateLimited
	}
	return nil
}

// ResetLogin clears the failed-login counters for the identifier+IP
// pair. Called after a successful login or password change.
func (l *Limiter) ResetLogin(ctx context.Context, identifier, ip string) error {
	if l.config.MaxLoginFailures <= 0 {
		return nil
	}

	keys := []string{l.loginUserKey(identifier)}
	if l.config.EnableIPThrottle && ip != "" {
		keys = append(keys, l.loginIPKey(ip))
	}
	if err := l.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// CheckOTPIssue counts an OTP issue request for the scope+identifier
// pair and returns [ErrRateLimited] when the window budget is exceeded.
// The scope keeps verification and reset budgets independent.
func (l *Limiter) CheckOTPIssue(ctx context.Context, scope, identifier string) error {
	if l.config.MaxOTPRequests <= 0 {
		return nil
	}

	count, err := l.incrementWithTTL(ctx, l.otpKey(scope, identifier), l.config.OTPCooldown)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxOTPRequests) {
		return ErrRateLimited
	}
	return nil
}

// CheckRefresh counts a refresh attempt for the user and returns
// [ErrRateLimited] when the window budget is exceeded.
func (l *Limiter) CheckRefresh(ctx context.Context, userID string) error {
	if l.config.MaxRefreshes <= 0 {
		return nil
	}

	count, err := l.incrementWithTTL(ctx, l.refreshKey(userID), l.config.RefreshCooldown)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxRefreshes) {
		return ErrRateLimited
	}
	return nil
}

// checkCounter rejects once the recorded count reaches the budget, so a
// caller who already spent maxAttempts failures is refused before doing work.
func (l *Limiter) checkCounter(ctx context.Context, key string, maxAttempts int) error {
	count, err := l.rdb.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count >= int64(maxAttempts) {
		return ErrRateLimited
	}
	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.rdb.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}
