package eventra

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/eventrahq/eventra/internal/rate"
	"github.com/eventrahq/eventra/jwt"
	"github.com/eventrahq/eventra/otp"
	"github.com/eventrahq/eventra/password"
	"github.com/eventrahq/eventra/tokens"
	"github.com/eventrahq/eventra/users"
)

// Builder assembles a [Core]. Configure it fluently, call Build exactly
// once, and discard it; a Builder is not safe for concurrent use.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	sender    OTPSender
	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the builder's configuration with a deep copy of cfg.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the Redis client every store and throttle runs on.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithOTPSender supplies the delivery channel for one-time codes. Without
// one, codes go to the process log via [LogOTPSender].
func (b *Builder) WithOTPSender(sender OTPSender) *Builder {
	b.sender = sender
	return b
}

// WithAuditSink supplies the destination for audit events. It only matters
// when Config.Audit.Enabled is set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles authenticate-latency recording.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, constructs every store against the
// Redis client, and returns the assembled Core.
func (b *Builder) Build() (*Core, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	prefix := cfg.Redis.KeyPrefix

	// -------- PASSWORD HASHER --------
	hasher, err := password.New(password.Params{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltBytes:   cfg.Password.SaltLength,
		KeyBytes:    cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	// -------- TOKEN MANAGER --------
	jm, err := jwt.NewManager(jwt.Config{
		AccessSecret:  cloneBytes(cfg.JWT.AccessSecret),
		RefreshSecret: cloneBytes(cfg.JWT.RefreshSecret),
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
		Leeway:        cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}

	// -------- OTP MANAGER --------
	om, err := otp.NewManager(b.redis, prefix, otp.Config{
		Digits:      cfg.OTP.Digits,
		TTL:         cfg.OTP.TTL,
		MaxAttempts: cfg.OTP.MaxAttempts,
	})
	if err != nil {
		return nil, err
	}

	sender := b.sender
	if sender == nil {
		sender = LogOTPSender{}
	}

	core := &Core{
		config:  cfg,
		users:   users.NewStore(b.redis, prefix, hasher),
		otp:     om,
		jwt:     jm,
		tokens:  tokens.NewStore(b.redis, prefix),
		sender:  sender,
		audit:   newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
	}

	core.limiter = rate.New(b.redis, prefix, rate.Config{
		EnableIPThrottle: cfg.RateLimit.EnableIPThrottle,
		MaxLoginFailures: cfg.RateLimit.MaxLoginFailures,
		LoginCooldown:    cfg.RateLimit.LoginCooldown,
		MaxOTPRequests:   cfg.RateLimit.MaxOTPRequests,
		OTPCooldown:      cfg.RateLimit.OTPCooldown,
		MaxRefreshes:     cfg.RateLimit.MaxRefreshes,
		RefreshCooldown:  cfg.RateLimit.RefreshCooldown,
	})

	b.built = true

	return core, nil
}
