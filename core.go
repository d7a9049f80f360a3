package eventra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eventrahq/eventra/internal/rate"
	"github.com/eventrahq/eventra/jwt"
	"github.com/eventrahq/eventra/otp"
	"github.com/eventrahq/eventra/tokens"
	"github.com/eventrahq/eventra/users"
)

// Core owns the account lifecycle: signup, email verification, login, token
// refresh, logout, and password recovery. Construct one with [New] and share
// it; every method is safe for concurrent use.
type Core struct {
	config  Config
	users   *users.Store
	otp     *otp.Manager
	jwt     *jwt.Manager
	tokens  *tokens.Store
	limiter *rate.Limiter
	sender  OTPSender
	metrics *Metrics
	audit   *auditDispatcher
}

// Close flushes and stops the audit pipeline. Call it on shutdown after the
// HTTP server has drained.
func (c *Core) Close() {
	c.audit.Close()
}

// MetricsSnapshot returns a point-in-time copy of the core's counters.
func (c *Core) MetricsSnapshot() MetricsSnapshot {
	return c.metrics.Snapshot()
}

// AuditDropped reports how many audit events were discarded under pressure.
func (c *Core) AuditDropped() uint64 {
	return c.audit.Dropped()
}

// Authenticate resolves a bearer access token to a live identity. The user
// record is re-read on every call so a deactivated account is rejected even
// while its tokens are still within their lifetime.
func (c *Core) Authenticate(ctx context.Context, token string) (*Identity, error) {
	start := time.Now()
	defer func() {
		c.metrics.Observe(MetricAuthenticateLatency, time.Since(start))
	}()

	claims, err := c.jwt.ParseAccess(token)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	u, err := c.users.FindByID(ctx, claims.Subject)
	if err != nil {
		return nil, mapUserErr(err)
	}
	if !u.IsActive {
		return nil, ErrAccountDisabled
	}

	return identityOf(u), nil
}

// Profile returns the full user record for an authenticated caller.
func (c *Core) Profile(ctx context.Context, userID string) (*users.User, error) {
	u, err := c.users.FindByID(ctx, userID)
	if err != nil {
		return nil, mapUserErr(err)
	}
	return u, nil
}

// UpdateProfile merges the patch into the caller's record and returns the
// updated user. Email, role, and password cannot travel this path.
func (c *Core) UpdateProfile(ctx context.Context, userID string, patch users.Patch) (*users.User, error) {
	if patch.FullName != nil && *patch.FullName == "" {
		return nil, FieldErrors{{Field: "fullName", Message: "must not be empty"}}
	}

	u, err := c.users.UpdateProfile(ctx, userID, patch)
	if err != nil {
		return nil, mapUserErr(err)
	}
	return u, nil
}

// issueTokens signs a fresh access/refresh pair and persists the refresh
// record. Every session, whether from login, verification, or refresh,
// enters the world through here or through the rotation path.
func (c *Core) issueTokens(ctx context.Context, u *users.User) (TokenPair, error) {
	access, err := c.jwt.CreateAccess(u.ID, u.Email, u.Role)
	if err != nil {
		return TokenPair{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	refresh, err := c.jwt.CreateRefresh(u.ID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := c.tokens.Save(ctx, u.ID, refresh, time.Now().UTC(), c.jwt.RefreshTTL()); err != nil {
		return TokenPair{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func identityOf(u *users.User) *Identity {
	return &Identity{
		ID:       u.ID,
		Email:    u.Email,
		Role:     u.Role,
		FullName: u.FullName,
	}
}

func (c *Core) emitAudit(ctx context.Context, eventType, userID, ip string, success bool, opErr error, meta map[string]string) {
	if c.audit == nil {
		return
	}
	ev := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		IP:        ip,
		Success:   success,
		Metadata:  meta,
	}
	if opErr != nil {
		ev.Error = opErr.Error()
	}
	c.audit.Emit(ctx, ev)
}

// mapUserErr normalizes users-store errors into the public taxonomy.
func mapUserErr(err error) error {
	switch {
	case errors.Is(err, users.ErrNotFound):
		return ErrUserNotFound
	case errors.Is(err, users.ErrEmailTaken):
		return ErrEmailTaken
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

// mapOTPErr normalizes code-verification errors into the public taxonomy.
func mapOTPErr(err error) error {
	switch {
	case errors.Is(err, otp.ErrCodeInvalid):
		return ErrCodeInvalid
	case errors.Is(err, otp.ErrCodeExpired):
		return ErrCodeExpired
	case errors.Is(err, otp.ErrTooManyAttempts):
		return ErrTooManyAttempts
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}
