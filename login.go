package eventra

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/eventrahq/eventra/internal/rate"
	"github.com/eventrahq/eventra/users"
)

// Login checks credentials and opens a session. Unknown email and wrong
// password produce the same error and both burn a throttle slot; a
// successful login clears the caller's failure counters.
func (c *Core) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	identifier := users.FoldEmail(in.Email)

	if err := c.limiter.CheckLogin(ctx, identifier, in.IP); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			c.metrics.Inc(MetricLoginRateLimited)
			c.emitAudit(ctx, "login", "", in.IP, false, ErrRateLimited, map[string]string{
				"email": identifier,
			})
			return nil, ErrRateLimited
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if in.Email == "" || in.Password == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := c.users.FindByEmail(ctx, in.Email)
	if errors.Is(err, users.ErrNotFound) {
		return nil, c.failLogin(ctx, identifier, in.IP, "unknown email")
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if !c.users.VerifyPassword(in.Password, u.PasswordHash) {
		return nil, c.failLogin(ctx, identifier, in.IP, "wrong password")
	}

	// Status checks come after the password so their distinct errors never
	// leak account state to a caller who does not hold the credential.
	if !u.IsActive {
		c.emitAudit(ctx, "login", u.ID, in.IP, false, ErrAccountDisabled, nil)
		return nil, ErrAccountDisabled
	}
	if c.config.Account.RequireVerifiedLogin && !u.EmailVerified {
		c.emitAudit(ctx, "login", u.ID, in.IP, false, ErrAccountUnverified, nil)
		return nil, ErrAccountUnverified
	}

	if c.config.Password.UpgradeOnLogin && c.users.NeedsRehash(u.PasswordHash) {
		// Best effort. The plaintext is only in hand during login, so this
		// is the one chance to move the hash to current parameters.
		if err := c.users.UpdatePassword(ctx, u.ID, in.Password); err != nil {
			log.Printf("eventra: password upgrade failed for %s: %v", u.ID, err)
		}
	}

	pair, err := c.issueTokens(ctx, u)
	if err != nil {
		return nil, err
	}

	if err := c.limiter.ResetLogin(ctx, identifier, in.IP); err != nil {
		log.Printf("eventra: login throttle reset failed: %v", err)
	}

	c.metrics.Inc(MetricLoginSuccess)
	c.emitAudit(ctx, "login", u.ID, in.IP, true, nil, nil)
	return &LoginResult{User: u, Tokens: pair}, nil
}

// failLogin burns one throttle slot and returns the uniform credential
// error. The audit record keeps the real reason; the caller never sees it.
func (c *Core) failLogin(ctx context.Context, identifier, ip, reason string) error {
	c.metrics.Inc(MetricLoginFailure)
	c.emitAudit(ctx, "login", "", ip, false, ErrInvalidCredentials, map[string]string{
		"email":  identifier,
		"reason": reason,
	})

	if err := c.limiter.IncrementLogin(ctx, identifier, ip); err != nil && !errors.Is(err, rate.ErrRateLimited) {
		log.Printf("eventra: login throttle increment failed: %v", err)
	}
	return ErrInvalidCredentials
}
