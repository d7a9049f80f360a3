package eventra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eventrahq/eventra/internal/rate"
	"github.com/eventrahq/eventra/tokens"
	"github.com/eventrahq/eventra/users"
)

// Refresh exchanges a live refresh token for a new access/refresh pair.
// The exchange is single-use: rotation in the token store is atomic, so of
// any number of concurrent exchanges of the same token exactly one returns
// a pair and the rest report reuse.
func (c *Core) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := c.jwt.ParseRefresh(refreshToken)
	if err != nil {
		c.metrics.Inc(MetricRefreshFailure)
		return nil, ErrRefreshInvalid
	}
	userID := claims.Subject

	if err := c.limiter.CheckRefresh(ctx, userID); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			c.metrics.Inc(MetricRefreshRateLimited)
			return nil, ErrRateLimited
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	u, err := c.users.FindByID(ctx, userID)
	if errors.Is(err, users.ErrNotFound) {
		c.metrics.Inc(MetricRefreshFailure)
		return nil, ErrRefreshInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !u.IsActive {
		return nil, ErrAccountDisabled
	}

	// Sign the replacement pair before rotating. Losing a concurrent race
	// discards a signed pair, which costs nothing; the store alone decides
	// the winner.
	access, err := c.jwt.CreateAccess(u.ID, u.Email, u.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	newRefresh, err := c.jwt.CreateRefresh(u.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	err = c.tokens.Rotate(ctx, u.ID, refreshToken, newRefresh, time.Now().UTC(), c.jwt.RefreshTTL())
	switch {
	case err == nil:
	case errors.Is(err, tokens.ErrNotFound):
		// Never saved, expired, revoked, or already exchanged. Every one
		// of those means this token must not mint a session again.
		c.metrics.Inc(MetricRefreshReuseDetected)
		c.emitAudit(ctx, "refresh", u.ID, "", false, ErrRefreshReuse, nil)
		return nil, ErrRefreshReuse
	case errors.Is(err, tokens.ErrOwnerMismatch):
		c.metrics.Inc(MetricRefreshFailure)
		return nil, ErrRefreshInvalid
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	c.metrics.Inc(MetricRefreshSuccess)
	c.emitAudit(ctx, "refresh", u.ID, "", true, nil, nil)
	return &TokenPair{AccessToken: access, RefreshToken: newRefresh}, nil
}
