package eventra

import (
	"context"
	"fmt"
	"strconv"
)

// Logout revokes one refresh token. Possession is authority here: the token
// names its own subject, so the endpoint needs no access token. Logout is
// idempotent; presenting a dead or unparseable token still succeeds.
func (c *Core) Logout(ctx context.Context, refreshToken string) error {
	claims, err := c.jwt.ParseRefresh(refreshToken)
	if err != nil {
		// Nothing verifiable to revoke.
		return nil
	}

	if err := c.tokens.Revoke(ctx, claims.Subject, refreshToken); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	c.metrics.Inc(MetricLogout)
	c.emitAudit(ctx, "logout", claims.Subject, "", true, nil, nil)
	return nil
}

// LogoutAll revokes every refresh token the user holds, ending all devices'
// sessions at once. Access tokens already issued remain valid until expiry.
func (c *Core) LogoutAll(ctx context.Context, userID string) error {
	n, err := c.tokens.RevokeAll(ctx, userID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	c.metrics.Inc(MetricLogoutAll)
	c.emitAudit(ctx, "logout_all", userID, "", true, nil, map[string]string{
		"revoked": strconv.Itoa(n),
	})
	return nil
}
