package eventra

import (
	"context"
	"errors"
)

// ChangePassword verifies the current password, installs the new one, and
// revokes every outstanding refresh token so sessions opened under the old
// credential cannot renew themselves.
func (c *Core) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if errs := checkPasswordPolicy(newPassword); len(errs) > 0 {
		return FieldErrors(errs)
	}

	u, err := c.users.FindByID(ctx, userID)
	if err != nil {
		return mapUserErr(err)
	}

	if !c.users.VerifyPassword(oldPassword, u.PasswordHash) {
		c.metrics.Inc(MetricPasswordChangeInvalidOld)
		c.emitAudit(ctx, "password_change", userID, "", false, ErrInvalidCredentials, nil)
		return ErrInvalidCredentials
	}

	// oldPassword verified against the stored hash above, so string
	// equality is the reuse check.
	if newPassword == oldPassword {
		c.metrics.Inc(MetricPasswordChangeReuseRejected)
		return ErrPasswordReuse
	}

	if err := c.users.UpdatePassword(ctx, userID, newPassword); err != nil {
		return mapUserErr(err)
	}

	if _, err := c.tokens.RevokeAll(ctx, userID); err != nil {
		// The credential changed but old sessions may still be live.
		// Report failure so the caller retries the sweep.
		c.emitAudit(ctx, "password_change", userID, "", false, ErrRevocationFailed, nil)
		return errors.Join(ErrRevocationFailed, err)
	}

	c.metrics.Inc(MetricPasswordChangeSuccess)
	c.emitAudit(ctx, "password_change", userID, "", true, nil, nil)
	return nil
}
