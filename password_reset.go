package eventra

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/eventrahq/eventra/internal/rate"
	"github.com/eventrahq/eventra/otp"
	"github.com/eventrahq/eventra/users"
)

// ForgotPassword starts account recovery. The result never reveals whether
// the email has an account: known and unknown addresses alike pass the same
// throttle and return nil. Only a known address actually gets a code.
func (c *Core) ForgotPassword(ctx context.Context, email string) error {
	identifier := users.FoldEmail(email)

	if err := c.limiter.CheckOTPIssue(ctx, "reset", identifier); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			c.metrics.Inc(MetricOTPRateLimited)
			return ErrRateLimited
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	c.metrics.Inc(MetricPasswordResetRequest)

	u, err := c.users.FindByEmail(ctx, email)
	if errors.Is(err, users.ErrNotFound) {
		c.emitAudit(ctx, "password_reset_request", "", "", true, nil, map[string]string{
			"email":         identifier,
			"known_account": "false",
		})
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	code, err := c.otp.Issue(ctx, u.ID, otp.PurposePasswordReset)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	c.metrics.Inc(MetricOTPIssued)

	if err := c.sender.SendOTP(ctx, u.Email, code, otp.PurposePasswordReset); err != nil {
		log.Printf("eventra: otp delivery failed for %s: %v", u.Email, err)
	}

	c.emitAudit(ctx, "password_reset_request", u.ID, "", true, nil, map[string]string{
		"known_account": "true",
	})
	return nil
}

// ResetPassword finishes recovery: consumes the emailed code, installs the
// new password, revokes every outstanding refresh token, and clears the
// login throttle so the owner is not locked out by the failures that
// prompted the reset.
func (c *Core) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if errs := checkPasswordPolicy(newPassword); len(errs) > 0 {
		return FieldErrors(errs)
	}

	u, err := c.users.FindByEmail(ctx, email)
	if err != nil {
		return mapUserErr(err)
	}

	if err := c.otp.Verify(ctx, u.ID, code, otp.PurposePasswordReset); err != nil {
		mapped := mapOTPErr(err)
		c.metrics.Inc(MetricPasswordResetFailure)
		c.emitAudit(ctx, "password_reset", u.ID, "", false, mapped, nil)
		return mapped
	}

	if err := c.users.UpdatePassword(ctx, u.ID, newPassword); err != nil {
		return mapUserErr(err)
	}

	if _, err := c.tokens.RevokeAll(ctx, u.ID); err != nil {
		c.emitAudit(ctx, "password_reset", u.ID, "", false, ErrRevocationFailed, nil)
		return errors.Join(ErrRevocationFailed, err)
	}

	if err := c.limiter.ResetLogin(ctx, users.FoldEmail(email), ""); err != nil {
		log.Printf("eventra: login throttle reset failed: %v", err)
	}

	c.metrics.Inc(MetricPasswordResetSuccess)
	c.emitAudit(ctx, "password_reset", u.ID, "", true, nil, nil)
	return nil
}
