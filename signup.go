package eventra

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/eventrahq/eventra/internal/rate"
	"github.com/eventrahq/eventra/otp"
	"github.com/eventrahq/eventra/password"
	"github.com/eventrahq/eventra/users"
)

// Signup creates an unverified account and emails it a verification code.
// The account exists immediately but cannot log in until [Core.VerifyEmail]
// consumes the code. An empty role defaults to planner.
func (c *Core) Signup(ctx context.Context, in SignupInput) (*users.User, error) {
	if in.Role == "" {
		in.Role = users.RolePlanner
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	u, err := c.users.Create(ctx, users.CreateInput{
		Email:       in.Email,
		Password:    in.Password,
		FullName:    in.FullName,
		Role:        in.Role,
		PhoneNumber: in.PhoneNumber,
	})
	if err != nil {
		switch {
		case errors.Is(err, users.ErrEmailTaken):
			c.metrics.Inc(MetricSignupDuplicate)
			c.emitAudit(ctx, "signup", "", "", false, ErrEmailTaken, map[string]string{
				"email": users.FoldEmail(in.Email),
			})
			return nil, ErrEmailTaken
		case errors.Is(err, password.ErrPasswordTooLong):
			return nil, FieldErrors{{Field: "password", Message: "exceeds maximum length"}}
		default:
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	if err := c.sendVerification(ctx, u); err != nil {
		// The account is created; the caller can resend the code.
		return nil, err
	}

	c.metrics.Inc(MetricSignupSuccess)
	c.emitAudit(ctx, "signup", u.ID, "", true, nil, map[string]string{"role": u.Role})
	return u, nil
}

// VerifyEmail consumes a verification code. On success the email is marked
// proven and the first session opens, so a fresh signup goes straight from
// code entry to logged in.
func (c *Core) VerifyEmail(ctx context.Context, email, code string) (*LoginResult, error) {
	u, err := c.users.FindByEmail(ctx, email)
	if errors.Is(err, users.ErrNotFound) {
		// Same answer as a wrong code; the endpoint must not confirm
		// which emails hold accounts.
		c.metrics.Inc(MetricEmailVerifyFailure)
		return nil, ErrCodeInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if u.EmailVerified {
		return nil, ErrAlreadyVerified
	}

	if err := c.otp.Verify(ctx, u.ID, code, otp.PurposeEmailVerification); err != nil {
		mapped := mapOTPErr(err)
		c.metrics.Inc(MetricEmailVerifyFailure)
		c.emitAudit(ctx, "email_verify", u.ID, "", false, mapped, nil)
		return nil, mapped
	}

	if err := c.users.SetEmailVerified(ctx, u.ID); err != nil {
		return nil, mapUserErr(err)
	}
	u.EmailVerified = true

	pair, err := c.issueTokens(ctx, u)
	if err != nil {
		return nil, err
	}

	c.metrics.Inc(MetricEmailVerifySuccess)
	c.emitAudit(ctx, "email_verify", u.ID, "", true, nil, nil)
	return &LoginResult{User: u, Tokens: pair}, nil
}

// ResendOTP issues a fresh verification code for an unverified account.
// The new code replaces any outstanding one.
func (c *Core) ResendOTP(ctx context.Context, email string) error {
	if err := c.limiter.CheckOTPIssue(ctx, "verify", users.FoldEmail(email)); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			c.metrics.Inc(MetricOTPRateLimited)
			return ErrRateLimited
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	u, err := c.users.FindByEmail(ctx, email)
	if err != nil {
		return mapUserErr(err)
	}
	if u.EmailVerified {
		return ErrAlreadyVerified
	}

	if err := c.sendVerification(ctx, u); err != nil {
		return err
	}

	c.emitAudit(ctx, "otp_resend", u.ID, "", true, nil, nil)
	return nil
}

// sendVerification issues and delivers an email-verification code. Issue
// failures are hard errors; delivery failures are logged and left to the
// resend path, since the stored code is already valid.
func (c *Core) sendVerification(ctx context.Context, u *users.User) error {
	code, err := c.otp.Issue(ctx, u.ID, otp.PurposeEmailVerification)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	c.metrics.Inc(MetricOTPIssued)

	if err := c.sender.SendOTP(ctx, u.Email, code, otp.PurposeEmailVerification); err != nil {
		log.Printf("eventra: otp delivery failed for %s: %v", u.Email, err)
	}
	return nil
}
