package eventra

import (
	"errors"
	"strings"
)

// Validation failures (HTTP 400).
var (
	// ErrValidation is the umbrella for request-shape failures. Detailed
	// per-field problems travel as [FieldErrors], which unwraps to it.
	ErrValidation = errors.New("validation failed")
	// ErrAlreadyVerified is returned when a verification flow targets an
	// account whose email is already confirmed.
	ErrAlreadyVerified = errors.New("email already verified")
	// ErrCodeInvalid covers a wrong, consumed, or unknown one-time code.
	ErrCodeInvalid = errors.New("invalid verification code")
	// ErrCodeExpired is returned when the code existed but its window passed.
	ErrCodeExpired = errors.New("verification code expired")
	// ErrTooManyAttempts is returned once a code burns its attempt budget.
	ErrTooManyAttempts = errors.New("verification attempts exceeded")
	// ErrPasswordReuse rejects a password change to the current password.
	ErrPasswordReuse = errors.New("new password must be different from current password")
)

// Authentication failures (HTTP 401).
var (
	// ErrUnauthorized is returned when a protected operation has no usable
	// bearer credential at all.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials covers unknown email and wrong password alike;
	// the two are never distinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenInvalid covers every access-token verification failure:
	// malformed, tampered, expired, wrong signature.
	ErrTokenInvalid = errors.New("invalid or expired token")
	// ErrRefreshInvalid covers every refresh-token verification failure.
	ErrRefreshInvalid = errors.New("invalid or expired refresh token")
	// ErrRefreshReuse is returned when a refresh token that was already
	// exchanged (or revoked) is presented again.
	ErrRefreshReuse = errors.New("refresh token already used")
	// ErrAccountUnverified blocks login until the email is confirmed.
	ErrAccountUnverified = errors.New("email not verified")
)

// Authorization failures (HTTP 403).
var (
	// ErrAccountDisabled is returned for deactivated accounts.
	ErrAccountDisabled = errors.New("account deactivated")
	// ErrRoleForbidden is returned when the caller's role is not in the
	// route's allowed set. Wrapped messages name required and actual roles.
	ErrRoleForbidden = errors.New("insufficient role")
	// ErrNotOwner is returned when a caller touches a resource owned by
	// another account and is not an admin.
	ErrNotOwner = errors.New("not resource owner")
)

// Lookup failures (HTTP 404).
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrEventNotFound = errors.New("event not found")
)

// Conflicts (HTTP 409).
var ErrEmailTaken = errors.New("email already registered")

// Throttling (HTTP 429).
var ErrRateLimited = errors.New("too many requests")

// Dependency failures (HTTP 500).
var (
	// ErrUnavailable wraps store and transport failures. The HTTP layer
	// never exposes the wrapped detail.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrRevocationFailed marks a password change or reset whose new
	// credential was written but whose refresh-token sweep failed. The
	// operation reports failure so the caller retries the sweep.
	ErrRevocationFailed = errors.New("refresh token revocation failed")
)

// FieldError names one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors aggregates per-field validation problems. It satisfies
// errors.Is(err, ErrValidation).
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	if len(fe) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(fe))
	for _, f := range fe {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (fe FieldErrors) Unwrap() error { return ErrValidation }

// errOrNil lets validators build a FieldErrors slice unconditionally and
// return a typed nil-free error only when something is actually wrong.
func (fe FieldErrors) errOrNil() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}
