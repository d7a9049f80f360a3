package eventra

import (
	"context"
	"log"

	"github.com/eventrahq/eventra/otp"
	"github.com/eventrahq/eventra/users"
)

// Identity is the authenticated principal resolved from an access token.
// It carries only what authorization decisions and handlers need; the full
// profile stays behind [Core.Profile].
type Identity struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	FullName string `json:"fullName"`
}

// TokenPair is one issued access/refresh pair.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// SignupInput carries a registration request.
type SignupInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"fullName"`
	Role        string `json:"role"`
	PhoneNumber string `json:"phoneNumber"`
}

// LoginInput carries a credential check. IP is optional and feeds the
// per-source throttle when present.
type LoginInput struct {
	Email    string
	Password string
	IP       string
}

// LoginResult is returned by the flows that establish a session:
// [Core.Login] and [Core.VerifyEmail].
type LoginResult struct {
	User   *users.User
	Tokens TokenPair
}

// OTPSender delivers one-time codes to users. Production wires an email or
// SMS provider; tests and development use [LogOTPSender].
type OTPSender interface {
	SendOTP(ctx context.Context, email, code string, purpose otp.Purpose) error
}

// LogOTPSender writes codes to the process log instead of delivering them.
// Useful for development; never use it in production.
type LogOTPSender struct{}

func (LogOTPSender) SendOTP(_ context.Context, email, code string, purpose otp.Purpose) error {
	log.Printf("eventra: otp for %s (purpose=%s): %s", email, purpose, code)
	return nil
}
