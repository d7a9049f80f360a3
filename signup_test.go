package eventra

import (
	"context"
	"errors"
	"testing"

	"github.com/eventrahq/eventra/otp"
	"github.com/eventrahq/eventra/users"
)

func TestSignupCreatesUnverifiedAccount(t *testing.T) {
	core, sender, _ := newTestCore(t)

	u, err := core.Signup(context.Background(), SignupInput{
		Email:       "Alice@Example.com",
		Password:    "Str0ngPass",
		FullName:    "Alice Planner",
		Role:        users.RolePlanner,
		PhoneNumber: "+15550001111",
	})
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}

	if u.Email != "alice@example.com" {
		t.Fatalf("stored email = %q, want folded form", u.Email)
	}
	if u.EmailVerified {
		t.Fatal("fresh signup must start unverified")
	}
	if !u.IsActive {
		t.Fatal("fresh signup must start active")
	}
	if u.PasswordHash == "" || u.PasswordHash == "Str0ngPass" {
		t.Fatal("password must be stored hashed")
	}
	if u.Planner == nil {
		t.Fatal("planner signup must carry a planner payload")
	}

	if !sender.delivered("alice@example.com", otp.PurposeEmailVerification) {
		t.Fatal("expected a verification code to be delivered")
	}
}

func TestSignupValidation(t *testing.T) {
	core, _, _ := newTestCore(t)
	ctx := context.Background()

	_, err := core.Signup(ctx, SignupInput{
		Email:    "not-an-email",
		Password: "weak",
		Role:     "superuser",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	var fe FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("expected FieldErrors, got %T", err)
	}

	fields := map[string]bool{}
	for _, f := range fe {
		fields[f.Field] = true
	}
	for _, want := range []string{"email", "password", "fullName", "role"} {
		if !fields[want] {
			t.Fatalf("missing field error for %q in %v", want, fe)
		}
	}
}

func TestSignupPasswordPolicy(t *testing.T) {
	core, _, _ := newTestCore(t)
	ctx := context.Background()

	cases := []string{
		"Sh0rt",        // too short
		"alllower1x",   // no upper
		"ALLUPPER1X",   // no lower
		"NoDigitsHere", // no digit
	}
	for _, pw := range cases {
		_, err := core.Signup(ctx, SignupInput{
			Email:    "p@example.com",
			Password: pw,
			FullName: "P",
			Role:     users.RolePlanner,
		})
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("password %q: expected ErrValidation, got %v", pw, err)
		}
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	core, _, _ := newTestCore(t)
	ctx := context.Background()

	signupUser(t, core, "alice@example.com", "Str0ngPass", users.RolePlanner)

	// Same address in different case is the same account.
	_, err := core.Signup(ctx, SignupInput{
		Email:    "ALICE@example.COM",
		Password: "0therPassw",
		FullName: "Impostor",
		Role:     users.RoleVendor,
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	if got := core.metrics.Value(MetricSignupDuplicate); got != 1 {
		t.Fatalf("duplicate counter = %d, want 1", got)
	}
}

func TestVerifyEmailOpensFirstSession(t *testing.T) {
	core, sender, _ := newTestCore(t)
	ctx := context.Background()

	signupUser(t, core, "alice@example.com", "Str0ngPass", users.RolePlanner)
	code := sender.code(t, "alice@example.com", otp.PurposeEmailVerification)

	res, err := core.VerifyEmail(ctx, "alice@example.com", code)
	if err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}
	if !res.User.EmailVerified {
		t.Fatal("user must be verified after VerifyEmail")
	}
	if res.Tokens.AccessToken == "" || res.Tokens.RefreshToken == "" {
		t.Fatal("VerifyEmail must open the first session")
	}

	if _, err := core.Authenticate(ctx, res.Tokens.AccessToken); err != nil {
		t.Fatalf("access token from verification rejected: %v", err)
	}
	if _, err := core.Refresh(ctx, res.Tokens.RefreshToken); err != nil {
		t.Fatalf("refresh token from verification rejected: %v", err)
	}
}

func TestVerifyEmailWrongCode(t *testing.T) {
	core, sender, _ := newTestCore(t)
	ctx := context.Background()

	signupUser(t, core, "alice@example.com", "Str0ngPass", users.RolePlanner)

	if _, err := core.VerifyEmail(ctx, "alice@example.com", "000000"); !errors.Is(err, ErrCodeInvalid) {
		t.Fatalf("expected ErrCodeInvalid, got %v", err)
	}

	// A mismatch burns an attempt but the real code stays live.
	code := sender.code(t, "alice@example.com", otp.PurposeEmailVerification)
	if _, err := core.VerifyEmail(ctx, "alice@example.com", code); err != nil {
		t.Fatalf("VerifyEmail with real code failed: %v", err)
	}
}

func TestVerifyEmailAttemptBudget(t *testing.T) {
	core, sender, _ := newTestCore(t)
	ctx := context.Background()

	signupUser(t, core, "alice@example.com", "Str0ngPass", users.RolePlanner)

	// Default budget is 5: four mismatches, then the fifth destroys the code.
	for i := 0; i < 4; i++ {
		if _, err := core.VerifyEmail(ctx, "alice@example.com", "000000"); !errors.Is(err, ErrCodeInvalid) {
			t.Fatalf("attempt %d: expected ErrCodeInvalid, got %v", i+1, err)
		}
	}
	if _, err := core.VerifyEmail(ctx, "alice@example.com", "000000"); !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}

	// The burned code is gone even when guessed right afterwards.
	code := sender.code(t, "alice@example.com", otp.PurposeEmailVerification)
	if _, err := core.VerifyEmail(ctx, "alice@example.com", code); !errors.Is(err, ErrCodeInvalid) {
		t.Fatalf("expected ErrCodeInvalid after budget burn, got %v", err)
	}
}

func TestVerifyEmailUnknownEmail(t *testing.T) {
	core, _, _ := newTestCore(t)

	// Unknown email answers exactly like a wrong code.
	if _, err := core.VerifyEmail(context.Background(), "ghost@example.com", "123456"); !errors.Is(err, ErrCodeInvalid) {
		t.Fatalf("expected ErrCodeInvalid, got %v", err)
	}
}

func TestVerifyEmailAlreadyVerified(t *testing.T) {
	core, sender, _ := newTestCore(t)
	ctx := context.Background()

	verifiedUser(t, core, sender, "alice@example.com", "Str0ngPass", users.RolePlanner)

	code := sender.code(t, "alice@example.com", otp.PurposeEmailVerification)
	if _, err := core.VerifyEmail(ctx, "alice@example.com", code); !errors.Is(err, ErrAlreadyVerified) {
		t.Fatalf("expected ErrAlreadyVerified, got %v", err)
	}
}

func TestResendOTPReplacesOutstandingCode(t *testing.T) {
	core, sender, _ := newTestCore(t)
	ctx := context.Background()

	signupUser(t, core, "alice@example.com", "Str0ngPass", users.RolePlanner)
	first := sender.code(t, "alice@example.com", otp.PurposeEmailVerification)

	if err := core.ResendOTP(ctx, "alice@example.com"); err != nil {
		t.Fatalf("ResendOTP failed: %v", err)
	}
	second := sender.code(t, "alice@example.com", otp.PurposeEmailVerification)

	if first == second {
		t.Fatal("resend must mint a fresh code")
	}

	if _, err := core.VerifyEmail(ctx, "alice@example.com", first); !errors.Is(err, ErrCodeInvalid) {
		t.Fatalf("replaced code must be dead, got %v", err)
	}
	if _, err := core.VerifyEmail(ctx, "alice@example.com", second); err != nil {
		t.Fatalf("fresh code rejected: %v", err)
	}
}

func TestResendOTPUnknownEmail(t *testing.T) {
	core, _, _ := newTestCore(t)

	if err := core.ResendOTP(context.Background(), "ghost@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestResendOTPAlreadyVerified(t *testing.T) {
	core, sender, _ := newTestCore(t)

	verifiedUser(t, core, sender, "alice@example.com", "Str0ngPass", users.RolePlanner)

	if err := core.ResendOTP(context.Background(), "alice@example.com"); !errors.Is(err, ErrAlreadyVerified) {
		t.Fatalf("expected ErrAlreadyVerified, got %v", err)
	}
}

func TestResendOTPThrottled(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.MaxOTPRequests = 2
	core, _, _ := newTestCoreWithConfig(t, cfg)
	ctx := context.Background()

	signupUser(t, core, "alice@example.com", "Str0ngPass", users.RolePlanner)

	for i := 0; i < 2; i++ {
		if err := core.ResendOTP(ctx, "alice@example.com"); err != nil {
			t.Fatalf("resend %d failed: %v", i+1, err)
		}
	}
	if err := core.ResendOTP(ctx, "alice@example.com"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}
