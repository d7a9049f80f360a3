package eventra

import (
	"strings"
	"unicode"

	"github.com/eventrahq/eventra/users"
)

const minPasswordLength = 8

// validEmail checks shape only: one @, non-empty local and domain parts, a
// dot in the domain, no whitespace. Real proof of ownership is the
// verification code, so anything stricter here just rejects odd-but-real
// addresses.
func validEmail(email string) bool {
	if email == "" || len(email) > 254 {
		return false
	}
	if strings.ContainsAny(email, " \t\r\n") {
		return false
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" {
		return false
	}
	if strings.Contains(domain, "@") || !strings.Contains(domain, ".") {
		return false
	}
	return !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}

// checkPasswordPolicy enforces the signup/change/reset password rules:
// minimum length plus at least one upper-case letter, one lower-case letter,
// and one digit.
func checkPasswordPolicy(password string) []FieldError {
	var errs []FieldError
	if len(password) < minPasswordLength {
		errs = append(errs, FieldError{Field: "password", Message: "must be at least 8 characters"})
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper {
		errs = append(errs, FieldError{Field: "password", Message: "must contain an upper-case letter"})
	}
	if !hasLower {
		errs = append(errs, FieldError{Field: "password", Message: "must contain a lower-case letter"})
	}
	if !hasDigit {
		errs = append(errs, FieldError{Field: "password", Message: "must contain a digit"})
	}
	return errs
}

func (in SignupInput) validate() error {
	var fe FieldErrors

	switch {
	case in.Email == "":
		fe = append(fe, FieldError{Field: "email", Message: "is required"})
	case !validEmail(in.Email):
		fe = append(fe, FieldError{Field: "email", Message: "is not a valid email address"})
	}

	if in.Password == "" {
		fe = append(fe, FieldError{Field: "password", Message: "is required"})
	} else {
		fe = append(fe, checkPasswordPolicy(in.Password)...)
	}

	if strings.TrimSpace(in.FullName) == "" {
		fe = append(fe, FieldError{Field: "fullName", Message: "is required"})
	}

	if !users.ValidRole(in.Role) {
		fe = append(fe, FieldError{Field: "role", Message: "must be planner, vendor, or admin"})
	}

	return fe.errOrNil()
}
