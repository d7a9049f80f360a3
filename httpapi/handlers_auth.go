package httpapi

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/eventrahq/eventra"
	"github.com/eventrahq/eventra/middleware"
	"github.com/eventrahq/eventra/users"
)

// decode unmarshals the request body into dst, answering the validation
// error itself when the body is not parseable JSON.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.fail(w, r, eventra.FieldErrors{{Field: "body", Message: "request body must be valid JSON"}})
		return false
	}
	return true
}

// identity pulls the authenticated caller from the request context. Routes
// calling this sit behind the required gate, so a miss is a wiring bug and
// reads as unauthenticated rather than panicking.
func (s *Server) identity(w http.ResponseWriter, r *http.Request) (*eventra.Identity, bool) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		s.fail(w, r, eventra.ErrUnauthorized)
		return nil, false
	}
	return id, true
}

// clientIP returns the caller address with any port stripped. The RealIP
// middleware has already folded proxy headers into RemoteAddr.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var in eventra.SignupInput
	if !s.decode(w, r, &in) {
		return
	}

	u, err := s.core.Signup(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.data(w, http.StatusCreated, "account created, verification code sent", map[string]any{"user": u})
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
		OTP    string `json:"otp"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	var fe eventra.FieldErrors
	if strings.TrimSpace(req.UserID) == "" {
		fe = append(fe, eventra.FieldError{Field: "userId", Message: "userId is required"})
	}
	if strings.TrimSpace(req.OTP) == "" {
		fe = append(fe, eventra.FieldError{Field: "otp", Message: "otp is required"})
	}
	if len(fe) > 0 {
		s.fail(w, r, fe)
		return
	}

	// Clients hold the id from signup, not the address. Resolve it, and
	// treat an unknown id exactly like a wrong code so this endpoint
	// cannot be used to probe for accounts.
	u, err := s.core.Profile(r.Context(), req.UserID)
	if err != nil {
		if errors.Is(err, eventra.ErrUserNotFound) {
			err = eventra.ErrCodeInvalid
		}
		s.fail(w, r, err)
		return
	}

	res, err := s.core.VerifyEmail(r.Context(), u.Email, req.OTP)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.data(w, http.StatusOK, "email verified", sessionPayload{
		User:         res.User,
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
	})
}

func (s *Server) handleResendOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		s.fail(w, r, eventra.FieldErrors{{Field: "userId", Message: "userId is required"}})
		return
	}

	u, err := s.core.Profile(r.Context(), req.UserID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.core.ResendOTP(r.Context(), u.Email); err != nil {
		s.fail(w, r, err)
		return
	}

	s.message(w, http.StatusOK, "verification code sent")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	var fe eventra.FieldErrors
	if strings.TrimSpace(req.Email) == "" {
		fe = append(fe, eventra.FieldError{Field: "email", Message: "email is required"})
	}
	if req.Password == "" {
		fe = append(fe, eventra.FieldError{Field: "password", Message: "password is required"})
	}
	if len(fe) > 0 {
		s.fail(w, r, fe)
		return
	}

	res, err := s.core.Login(r.Context(), eventra.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		IP:       clientIP(r),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.data(w, http.StatusOK, "login successful", sessionPayload{
		User:         res.User,
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
	})
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		s.fail(w, r, eventra.FieldErrors{{Field: "email", Message: "email is required"}})
		return
	}

	// The core stays silent about unknown addresses; only throttle and
	// backend failures surface here.
	if err := s.core.ForgotPassword(r.Context(), req.Email); err != nil {
		s.fail(w, r, err)
		return
	}

	s.message(w, http.StatusOK, "if that email has an account, a reset code has been sent")
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		ResetCode   string `json:"resetCode"`
		NewPassword string `json:"newPassword"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	var fe eventra.FieldErrors
	if strings.TrimSpace(req.Email) == "" {
		fe = append(fe, eventra.FieldError{Field: "email", Message: "email is required"})
	}
	if strings.TrimSpace(req.ResetCode) == "" {
		fe = append(fe, eventra.FieldError{Field: "resetCode", Message: "resetCode is required"})
	}
	if req.NewPassword == "" {
		fe = append(fe, eventra.FieldError{Field: "newPassword", Message: "newPassword is required"})
	}
	if len(fe) > 0 {
		s.fail(w, r, fe)
		return
	}

	if err := s.core.ResetPassword(r.Context(), req.Email, req.ResetCode, req.NewPassword); err != nil {
		s.fail(w, r, err)
		return
	}

	s.message(w, http.StatusOK, "password reset, sign in with your new password")
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		s.fail(w, r, eventra.FieldErrors{{Field: "refreshToken", Message: "refreshToken is required"}})
		return
	}

	pair, err := s.core.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.data(w, http.StatusOK, "token refreshed", sessionPayload{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		s.fail(w, r, eventra.FieldErrors{{Field: "refreshToken", Message: "refreshToken is required"}})
		return
	}

	if err := s.core.Logout(r.Context(), req.RefreshToken); err != nil {
		s.fail(w, r, err)
		return
	}

	s.message(w, http.StatusOK, "logged out")
}

func (s *Server) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}

	if err := s.core.LogoutAll(r.Context(), id.ID); err != nil {
		s.fail(w, r, err)
		return
	}

	s.message(w, http.StatusOK, "all sessions revoked")
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}

	u, err := s.core.Profile(r.Context(), id.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.data(w, http.StatusOK, "", map[string]any{"user": u})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}

	var patch users.Patch
	if !s.decode(w, r, &patch) {
		return
	}

	u, err := s.core.UpdateProfile(r.Context(), id.ID, patch)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.data(w, http.StatusOK, "profile updated", map[string]any{"user": u})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	var fe eventra.FieldErrors
	if req.CurrentPassword == "" {
		fe = append(fe, eventra.FieldError{Field: "currentPassword", Message: "currentPassword is required"})
	}
	if req.NewPassword == "" {
		fe = append(fe, eventra.FieldError{Field: "newPassword", Message: "newPassword is required"})
	}
	if len(fe) > 0 {
		s.fail(w, r, fe)
		return
	}

	if err := s.core.ChangePassword(r.Context(), id.ID, req.CurrentPassword, req.NewPassword); err != nil {
		s.fail(w, r, err)
		return
	}

	s.message(w, http.StatusOK, "password changed, other sessions revoked")
}
