package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/eventrahq/eventra"
)

// envelope is the wire shape of every response. Success mirrors the HTTP
// status class so clients can branch without inspecting codes.
type envelope struct {
	Success bool                 `json:"success"`
	Message string               `json:"message,omitempty"`
	Data    any                  `json:"data,omitempty"`
	Errors  []eventra.FieldError `json:"errors,omitempty"`
}

// sessionPayload is the data block returned by every flow that establishes
// a session: login, email verification, and refresh.
type sessionPayload struct {
	User         any    `json:"user,omitempty"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func writeJSON(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func (s *Server) data(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

func (s *Server) message(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: true, Message: message})
}

// fail maps a core error onto the response taxonomy. Validation errors
// carry their per-field list; everything else is a bare message. Unmapped
// errors become a 500 with a fixed message, and only those are logged at
// error level since the rest are routine client outcomes.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var fields eventra.FieldErrors
	if errors.As(err, &fields) {
		writeJSON(w, http.StatusBadRequest, envelope{
			Success: false,
			Message: eventra.ErrValidation.Error(),
			Errors:  fields,
		})
		return
	}

	status, message := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"requestId", chimw.GetReqID(r.Context()),
			"error", err,
		)
	}
	writeJSON(w, status, envelope{Success: false, Message: message})
}

// statusFor resolves a core error to its HTTP status and public message.
// Messages come from the sentinels, never from err.Error(): wrapped store
// and transport detail stays out of responses. Refresh reuse deliberately
// reads the same as any other bad refresh token, so a replayed token does
// not confirm it was ever valid.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, eventra.ErrCodeInvalid):
		return http.StatusBadRequest, eventra.ErrCodeInvalid.Error()
	case errors.Is(err, eventra.ErrCodeExpired):
		return http.StatusBadRequest, eventra.ErrCodeExpired.Error()
	case errors.Is(err, eventra.ErrTooManyAttempts):
		return http.StatusBadRequest, eventra.ErrTooManyAttempts.Error()
	case errors.Is(err, eventra.ErrAlreadyVerified):
		return http.StatusBadRequest, eventra.ErrAlreadyVerified.Error()
	case errors.Is(err, eventra.ErrPasswordReuse):
		return http.StatusBadRequest, eventra.ErrPasswordReuse.Error()
	case errors.Is(err, eventra.ErrValidation):
		return http.StatusBadRequest, eventra.ErrValidation.Error()

	case errors.Is(err, eventra.ErrInvalidCredentials):
		return http.StatusUnauthorized, eventra.ErrInvalidCredentials.Error()
	case errors.Is(err, eventra.ErrAccountUnverified):
		return http.StatusUnauthorized, eventra.ErrAccountUnverified.Error()
	case errors.Is(err, eventra.ErrRefreshInvalid), errors.Is(err, eventra.ErrRefreshReuse):
		return http.StatusUnauthorized, "invalid or expired refresh token"
	case errors.Is(err, eventra.ErrTokenInvalid):
		return http.StatusUnauthorized, "invalid or expired token"
	case errors.Is(err, eventra.ErrUnauthorized):
		return http.StatusUnauthorized, "authentication required"

	case errors.Is(err, eventra.ErrAccountDisabled):
		return http.StatusForbidden, eventra.ErrAccountDisabled.Error()
	case errors.Is(err, eventra.ErrRoleForbidden):
		return http.StatusForbidden, eventra.ErrRoleForbidden.Error()
	case errors.Is(err, eventra.ErrNotOwner):
		return http.StatusForbidden, eventra.ErrNotOwner.Error()

	case errors.Is(err, eventra.ErrUserNotFound):
		return http.StatusNotFound, eventra.ErrUserNotFound.Error()
	case errors.Is(err, eventra.ErrEventNotFound):
		return http.StatusNotFound, eventra.ErrEventNotFound.Error()

	case errors.Is(err, eventra.ErrEmailTaken):
		return http.StatusConflict, eventra.ErrEmailTaken.Error()

	case errors.Is(err, eventra.ErrRateLimited):
		return http.StatusTooManyRequests, eventra.ErrRateLimited.Error()

	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
