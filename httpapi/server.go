package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/eventrahq/eventra"
	"github.com/eventrahq/eventra/events"
	"github.com/eventrahq/eventra/middleware"
)

// Server owns the HTTP surface: it binds the auth core and the event store
// to routes and holds the pieces every handler shares.
type Server struct {
	core    *eventra.Core
	events  *events.Store
	log     *slog.Logger
	metrics http.Handler
}

// Option configures optional Server collaborators.
type Option func(*Server)

// WithLogger replaces the default logger. The server logs one line per
// request plus error-level entries for unmapped failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithMetricsHandler mounts h at GET /metrics. Without it the route is
// absent entirely rather than returning an empty page.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// NewServer builds the HTTP layer over an auth core and an event store.
func NewServer(core *eventra.Core, store *events.Store, opts ...Option) *Server {
	s := &Server{
		core:   core,
		events: store,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router assembles the route tree. Auth session routes sit behind the
// required gate; everything under /api/events does too, with role and
// ownership checks inside the handlers where the resource is known.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(chimw.Recoverer)

	// Unmatched routes still answer in the envelope.
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, envelope{Success: false, Message: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, envelope{Success: false, Message: "method not allowed"})
	})

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", s.handleSignup)
		r.Post("/verify-email", s.handleVerifyEmail)
		r.Post("/resend-otp", s.handleResendOTP)
		r.Post("/login", s.handleLogin)
		r.Post("/forgot-password", s.handleForgotPassword)
		r.Post("/reset-password", s.handleResetPassword)
		r.Post("/refresh", s.handleRefresh)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Required(s.core))
			r.Post("/logout", s.handleLogout)
			r.Post("/logout-all", s.handleLogoutAll)
			r.Get("/me", s.handleMe)
			r.Put("/profile", s.handleUpdateProfile)
			r.Put("/change-password", s.handleChangePassword)
		})
	})

	r.Route("/api/events", func(r chi.Router) {
		r.Use(middleware.Required(s.core))
		r.Post("/", s.handleCreateEvent)
		r.Get("/", s.handleListEvents)
		r.Route("/{eventID}", func(r chi.Router) {
			r.Get("/", s.handleGetEvent)
			r.Put("/", s.handleUpdateEvent)
			r.Delete("/", s.handleDeleteEvent)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.message(w, http.StatusOK, "ok")
}
