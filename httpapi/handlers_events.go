package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/eventrahq/eventra"
	"github.com/eventrahq/eventra/events"
	"github.com/eventrahq/eventra/users"
)

// mapEventErr lifts event-store sentinels into the response taxonomy.
func mapEventErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, events.ErrNotFound):
		return eventra.ErrEventNotFound
	case errors.Is(err, events.ErrUnavailable):
		return fmt.Errorf("%w: %v", eventra.ErrUnavailable, err)
	default:
		return err
	}
}

func validStatusList() string {
	return strings.Join([]string{
		events.StatusDraft, events.StatusPlanned, events.StatusCompleted, events.StatusCancelled,
	}, ", ")
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}
	// Vendors supply services to events; only planners and admins own them.
	if err := eventra.RequireRole(id, users.RolePlanner, users.RoleAdmin); err != nil {
		s.fail(w, r, err)
		return
	}

	var req struct {
		Title       string    `json:"title"`
		Description string    `json:"description"`
		Date        time.Time `json:"date"`
		Venue       string    `json:"venue"`
		Budget      float64   `json:"budget"`
		Status      string    `json:"status"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	var fe eventra.FieldErrors
	if strings.TrimSpace(req.Title) == "" {
		fe = append(fe, eventra.FieldError{Field: "title", Message: "title is required"})
	}
	if req.Date.IsZero() {
		fe = append(fe, eventra.FieldError{Field: "date", Message: "date is required"})
	}
	if req.Budget < 0 {
		fe = append(fe, eventra.FieldError{Field: "budget", Message: "budget must not be negative"})
	}
	if req.Status != "" && !events.ValidStatus(req.Status) {
		fe = append(fe, eventra.FieldError{Field: "status", Message: "status must be one of: " + validStatusList()})
	}
	if len(fe) > 0 {
		s.fail(w, r, fe)
		return
	}

	ev, err := s.events.Create(r.Context(), events.CreateInput{
		OwnerID:     id.ID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Date:        req.Date,
		Venue:       req.Venue,
		Budget:      req.Budget,
		Status:      req.Status,
	})
	if err != nil {
		s.fail(w, r, mapEventErr(err))
		return
	}

	s.data(w, http.StatusCreated, "event created", map[string]any{"event": ev})
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}

	// Listing is owner-scoped. Admins may read another owner's list via
	// the owner query parameter; anyone else asking for a different owner
	// is refused rather than silently redirected to their own.
	owner := id.ID
	if requested := r.URL.Query().Get("owner"); requested != "" && requested != id.ID {
		if err := eventra.RequireRole(id, users.RoleAdmin); err != nil {
			s.fail(w, r, err)
			return
		}
		owner = requested
	}

	list, err := s.events.ListByOwner(r.Context(), owner)
	if err != nil {
		s.fail(w, r, mapEventErr(err))
		return
	}

	s.data(w, http.StatusOK, "", map[string]any{"events": list})
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}

	ev, err := s.events.FindByID(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		s.fail(w, r, mapEventErr(err))
		return
	}
	if err := eventra.RequireOwner(id, ev.OwnerID); err != nil {
		s.fail(w, r, err)
		return
	}

	s.data(w, http.StatusOK, "", map[string]any{"event": ev})
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}

	eventID := chi.URLParam(r, "eventID")
	ev, err := s.events.FindByID(r.Context(), eventID)
	if err != nil {
		s.fail(w, r, mapEventErr(err))
		return
	}
	if err := eventra.RequireOwner(id, ev.OwnerID); err != nil {
		s.fail(w, r, err)
		return
	}

	var patch events.Patch
	if !s.decode(w, r, &patch) {
		return
	}

	var fe eventra.FieldErrors
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		fe = append(fe, eventra.FieldError{Field: "title", Message: "title must not be empty"})
	}
	if patch.Budget != nil && *patch.Budget < 0 {
		fe = append(fe, eventra.FieldError{Field: "budget", Message: "budget must not be negative"})
	}
	if patch.Status != nil && !events.ValidStatus(*patch.Status) {
		fe = append(fe, eventra.FieldError{Field: "status", Message: "status must be one of: " + validStatusList()})
	}
	if len(fe) > 0 {
		s.fail(w, r, fe)
		return
	}

	updated, err := s.events.Update(r.Context(), eventID, patch)
	if err != nil {
		s.fail(w, r, mapEventErr(err))
		return
	}

	s.data(w, http.StatusOK, "event updated", map[string]any{"event": updated})
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}

	eventID := chi.URLParam(r, "eventID")
	ev, err := s.events.FindByID(r.Context(), eventID)
	if err != nil {
		s.fail(w, r, mapEventErr(err))
		return
	}
	if err := eventra.RequireOwner(id, ev.OwnerID); err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.events.Delete(r.Context(), eventID); err != nil {
		s.fail(w, r, mapEventErr(err))
		return
	}

	s.message(w, http.StatusOK, "event deleted")
}
