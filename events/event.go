package events

import "time"

// Lifecycle statuses an event moves through. No order is enforced; planners
// cancel drafts and reopen planned events as they please.
const (
	StatusDraft     = "draft"
	StatusPlanned   = "planned"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// ValidStatus reports whether s is one of the lifecycle statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusDraft, StatusPlanned, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Event is one planned occasion owned by a planner account.
type Event struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date"`
	Venue       string    `json:"venue,omitempty"`
	Budget      float64   `json:"budget"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateInput carries the caller-settable fields of a new event. An empty
// Status defaults to draft.
type CreateInput struct {
	OwnerID     string
	Title       string
	Description string
	Date        time.Time
	Venue       string
	Budget      float64
	Status      string
}

// Patch updates an event. Nil fields keep their stored values; ID, OwnerID,
// and the timestamps cannot travel this path.
type Patch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
	Venue       *string    `json:"venue,omitempty"`
	Budget      *float64   `json:"budget,omitempty"`
	Status      *string    `json:"status,omitempty"`
}

func (p Patch) apply(e *Event) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Venue != nil {
		e.Venue = *p.Venue
	}
	if p.Budget != nil {
		e.Budget = *p.Budget
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
}
