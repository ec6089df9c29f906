package catalog

import (
	"context"
	"time"

	"github.com/araddon/dateparse"
)

// Event is a community event shown on the public events page.
type Event struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description" validate:"required"`
	Date        time.Time `json:"date" validate:"required"`
	Image       string    `json:"image,omitempty"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// EventInput is the body of a create request. Date is kept as text and
// parsed by the service, so the admin form's "2024-05-01T18:00:00" is
// accepted alongside RFC 3339.
type EventInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Image       string `json:"image"`
	IsActive    *bool  `json:"isActive"`
}

// EventPatch is the body of an update request. Zero values mean "keep".
type EventPatch struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Image       string `json:"image"`
	IsActive    *bool  `json:"isActive"`
}

// Apply merges the truthy fields of patch into e.
func (patch EventPatch) Apply(e *Event) error {
	if patch.Title != "" {
		e.Title = patch.Title
	}
	if patch.Description != "" {
		e.Description = patch.Description
	}
	if patch.Date != "" {
		d, err := ParseDate(patch.Date)
		if err != nil {
			return err
		}
		e.Date = d
	}
	if patch.Image != "" {
		e.Image = patch.Image
	}
	if patch.IsActive != nil {
		e.IsActive = *patch.IsActive
	}
	return nil
}

// ParseDate parses an event date. Values without a zone are taken as UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, invalid("date", "is not a valid date")
	}
	return t.UTC(), nil
}

// EventFilter restricts List. The zero value matches everything.
type EventFilter struct {
	ActiveOnly bool
}

// EventRepository persists events.
//
// ListEvents returns events sorted by Date ascending. FindEvent, ReplaceEvent
// and DeleteEvent return ErrNotFound for unknown or malformed ids.
type EventRepository interface {
	ListEvents(ctx context.Context, filter EventFilter) ([]Event, error)
	FindEvent(ctx context.Context, id string) (*Event, error)
	// InsertEvent assigns e.ID.
	InsertEvent(ctx context.Context, e *Event) error
	ReplaceEvent(ctx context.Context, e *Event) error
	DeleteEvent(ctx context.Context, id string) error
}
