package catalog

import (
	"context"
	"time"
)

// EventService implements event operations over a repository.
type EventService struct {
	repo EventRepository
	now  func() time.Time
}

func NewEventService(repo EventRepository) *EventService {
	return &EventService{repo: repo, now: time.Now}
}

// List returns the events matching filter sorted by date, never nil.
func (s *EventService) List(ctx context.Context, filter EventFilter) ([]Event, error) {
	events, err := s.repo.ListEvents(ctx, filter)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []Event{}
	}
	return events, nil
}

func (s *EventService) Get(ctx context.Context, id string) (*Event, error) {
	return s.repo.FindEvent(ctx, id)
}

// Create validates in and stores a new event. IsActive defaults to true.
func (s *EventService) Create(ctx context.Context, in EventInput) (*Event, error) {
	now := s.now().UTC()
	e := &Event{
		Title:       in.Title,
		Description: in.Description,
		Image:       in.Image,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Date != "" {
		d, err := ParseDate(in.Date)
		if err != nil {
			return nil, err
		}
		e.Date = d
	}
	if in.IsActive != nil {
		e.IsActive = *in.IsActive
	}
	if err := check(e); err != nil {
		return nil, err
	}

	if err := s.repo.InsertEvent(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Update merges patch into the stored event and saves the result.
func (s *EventService) Update(ctx context.Context, id string, patch EventPatch) (*Event, error) {
	e, err := s.repo.FindEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := patch.Apply(e); err != nil {
		return nil, err
	}
	if err := check(e); err != nil {
		return nil, err
	}
	e.UpdatedAt = s.now().UTC()

	if err := s.repo.ReplaceEvent(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *EventService) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteEvent(ctx, id)
}
