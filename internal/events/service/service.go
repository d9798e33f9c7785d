package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	eventdb "eventhub/internal/events/db"
	"eventhub/internal/logger"
	"eventhub/internal/models"
)

type EventDBLayer interface {
	CreateEvent(ctx context.Context, event *models.Event) error
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
	ListEvents(ctx context.Context, filter eventdb.ListFilter) ([]models.Event, error)
	ListEventsByOwner(ctx context.Context, ownerID string) ([]models.Event, error)
	UpdateEvent(ctx context.Context, event *models.Event) error
	DeleteEvent(ctx context.Context, id string) error
	ListAttendees(ctx context.Context, eventID string) ([]models.AttendeeSummary, error)
}

type EventService struct {
	DB  EventDBLayer
	Log *logger.Logger
}

func NewEventService(db EventDBLayer, log *logger.Logger) *EventService {
	return &EventService{DB: db, Log: log}
}

// EventInput carries the owner-editable fields.
type EventInput struct {
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Location     string    `json:"location"`
	Image        string    `json:"image"`
	EventDate    time.Time `json:"eventDate"`
	EventTime    string    `json:"eventTime"`
	MaxAttendees int       `json:"maxAttendees"`
}

const defaultMaxAttendees = 100

func (s *EventService) CreateEvent(ctx context.Context, ownerID string, input EventInput) (*models.Event, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", models.ErrValidation)
	}
	if input.MaxAttendees < 0 {
		return nil, fmt.Errorf("%w: maxAttendees must be positive", models.ErrValidation)
	}
	if input.MaxAttendees == 0 {
		input.MaxAttendees = defaultMaxAttendees
	}

	now := time.Now()
	event := &models.Event{
		ID:               uuid.NewString(),
		Title:            input.Title,
		Description:      input.Description,
		Category:         input.Category,
		Location:         input.Location,
		Image:            input.Image,
		EventDate:        input.EventDate,
		EventTime:        input.EventTime,
		MaxAttendees:     input.MaxAttendees,
		CurrentAttendees: 0,
		OwnerID:          ownerID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.DB.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.logf("EVENT", "event %s created by %s (capacity %d)", event.ID, ownerID, event.MaxAttendees)
	return event, nil
}

func (s *EventService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	return s.DB.GetEventByID(ctx, id)
}

func (s *EventService) ListEvents(ctx context.Context, filter eventdb.ListFilter) ([]models.Event, error) {
	return s.DB.ListEvents(ctx, filter)
}

// UpdateEvent rewrites owner-editable fields. Capacity and attendance
// stay with the booking engine.
func (s *EventService) UpdateEvent(ctx context.Context, userID, eventID string, input EventInput) (*models.Event, error) {
	event, err := s.DB.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.OwnerID != userID {
		return nil, models.ErrUnauthorized
	}

	if input.Title != "" {
		event.Title = input.Title
	}
	if input.Description != "" {
		event.Description = input.Description
	}
	if input.Category != "" {
		event.Category = input.Category
	}
	if input.Location != "" {
		event.Location = input.Location
	}
	if input.Image != "" {
		event.Image = input.Image
	}
	if !input.EventDate.IsZero() {
		event.EventDate = input.EventDate
	}
	if input.EventTime != "" {
		event.EventTime = input.EventTime
	}

	if err := s.DB.UpdateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return event, nil
}

func (s *EventService) DeleteEvent(ctx context.Context, userID, eventID string) error {
	event, err := s.DB.GetEventByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event.OwnerID != userID {
		return models.ErrUnauthorized
	}

	if err := s.DB.DeleteEvent(ctx, eventID); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	s.logf("EVENT", "event %s deleted by owner %s", eventID, userID)
	return nil
}

// AttendeeView is the read-side projection of an event's attendance.
type AttendeeView struct {
	Attendees []models.AttendeeSummary `json:"attendees"`
	Stats     models.AttendeeStats     `json:"stats"`
}

// GetAttendees recomputes the attendee list and stats from the event
// record on every call; it is a projection, not a cache.
func (s *EventService) GetAttendees(ctx context.Context, eventID string) (*AttendeeView, error) {
	event, err := s.DB.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	attendees, err := s.DB.ListAttendees(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}

	return &AttendeeView{
		Attendees: attendees,
		Stats: models.AttendeeStats{
			Current:   event.CurrentAttendees,
			Maximum:   event.MaxAttendees,
			Available: event.MaxAttendees - event.CurrentAttendees,
		},
	}, nil
}

// OwnedEvent is an owner-facing event with display stats.
type OwnedEvent struct {
	models.Event
	Stats OwnedEventStats `json:"stats"`
}

type OwnedEventStats struct {
	TotalAttendees int    `json:"totalAttendees"`
	IsFull         bool   `json:"isFull"`
	SpotsLeft      int    `json:"spotsLeft"`
	Status         string `json:"status"`
}

// ListOwnedEvents lists the caller's events with their stats, newest
// first.
func (s *EventService) ListOwnedEvents(ctx context.Context, ownerID string) ([]OwnedEvent, error) {
	rows, err := s.DB.ListEventsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list events for owner %s: %w", ownerID, err)
	}

	now := time.Now()
	owned := make([]OwnedEvent, 0, len(rows))
	for _, e := range rows {
		status := "upcoming"
		if e.EventDate.Before(now) {
			status = "completed"
		}
		owned = append(owned, OwnedEvent{
			Event: e,
			Stats: OwnedEventStats{
				TotalAttendees: e.CurrentAttendees,
				IsFull:         e.IsFull(),
				SpotsLeft:      e.MaxAttendees - e.CurrentAttendees,
				Status:         status,
			},
		})
	}
	return owned, nil
}

func (s *EventService) logf(category, format string, args ...interface{}) {
	if s.Log != nil {
		s.Log.Info(category, fmt.Sprintf(format, args...))
	}
}
