package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID               string    `bun:"id,pk" json:"id"`
	Title            string    `bun:"title,notnull" json:"title"`
	Description      string    `bun:"description" json:"description"`
	Category         string    `bun:"category" json:"category"`
	Location         string    `bun:"location" json:"location"`
	Image            string    `bun:"image" json:"image,omitempty"`
	EventDate        time.Time `bun:"event_date,notnull" json:"eventDate"`
	EventTime        string    `bun:"event_time" json:"eventTime"`
	MaxAttendees     int       `bun:"max_attendees,notnull" json:"maxAttendees"`
	CurrentAttendees int       `bun:"current_attendees,notnull,default:0" json:"currentAttendees"`
	OwnerID          string    `bun:"owner_id,notnull" json:"owner"`
	CreatedAt        time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt        time.Time `bun:"updated_at,notnull" json:"updatedAt"`
}

// IsFull reports whether the event has reached capacity.
func (e *Event) IsFull() bool {
	return e.CurrentAttendees >= e.MaxAttendees
}

// EventAttendee is one row of an event's attendee set. The set is the
// source of truth for Event.CurrentAttendees: every mutation recomputes
// the count from these rows inside the same transaction.
type EventAttendee struct {
	bun.BaseModel `bun:"table:event_attendees"`

	EventID  string    `bun:"event_id,pk" json:"eventId"`
	UserID   string    `bun:"user_id,pk" json:"userId"`
	JoinedAt time.Time `bun:"joined_at,notnull" json:"joinedAt"`
}

// AttendeeStats is the capacity triple served alongside attendee lists.
type AttendeeStats struct {
	Current   int `json:"current"`
	Maximum   int `json:"maximum"`
	Available int `json:"available"`
}

// AttendeeSummary is the resolved view of one attendee for display.
type AttendeeSummary struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	JoinedAt time.Time `json:"joinedAt"`
}

// AttendeeUpdate is the live-broadcast payload pushed to viewers after a
// booking or cancellation commits.
type AttendeeUpdate struct {
	Type             string   `json:"type"`
	EventID          string   `json:"eventId"`
	CurrentAttendees int      `json:"currentAttendees"`
	Attendees        []string `json:"attendees"`
}

const AttendeeUpdateType = "ATTENDEE_UPDATE"
