package models

import (
	"time"

	"github.com/uptrace/bun"
)

type TicketStatus string

const (
	TicketActive    TicketStatus = "active"
	TicketUsed      TicketStatus = "used"
	TicketCancelled TicketStatus = "cancelled"
)

type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	ID           string       `bun:"id,pk" json:"id"`
	EventID      string       `bun:"event_id,notnull" json:"eventId"`
	UserID       string       `bun:"user_id,notnull" json:"userId"`
	TicketNumber string       `bun:"ticket_number,unique,notnull" json:"ticketNumber"`
	Status       TicketStatus `bun:"status,notnull" json:"status"`
	QRCode       []byte       `bun:"qr_code" json:"qrCode,omitempty"`
	BookedAt     time.Time    `bun:"booked_at,notnull" json:"bookedAt"`
}

// TicketWithDetails attaches event and user summaries for display.
type TicketWithDetails struct {
	Ticket
	Event *EventSummary `json:"event,omitempty"`
	User  *UserSummary  `json:"user,omitempty"`
}

// EventSummary is the slice of an event a ticket response carries.
type EventSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	EventDate time.Time `json:"eventDate"`
	EventTime string    `json:"eventTime"`
	Location  string    `json:"location"`
	Image     string    `json:"image,omitempty"`
}
