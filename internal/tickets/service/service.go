package tickets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"eventhub/internal/logger"
	"eventhub/internal/models"
	"eventhub/internal/tickets/lock"
	"eventhub/internal/tickets/qr"
	"eventhub/internal/utils"
)

type TicketDBLayer interface {
	CreateTicket(ctx context.Context, ticket *models.Ticket) error
	GetTicketByID(ctx context.Context, id string) (*models.Ticket, error)
	GetActiveTicket(ctx context.Context, eventID, userID string) (*models.Ticket, error)
	GetTicketsByUser(ctx context.Context, userID string) ([]models.Ticket, error)
	UpdateTicketStatus(ctx context.Context, ticketID string, from, to models.TicketStatus) error
}

type EventDBLayer interface {
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
	AddAttendee(ctx context.Context, eventID, userID string) (*models.Event, error)
	RemoveAttendee(ctx context.Context, eventID, userID string) (*models.Event, error)
	AttendeeIDs(ctx context.Context, eventID string) ([]string, error)
}

type UserDBLayer interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

type Broadcaster interface {
	Emit(update models.AttendeeUpdate)
}

type BookingPublisher interface {
	PublishTicketBooked(ticket models.Ticket) error
	PublishTicketCancelled(ticket models.Ticket) error
	PublishTicketUsed(ticket models.Ticket) error
}

// TicketService is the booking engine. Bookings and cancellations for
// one event are serialized by a per-event lock; the event store's
// transactional attendee primitives back that up, so capacity can't be
// overshot even if a lock expires mid-flight.
type TicketService struct {
	TicketDB TicketDBLayer
	EventDB  EventDBLayer
	UserDB   UserDBLayer
	Locker   lock.EventLocker
	Emitter  Broadcaster
	Kafka    BookingPublisher
	QR       *qr.QRGenerator
	Log      *logger.Logger

	LockAttempts int
	RetryDelay   time.Duration
}

func NewTicketService(ticketDB TicketDBLayer, eventDB EventDBLayer, userDB UserDBLayer,
	locker lock.EventLocker, emitter Broadcaster, kafka BookingPublisher,
	qrGen *qr.QRGenerator, log *logger.Logger) *TicketService {
	return &TicketService{
		TicketDB:     ticketDB,
		EventDB:      eventDB,
		UserDB:       userDB,
		Locker:       locker,
		Emitter:      emitter,
		Kafka:        kafka,
		QR:           qrGen,
		Log:          log,
		LockAttempts: 3,
		RetryDelay:   50 * time.Millisecond,
	}
}

// BookTicket books one ticket for userID on eventID. The capacity
// check, the duplicate-booking check and both record writes run under
// the event's lock, so concurrent bookings see each other's effects.
func (s *TicketService) BookTicket(ctx context.Context, userID, eventID string) (*models.TicketWithDetails, error) {
	lockToken := uuid.NewString()
	if err := s.acquireEventLock(ctx, eventID, lockToken); err != nil {
		return nil, err
	}
	defer s.Locker.UnlockEvent(ctx, eventID, lockToken)

	event, err := s.EventDB.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if event.IsFull() {
		return nil, models.ErrCapacityExceeded
	}

	if _, err := s.TicketDB.GetActiveTicket(ctx, eventID, userID); err == nil {
		return nil, models.ErrDuplicateBooking
	} else if !errors.Is(err, models.ErrTicketNotFound) {
		return nil, fmt.Errorf("check existing ticket: %w", err)
	}

	ticket := &models.Ticket{
		ID:           uuid.NewString(),
		EventID:      eventID,
		UserID:       userID,
		TicketNumber: utils.GenerateTicketNumber(),
		Status:       models.TicketActive,
		BookedAt:     time.Now(),
	}

	// QR generation is pure computation, run it before any state moves.
	if s.QR != nil {
		qrBytes, err := s.QR.GenerateEncryptedQR(qr.Payload{
			TicketID:     ticket.ID,
			TicketNumber: ticket.TicketNumber,
			EventID:      eventID,
			UserID:       userID,
		})
		if err != nil {
			return nil, fmt.Errorf("generate QR: %w", err)
		}
		ticket.QRCode = qrBytes
	}

	// Event update first, ticket creation gated on its success. If the
	// ticket insert fails the attendee row is compensated away, so an
	// active ticket without a matching attendee entry is never visible.
	event, err = s.EventDB.AddAttendee(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}

	if err := s.TicketDB.CreateTicket(ctx, ticket); err != nil {
		if _, rbErr := s.EventDB.RemoveAttendee(ctx, eventID, userID); rbErr != nil {
			s.logf("BOOKING", "rollback of attendee %s on event %s failed: %v", userID, eventID, rbErr)
		}
		return nil, fmt.Errorf("create ticket: %w", err)
	}

	s.logf("BOOKING", "ticket %s booked for user %s on event %s (%d/%d)",
		ticket.TicketNumber, userID, eventID, event.CurrentAttendees, event.MaxAttendees)

	s.broadcast(ctx, event)
	if s.Kafka != nil {
		if err := s.Kafka.PublishTicketBooked(*ticket); err != nil {
			s.logf("KAFKA", "publish ticket booked: %v", err)
		}
	}

	return s.withDetails(ctx, ticket, event), nil
}

// CancelTicket moves the caller's active ticket to cancelled and drops
// the caller from the attendee set. The ticket record is retained.
func (s *TicketService) CancelTicket(ctx context.Context, userID, ticketID string) error {
	ticket, err := s.TicketDB.GetTicketByID(ctx, ticketID)
	if err != nil {
		return err
	}
	// A ticket that isn't the caller's active one reads as absent.
	if ticket.UserID != userID || ticket.Status != models.TicketActive {
		return models.ErrTicketNotFound
	}

	lockToken := uuid.NewString()
	if err := s.acquireEventLock(ctx, ticket.EventID, lockToken); err != nil {
		return err
	}
	defer s.Locker.UnlockEvent(ctx, ticket.EventID, lockToken)

	// Guarded transition: a racing cancel loses here and sees NotFound.
	if err := s.TicketDB.UpdateTicketStatus(ctx, ticketID, models.TicketActive, models.TicketCancelled); err != nil {
		if errors.Is(err, models.ErrTicketNotActive) {
			return models.ErrTicketNotFound
		}
		return err
	}

	event, err := s.EventDB.RemoveAttendee(ctx, ticket.EventID, userID)
	if err != nil {
		// Put the ticket back so state stays consistent either way.
		if rbErr := s.TicketDB.UpdateTicketStatus(ctx, ticketID, models.TicketCancelled, models.TicketActive); rbErr != nil {
			s.logf("BOOKING", "rollback of ticket %s after attendee removal failure: %v", ticketID, rbErr)
		}
		return fmt.Errorf("remove attendee: %w", err)
	}

	s.logf("BOOKING", "ticket %s cancelled by user %s on event %s (%d/%d)",
		ticket.TicketNumber, userID, ticket.EventID, event.CurrentAttendees, event.MaxAttendees)

	s.broadcast(ctx, event)
	if s.Kafka != nil {
		ticket.Status = models.TicketCancelled
		if err := s.Kafka.PublishTicketCancelled(*ticket); err != nil {
			s.logf("KAFKA", "publish ticket cancelled: %v", err)
		}
	}

	return nil
}

// GetAttendeeStats returns the capacity triple for an event.
func (s *TicketService) GetAttendeeStats(ctx context.Context, eventID string) (*models.AttendeeStats, error) {
	event, err := s.EventDB.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return &models.AttendeeStats{
		Current:   event.CurrentAttendees,
		Maximum:   event.MaxAttendees,
		Available: event.MaxAttendees - event.CurrentAttendees,
	}, nil
}

// GetTicketsByUser lists the caller's tickets, newest first, with event
// summaries attached for display.
func (s *TicketService) GetTicketsByUser(ctx context.Context, userID string) ([]models.TicketWithDetails, error) {
	ticketRows, err := s.TicketDB.GetTicketsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch tickets for user %s: %w", userID, err)
	}

	result := make([]models.TicketWithDetails, 0, len(ticketRows))
	for _, t := range ticketRows {
		detailed := models.TicketWithDetails{Ticket: t}
		if event, err := s.EventDB.GetEventByID(ctx, t.EventID); err == nil {
			detailed.Event = eventSummary(event)
		}
		result = append(result, detailed)
	}
	return result, nil
}

// CheckIn marks a ticket used. Only the event owner may scan; the
// used state is terminal, so a second scan of the same ticket fails.
func (s *TicketService) CheckIn(ctx context.Context, scannerID, encryptedQR string) (*models.Ticket, error) {
	if s.QR == nil {
		return nil, errors.New("check-in not configured")
	}

	payload, err := s.QR.DecryptPayload(encryptedQR)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid QR code", models.ErrValidation)
	}

	ticket, err := s.TicketDB.GetTicketByID(ctx, payload.TicketID)
	if err != nil {
		return nil, err
	}

	event, err := s.EventDB.GetEventByID(ctx, ticket.EventID)
	if err != nil {
		return nil, err
	}
	if event.OwnerID != scannerID {
		return nil, models.ErrUnauthorized
	}

	if err := s.TicketDB.UpdateTicketStatus(ctx, ticket.ID, models.TicketActive, models.TicketUsed); err != nil {
		return nil, err
	}
	ticket.Status = models.TicketUsed

	s.logf("BOOKING", "ticket %s checked in at event %s", ticket.TicketNumber, event.ID)
	if s.Kafka != nil {
		if err := s.Kafka.PublishTicketUsed(*ticket); err != nil {
			s.logf("KAFKA", "publish ticket used: %v", err)
		}
	}

	return ticket, nil
}

// acquireEventLock tries the per-event lock a bounded number of times
// and reports Conflict once the attempts are spent.
func (s *TicketService) acquireEventLock(ctx context.Context, eventID, token string) error {
	attempts := s.LockAttempts
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		ok, err := s.Locker.LockEvent(ctx, eventID, token)
		if err != nil {
			return fmt.Errorf("event lock: %w", err)
		}
		if ok {
			return nil
		}
		if i < attempts-1 {
			select {
			case <-time.After(s.RetryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return models.ErrConflict
}

// broadcast pushes the fresh attendance numbers to live viewers. It
// runs while the event lock is still held, so viewers receive one
// event's updates in commit order.
func (s *TicketService) broadcast(ctx context.Context, event *models.Event) {
	if s.Emitter == nil {
		return
	}
	attendees, err := s.EventDB.AttendeeIDs(ctx, event.ID)
	if err != nil {
		s.logf("BOOKING", "list attendees for broadcast: %v", err)
	}
	s.Emitter.Emit(models.AttendeeUpdate{
		Type:             models.AttendeeUpdateType,
		EventID:          event.ID,
		CurrentAttendees: event.CurrentAttendees,
		Attendees:        attendees,
	})
}

func (s *TicketService) withDetails(ctx context.Context, ticket *models.Ticket, event *models.Event) *models.TicketWithDetails {
	detailed := &models.TicketWithDetails{Ticket: *ticket, Event: eventSummary(event)}
	if user, err := s.UserDB.GetUserByID(ctx, ticket.UserID); err == nil {
		detailed.User = user.Summary()
	}
	return detailed
}

func eventSummary(event *models.Event) *models.EventSummary {
	return &models.EventSummary{
		ID:        event.ID,
		Title:     event.Title,
		EventDate: event.EventDate,
		EventTime: event.EventTime,
		Location:  event.Location,
		Image:     event.Image,
	}
}

func (s *TicketService) logf(category, format string, args ...interface{}) {
	if s.Log != nil {
		s.Log.Info(category, fmt.Sprintf(format, args...))
	}
}
