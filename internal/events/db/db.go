package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"eventhub/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateEvent(ctx context.Context, event *models.Event) error {
	_, err := d.Bun.NewInsert().Model(event).Exec(ctx)
	return err
}

func (d *DB) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrEventNotFound
		}
		return nil, err
	}
	return &event, nil
}

// ListFilter narrows and orders ListEvents results.
type ListFilter struct {
	Category string
	Search   string
	Sort     string // "date", "-date" or empty for newest first
}

func (d *DB) ListEvents(ctx context.Context, filter ListFilter) ([]models.Event, error) {
	q := d.Bun.NewSelect().Model((*models.Event)(nil))

	if filter.Category != "" && filter.Category != "all" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("title LIKE ?", pattern).WhereOr("description LIKE ?", pattern)
		})
	}

	switch filter.Sort {
	case "date":
		q = q.Order("event_date ASC")
	case "-date":
		q = q.Order("event_date DESC")
	default:
		q = q.Order("created_at DESC")
	}

	var events []models.Event
	if err := q.Scan(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (d *DB) ListEventsByOwner(ctx context.Context, ownerID string) ([]models.Event, error) {
	var events []models.Event
	err := d.Bun.NewSelect().
		Model(&events).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return events, nil
}

// UpdateEvent writes owner-editable fields. Capacity and the attendee
// count are off limits here: the count only moves through AddAttendee
// and RemoveAttendee.
func (d *DB) UpdateEvent(ctx context.Context, event *models.Event) error {
	event.UpdatedAt = time.Now()
	res, err := d.Bun.NewUpdate().
		Model(event).
		Column("title", "description", "category", "location", "image",
			"event_date", "event_time", "updated_at").
		Where("id = ?", event.ID).
		Exec(ctx)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return models.ErrEventNotFound
	}
	return nil
}

func (d *DB) DeleteEvent(ctx context.Context, id string) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*models.EventAttendee)(nil)).
			Where("event_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}
		res, err := tx.NewDelete().
			Model((*models.Event)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}
		if rows, _ := res.RowsAffected(); rows == 0 {
			return models.ErrEventNotFound
		}
		return nil
	})
}

// AddAttendee is the single mutating primitive that grows the attendee
// set. The capacity check, the insert and the count recompute run in
// one transaction, so the count can never drift from the set size and
// concurrent bookings cannot overshoot capacity.
func (d *DB) AddAttendee(ctx context.Context, eventID, userID string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := tx.NewSelect().
			Model(&event).
			Where("id = ?", eventID).
			Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return models.ErrEventNotFound
			}
			return err
		}

		if event.CurrentAttendees >= event.MaxAttendees {
			return models.ErrCapacityExceeded
		}

		attendee := models.EventAttendee{
			EventID:  eventID,
			UserID:   userID,
			JoinedAt: time.Now(),
		}
		if _, err := tx.NewInsert().
			Model(&attendee).
			On("CONFLICT DO NOTHING").
			Exec(ctx); err != nil {
			return fmt.Errorf("insert attendee: %w", err)
		}

		return d.syncAttendeeCount(ctx, tx, &event)
	})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// RemoveAttendee shrinks the attendee set and recomputes the count in
// the same transaction.
func (d *DB) RemoveAttendee(ctx context.Context, eventID, userID string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := tx.NewSelect().
			Model(&event).
			Where("id = ?", eventID).
			Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return models.ErrEventNotFound
			}
			return err
		}

		if _, err := tx.NewDelete().
			Model((*models.EventAttendee)(nil)).
			Where("event_id = ? AND user_id = ?", eventID, userID).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete attendee: %w", err)
		}

		return d.syncAttendeeCount(ctx, tx, &event)
	})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// syncAttendeeCount sets current_attendees to the literal set size.
func (d *DB) syncAttendeeCount(ctx context.Context, tx bun.Tx, event *models.Event) error {
	count, err := tx.NewSelect().
		Model((*models.EventAttendee)(nil)).
		Where("event_id = ?", event.ID).
		Count(ctx)
	if err != nil {
		return fmt.Errorf("count attendees: %w", err)
	}

	event.CurrentAttendees = count
	event.UpdatedAt = time.Now()
	_, err = tx.NewUpdate().
		Model(event).
		Column("current_attendees", "updated_at").
		Where("id = ?", event.ID).
		Exec(ctx)
	return err
}

// AttendeeIDs returns the user ids in the event's attendee set.
func (d *DB) AttendeeIDs(ctx context.Context, eventID string) ([]string, error) {
	var ids []string
	err := d.Bun.NewSelect().
		Model((*models.EventAttendee)(nil)).
		Column("user_id").
		Where("event_id = ?", eventID).
		Order("joined_at ASC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ListAttendees resolves the attendee set to user summaries.
func (d *DB) ListAttendees(ctx context.Context, eventID string) ([]models.AttendeeSummary, error) {
	var attendees []models.AttendeeSummary
	err := d.Bun.NewSelect().
		Model((*models.EventAttendee)(nil)).
		ColumnExpr("u.id AS id, u.name AS name, u.email AS email, event_attendee.joined_at AS joined_at").
		Join("JOIN users AS u ON u.id = event_attendee.user_id").
		Where("event_attendee.event_id = ?", eventID).
		Order("event_attendee.joined_at ASC").
		Scan(ctx, &attendees)
	if err != nil {
		return nil, err
	}
	return attendees, nil
}
