package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"eventhub/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateTicket(ctx context.Context, ticket *models.Ticket) error {
	_, err := d.Bun.NewInsert().Model(ticket).Exec(ctx)
	return err
}

func (d *DB) GetTicketByID(ctx context.Context, id string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.Bun.NewSelect().
		Model(&ticket).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrTicketNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

// GetActiveTicket finds the caller's active ticket for an event. The
// duplicate-booking invariant means there is at most one.
func (d *DB) GetActiveTicket(ctx context.Context, eventID, userID string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.Bun.NewSelect().
		Model(&ticket).
		Where("event_id = ? AND user_id = ? AND status = ?", eventID, userID, models.TicketActive).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrTicketNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

func (d *DB) GetTicketsByUser(ctx context.Context, userID string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("user_id = ?", userID).
		Order("booked_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// UpdateTicketStatus performs a guarded status transition. The WHERE
// clause on the current status makes the transition atomic: a ticket
// already out of `from` is left untouched and ErrTicketNotActive comes
// back instead.
func (d *DB) UpdateTicketStatus(ctx context.Context, ticketID string, from, to models.TicketStatus) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("status = ?", to).
		Where("id = ? AND status = ?", ticketID, from).
		Exec(ctx)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return models.ErrTicketNotActive
	}
	return nil
}
