package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"eventhub/internal/models"
)

// Run creates the schema if it does not exist yet. sqlite keeps the
// whole store in one file, so table creation on startup stands in for
// a migration directory.
func Run(ctx context.Context, db *bun.DB) error {
	tables := []interface{}{
		(*models.User)(nil),
		(*models.Event)(nil),
		(*models.EventAttendee)(nil),
		(*models.Ticket)(nil),
	}

	for _, model := range tables {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}

	// Lookups on the attendee set and active-ticket checks are the hot
	// paths of the booking engine.
	indexes := []struct {
		name  string
		table string
		cols  string
	}{
		{"idx_tickets_event_user_status", "tickets", "(event_id, user_id, status)"},
		{"idx_tickets_user", "tickets", "(user_id)"},
		{"idx_event_attendees_user", "event_attendees", "(user_id)"},
		{"idx_events_owner", "events", "(owner_id)"},
	}
	for _, idx := range indexes {
		query := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s %s", idx.name, idx.table, idx.cols)
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}

	return nil
}
