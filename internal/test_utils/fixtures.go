package test_utils

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TicketFixture is one Trac ticket row with its custom fields. Fields holds the standard
// columns owner, milestone, status and summary.
type TicketFixture struct {
	Created time.Time
	Fields  map[string]string
	Custom  map[string]string
}

// ChangeFixture is one ticket_change row.
type ChangeFixture struct {
	Ticket   int
	Time     time.Time
	Field    string
	OldValue string
	NewValue string
}

// InsertTicket stores the ticket and its custom fields in one transaction and returns its id.
func InsertTicket(ctx context.Context, db *pgxpool.Pool, fixture TicketFixture) (int, error) {
	var id int
	err := pgx.BeginFunc(ctx, db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			"INSERT INTO ticket (time, changetime, owner, milestone, status, summary) VALUES ($1, $1, $2, $3, $4, $5) RETURNING id",
			fixture.Created.UnixMicro(), fixture.Fields["owner"], fixture.Fields["milestone"], fixture.Fields["status"], fixture.Fields["summary"],
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert ticket: %w", err)
		}
		for name, value := range fixture.Custom {
			if _, err := tx.Exec(ctx, "INSERT INTO ticket_custom (ticket, name, value) VALUES ($1, $2, $3)", id, name, value); err != nil {
				return fmt.Errorf("insert custom field %s: %w", name, err)
			}
		}
		return nil
	})
	return id, err
}

func InsertChange(ctx context.Context, db *pgxpool.Pool, change ChangeFixture) error {
	_, err := db.Exec(ctx,
		"INSERT INTO ticket_change (ticket, time, field, oldvalue, newvalue) VALUES ($1, $2, $3, $4, $5)",
		change.Ticket, change.Time.UnixMicro(), change.Field, change.OldValue, change.NewValue)
	return err
}

// InsertMilestone stores a milestone; a nil due or completed time is stored as 0 the way Trac does.
func InsertMilestone(ctx context.Context, db *pgxpool.Pool, name string, due, completed *time.Time) error {
	_, err := db.Exec(ctx, "INSERT INTO milestone (name, due, completed) VALUES ($1, $2, $3)",
		name, microsOrZero(due), microsOrZero(completed))
	return err
}

func microsOrZero(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.UnixMicro()
}
