package ticket

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrMilestoneNotFound = errors.New("milestone not found")

type Repository interface {
	Query(ctx context.Context, query Query) ([]Ticket, error)
	GetCompletion(ctx context.Context, ticketId int) (Completion, error)
	GetChanges(ctx context.Context, ticketId int, fields ...string) ([]Change, error)
	GetMilestone(ctx context.Context, name string) (Milestone, error)
}

type RepositoryImpl struct {
	db           *pgxpool.Pool
	customFields []string
}

// NewRepository reads tickets from the host database. customFields are the declared custom ticket
// fields; only those (and the standard fields) are loaded and can be filtered on.
func NewRepository(db *pgxpool.Pool, customFields []string) *RepositoryImpl {
	return &RepositoryImpl{db: db, customFields: customFields}
}

func (r *RepositoryImpl) Query(ctx context.Context, query Query) ([]Ticket, error) {
	sql, args := r.buildQuery(query)
	log.Debugf("ticket query: %s %v", sql, args)

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		err := fmt.Errorf("could not execute ticket query: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	fields := r.fields()
	tickets := make([]Ticket, 0, 32)
	for rows.Next() {
		var id int
		var created int64
		values := make([]string, len(fields))
		dest := make([]any, 0, len(fields)+2)
		dest = append(dest, &id, &created)
		for i := range values {
			dest = append(dest, &values[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		t := Ticket{Id: id, Created: fromMicros(created), Values: make(map[string]string, len(fields))}
		for i, field := range fields {
			t.Values[field] = values[i]
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tickets: %w", err)
	}
	return tickets, nil
}

func (r *RepositoryImpl) fields() []string {
	fields := make([]string, 0, len(StandardFields)+len(r.customFields))
	fields = append(fields, StandardFields...)
	return append(fields, r.customFields...)
}

func (r *RepositoryImpl) buildQuery(query Query) (string, []any) {
	args := make([]any, 0, len(r.customFields)+len(query.Constraints))
	columns := map[string]string{}

	selects := []string{"t.id", "COALESCE(t.time, 0)"}
	for _, field := range StandardFields {
		columns[field] = fmt.Sprintf("COALESCE(t.%s, '')", field)
		selects = append(selects, columns[field])
	}

	var joins strings.Builder
	for i, field := range r.customFields {
		if _, standard := columns[field]; standard {
			continue
		}
		args = append(args, field)
		fmt.Fprintf(&joins, " LEFT JOIN ticket_custom c%d ON (c%d.ticket = t.id AND c%d.name = $%d)", i, i, i, len(args))
		columns[field] = fmt.Sprintf("COALESCE(c%d.value, '')", i)
		selects = append(selects, columns[field])
	}

	where := make([]string, 0, len(query.Constraints))
	for _, c := range query.Constraints {
		expr, ok := columns[c.Field]
		if !ok {
			log.Warnf("ignoring query constraint on unknown ticket field %q", c.Field)
			continue
		}
		where = append(where, c.sqlClause(expr, &args))
	}

	sql := "SELECT " + strings.Join(selects, ", ") + " FROM ticket t" + joins.String()
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	sql += " ORDER BY t.id"
	return sql, args
}

func (r *RepositoryImpl) GetCompletion(ctx context.Context, ticketId int) (Completion, error) {
	const query = `
		SELECT COALESCE(t.value, ''), COALESCE(c.value, ''), COALESCE(d.value, '')
		FROM ticket tk
		LEFT JOIN ticket_custom t ON (tk.id = t.ticket AND t.name = 'totalhours')
		LEFT JOIN ticket_custom c ON (tk.id = c.ticket AND c.name = 'complete')
		LEFT JOIN ticket_custom d ON (tk.id = d.ticket AND d.name = 'due_close')
		WHERE tk.id = $1`

	var completion Completion
	err := r.db.QueryRow(ctx, query, ticketId).Scan(&completion.TotalHours, &completion.Complete, &completion.DueClose)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Completion{}, nil
		}
		err := fmt.Errorf("failed to retrieve completion of ticket %d: %w", ticketId, err)
		log.Error(err)
		return Completion{}, err
	}
	return completion, nil
}

func (r *RepositoryImpl) GetChanges(ctx context.Context, ticketId int, fields ...string) ([]Change, error) {
	const query = `
		SELECT DISTINCT c.field, c.time, COALESCE(c.oldvalue, ''), COALESCE(c.newvalue, '')
		FROM ticket_change c
		WHERE c.ticket = $1 AND c.field = ANY($2)
		ORDER BY c.time ASC`

	rows, err := r.db.Query(ctx, query, ticketId, fields)
	if err != nil {
		err := fmt.Errorf("failed to retrieve changes of ticket %d: %w", ticketId, err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	changes := make([]Change, 0, 8)
	for rows.Next() {
		var change Change
		var changed int64
		if err := rows.Scan(&change.Field, &changed, &change.OldValue, &change.NewValue); err != nil {
			return nil, fmt.Errorf("failed to scan ticket change: %w", err)
		}
		change.Time = fromMicros(changed)
		changes = append(changes, change)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ticket changes: %w", err)
	}
	slices.SortStableFunc(changes, func(a, b Change) int { return a.Time.Compare(b.Time) })
	return changes, nil
}

func (r *RepositoryImpl) GetMilestone(ctx context.Context, name string) (Milestone, error) {
	var due, completed *int64
	err := r.db.QueryRow(ctx, "SELECT due, completed FROM milestone WHERE name = $1", name).Scan(&due, &completed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Milestone{}, fmt.Errorf("couldn't find milestone %s: %w", name, ErrMilestoneNotFound)
		}
		return Milestone{}, fmt.Errorf("failed to retrieve milestone %s: %w", name, err)
	}

	milestone := Milestone{Name: name}
	if due != nil && *due != 0 {
		t := fromMicros(*due)
		milestone.Due = &t
	}
	if completed != nil && *completed != 0 {
		t := fromMicros(*completed)
		milestone.Completed = &t
	}
	return milestone, nil
}
