package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/policy"
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, scope policy.Scope) ([]domain.Ticket, error)
	// ApplyUpdate also returns the status the ticket held immediately before the write.
	ApplyUpdate(ctx context.Context, id string, mutation TicketMutation) (*domain.Ticket, domain.TicketStatus, error)
	Stats(ctx context.Context, scope policy.Scope) (domain.TicketStats, error)
}

// ticketColumns expects the ticket row aliased as t, the client as c and the assignee as a.
const ticketColumns = `t.id, t.client_id, t.title, t.description, t.priority, t.category, t.status,
               t.assigned_to, t.resolution_notes, t.created_at, t.updated_at, t.closed_at,
               c.full_name, a.full_name`

const ticketJoins = `JOIN users c ON c.id = t.client_id
        LEFT JOIN users a ON a.id = t.assigned_to`

type ticketRepository struct {
	db DB
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DB) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	query := `
        WITH t AS (
            INSERT INTO tickets (client_id, title, description, priority, category, status, created_at, updated_at)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
            RETURNING *
        )
        SELECT ` + ticketColumns + `
        FROM t ` + ticketJoins
	row := r.db.QueryRow(ctx, query,
		ticket.ClientID,
		ticket.Title,
		ticket.Description,
		ticket.Priority,
		ticket.Category,
		ticket.Status,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	)
	return classify(scanTicket(row, ticket))
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets t ` + ticketJoins + ` WHERE t.id=$1`
	var ticket domain.Ticket
	if err := scanTicket(r.db.QueryRow(ctx, query, id), &ticket); err != nil {
		return nil, classify(err)
	}
	return &ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, scope policy.Scope) ([]domain.Ticket, error) {
	where, args := scopeClause(scope, nil)
	query := `SELECT ` + ticketColumns + ` FROM tickets t ` + ticketJoins + where +
		` ORDER BY t.created_at DESC, t.id DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	tickets := []domain.Ticket{}
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, classify(err)
		}
		tickets = append(tickets, ticket)
	}
	return tickets, classify(rows.Err())
}

// ApplyUpdate writes the mutation and reads the joined row back in one statement.
// The prior status is read under the same row lock as the write.
func (r *ticketRepository) ApplyUpdate(ctx context.Context, id string, mutation TicketMutation) (*domain.Ticket, domain.TicketStatus, error) {
	sets, args := mutation.assignments(nil)
	args = append(args, id)
	query := fmt.Sprintf(`
        WITH t AS (
            UPDATE tickets AS u SET %s
            FROM (SELECT id, status FROM tickets WHERE id=$%d FOR UPDATE) AS prev
            WHERE u.id = prev.id
            RETURNING u.*, prev.status AS previous_status
        )
        SELECT %s, t.previous_status
        FROM t %s`, strings.Join(sets, ", "), len(args), ticketColumns, ticketJoins)

	var ticket domain.Ticket
	var previous domain.TicketStatus
	if err := scanTicket(r.db.QueryRow(ctx, query, args...), &ticket, &previous); err != nil {
		return nil, "", classify(err)
	}
	return &ticket, previous, nil
}

// Stats counts tickets per status in a single statement so the buckets agree with each other.
func (r *ticketRepository) Stats(ctx context.Context, scope policy.Scope) (domain.TicketStats, error) {
	args := []any{domain.TicketStatusOpen, domain.TicketStatusInProgress, domain.TicketStatusClosed}
	where, args := scopeClause(scope, args)
	query := `
        SELECT COUNT(*) FILTER (WHERE t.status=$1),
               COUNT(*) FILTER (WHERE t.status=$2),
               COUNT(*) FILTER (WHERE t.status=$3),
               COUNT(*)
        FROM tickets t` + where

	var stats domain.TicketStats
	if err := r.db.QueryRow(ctx, query, args...).Scan(
		&stats.Open,
		&stats.InProgress,
		&stats.Closed,
		&stats.Total,
	); err != nil {
		return domain.TicketStats{}, classify(err)
	}
	return stats, nil
}

// scopeClause renders the WHERE clause for a visibility scope.
func scopeClause(scope policy.Scope, args []any) (string, []any) {
	owner, restricted := scope.OwnerID()
	if !restricted {
		return "", args
	}
	args = append(args, owner)
	return fmt.Sprintf(" WHERE t.client_id=$%d", len(args)), args
}

// scanTicket reads ticketColumns into ticket, followed by any extra columns.
func scanTicket(row pgx.Row, ticket *domain.Ticket, extra ...any) error {
	dest := []any{
		&ticket.ID,
		&ticket.ClientID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Priority,
		&ticket.Category,
		&ticket.Status,
		&ticket.AssignedTo,
		&ticket.ResolutionNotes,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ClosedAt,
		&ticket.ClientName,
		&ticket.AssigneeName,
	}
	return row.Scan(append(dest, extra...)...)
}
