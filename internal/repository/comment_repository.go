package repository

import (
	"context"

	"github.com/spec-kit/support-desk/internal/domain"
)

// CommentRepository manages ticket comments. Comments are append-only.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error)
}

type commentRepository struct {
	db DB
}

// NewCommentRepository builds repository.
func NewCommentRepository(db DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	const query = `
        WITH cm AS (
            INSERT INTO comments (ticket_id, author_id, text, created_at)
            VALUES ($1,$2,$3,$4)
            RETURNING id, ticket_id, author_id, text, created_at
        )
        SELECT cm.id, cm.ticket_id, cm.author_id, cm.text, cm.created_at, u.full_name
        FROM cm JOIN users u ON u.id = cm.author_id`
	err := r.db.QueryRow(ctx, query,
		comment.TicketID,
		comment.AuthorID,
		comment.Text,
		comment.CreatedAt,
	).Scan(
		&comment.ID,
		&comment.TicketID,
		&comment.AuthorID,
		&comment.Text,
		&comment.CreatedAt,
		&comment.AuthorName,
	)
	return classify(err)
}

func (r *commentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	const query = `
        SELECT cm.id, cm.ticket_id, cm.author_id, cm.text, cm.created_at, u.full_name
        FROM comments cm JOIN users u ON u.id = cm.author_id
        WHERE cm.ticket_id=$1
        ORDER BY cm.created_at ASC, cm.seq ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	comments := []domain.Comment{}
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.TicketID,
			&comment.AuthorID,
			&comment.Text,
			&comment.CreatedAt,
			&comment.AuthorName,
		); err != nil {
			return nil, classify(err)
		}
		comments = append(comments, comment)
	}
	return comments, classify(rows.Err())
}
