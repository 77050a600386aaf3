package dto

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/service"
)

// CreateTicketRequest payload. Priority and category are optional.
type CreateTicketRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	Priority    string `json:"priority"`
	Category    string `json:"category"`
}

// Input converts the request into service input.
func (r CreateTicketRequest) Input() service.CreateTicketInput {
	return service.CreateTicketInput{
		Title:       r.Title,
		Description: r.Description,
		Priority:    r.Priority,
		Category:    r.Category,
	}
}

// UpdateTicketRequest is a sparse patch. Absent keys leave the field unchanged;
// null clears assigned_to and resolution_notes.
type UpdateTicketRequest struct {
	Status          domain.Optional[string]  `json:"status"`
	Priority        domain.Optional[string]  `json:"priority"`
	AssignedTo      domain.Optional[*string] `json:"assigned_to"`
	ResolutionNotes domain.Optional[*string] `json:"resolution_notes"`
}

// Input converts the request into service input.
func (r UpdateTicketRequest) Input() service.UpdateTicketInput {
	return service.UpdateTicketInput{
		Status:          r.Status,
		Priority:        r.Priority,
		AssignedTo:      r.AssignedTo,
		ResolutionNotes: r.ResolutionNotes,
	}
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Text string `json:"text" validate:"required"`
}

// TicketResponse is the wire form of a ticket.
type TicketResponse struct {
	ID              string                `json:"id"`
	ClientID        string                `json:"client_id"`
	ClientName      string                `json:"client_name"`
	Title           string                `json:"title"`
	Description     string                `json:"description"`
	Priority        domain.TicketPriority `json:"priority"`
	Category        domain.TicketCategory `json:"category"`
	Status          domain.TicketStatus   `json:"status"`
	AssignedTo      *string               `json:"assigned_to"`
	AssigneeName    *string               `json:"assignee_name"`
	ResolutionNotes *string               `json:"resolution_notes"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
	ClosedAt        *time.Time            `json:"closed_at"`
}

// NewTicketResponse maps a ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:              t.ID,
		ClientID:        t.ClientID,
		ClientName:      t.ClientName,
		Title:           t.Title,
		Description:     t.Description,
		Priority:        t.Priority,
		Category:        t.Category,
		Status:          t.Status,
		AssignedTo:      t.AssignedTo,
		AssigneeName:    t.AssigneeName,
		ResolutionNotes: t.ResolutionNotes,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
		ClosedAt:        t.ClosedAt,
	}
}

// NewTicketListResponse maps tickets, keeping an empty list non-null.
func NewTicketListResponse(tickets []domain.Ticket) []TicketResponse {
	items := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, NewTicketResponse(&tickets[i]))
	}
	return items
}

// CommentResponse is the wire form of a comment.
type CommentResponse struct {
	ID         string    `json:"id"`
	TicketID   string    `json:"ticket_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewCommentResponse maps a comment.
func NewCommentResponse(c *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:         c.ID,
		TicketID:   c.TicketID,
		AuthorID:   c.AuthorID,
		AuthorName: c.AuthorName,
		Text:       c.Text,
		CreatedAt:  c.CreatedAt,
	}
}

// NewCommentListResponse maps comments.
func NewCommentListResponse(comments []domain.Comment) []CommentResponse {
	items := make([]CommentResponse, 0, len(comments))
	for i := range comments {
		items = append(items, NewCommentResponse(&comments[i]))
	}
	return items
}

// StatsResponse reports ticket counts by status.
type StatsResponse struct {
	Open       int `json:"open"`
	InProgress int `json:"in_progress"`
	Closed     int `json:"closed"`
	Total      int `json:"total"`
}

// NewStatsResponse maps stats.
func NewStatsResponse(s domain.TicketStats) StatsResponse {
	return StatsResponse{Open: s.Open, InProgress: s.InProgress, Closed: s.Closed, Total: s.Total}
}
